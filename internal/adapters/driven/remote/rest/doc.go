// Package rest implements the server-facing driven ports over the inventory
// server's HTTP API.
//
// Every request carries the API token as a bearer credential, waits on a
// token bucket rate limiter and is retried with exponential backoff on
// 429 and 5xx responses and on transport failures.
package rest
