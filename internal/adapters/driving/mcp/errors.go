// Package mcp provides an MCP (Model Context Protocol) server adapter for labinv.
// It lets AI assistants search the lab inventory and read saved searches.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search factory is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
