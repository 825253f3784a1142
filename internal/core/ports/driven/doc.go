// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - InventoryClient: search, baskets and record actions on the server
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SavedSearchStore: without it, saved searches are unavailable.
//   - TaskStore: without it, task history is not recorded.
//   - RegistrationParser, RegistrationClient: batch registration.
//   - AdminClient, LDAPClient: administration commands.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
