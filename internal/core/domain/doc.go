// Package domain defines the core business entities for labinv.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SearchParameters: the filter state of an inventory search
//   - GlobalID: a typed record identifier such as SA12 or IC7
//   - InventoryRecord: a single search hit
//   - SavedSearch and Basket: reusable search scopes
//   - ParsedRegistration: users, groups and communities to create in bulk
//   - Event: payloads published on the in-process event bus
//   - Task: a unit of work for the single-concurrency task queue
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
