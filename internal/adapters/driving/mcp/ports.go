package mcp

import (
	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driving"
)

// QueryCodec encodes search parameters as URL query strings.
type QueryCodec interface {
	EncodeString(params domain.SearchParameters) string
	DecodeString(raw string) (domain.SearchParameters, error)
}

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// NewSearch creates a search per tool call.
	NewSearch driving.SearchFactory

	// Codec renders saved searches as query strings. Optional.
	Codec QueryCodec

	// Records compares records. Optional.
	Records driving.RecordActionService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.NewSearch == nil {
		return ErrMissingSearchService
	}
	return nil
}
