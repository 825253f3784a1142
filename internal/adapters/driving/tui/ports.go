// Package tui provides an interactive terminal user interface for labinv.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/labinv/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
type Ports struct {
	// Search runs the inventory search the views drive.
	Search driving.SearchService

	// Records renames, tags, shares and compares records.
	Records driving.RecordActionService

	// Bus delivers dialog and confirmation requests to the TUI.
	Bus driving.EventBus

	// Server is the base URL shown in the menu. Optional.
	Server string
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	search driving.SearchService,
	records driving.RecordActionService,
	bus driving.EventBus,
) *Ports {
	return &Ports{
		Search:  search,
		Records: records,
		Bus:     bus,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Records == nil {
		return ErrMissingRecordActions
	}
	if p.Bus == nil {
		return ErrMissingEventBus
	}
	return nil
}
