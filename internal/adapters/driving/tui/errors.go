package tui

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("tui: search service is required")

// ErrMissingRecordActions is returned when the record action service is not provided.
var ErrMissingRecordActions = errors.New("tui: record action service is required")

// ErrMissingEventBus is returned when the event bus is not provided.
var ErrMissingEventBus = errors.New("tui: event bus is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
