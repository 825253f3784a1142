package domain

import (
	"fmt"
	"strings"
)

// SearchFilter is a search request in the loose string form users type on
// a command line or tool clients send. Empty fields leave the key alone.
type SearchFilter struct {
	Query        string
	ResultType   string
	Owner        string
	Bench        string
	DeletedItems string
	Parent       string
	Permalink    string
	OrderBy      string
	SortOrder    string
	Page         int
	PageSize     int
}

// Overrides validates the filter and returns it as overrides.
// Enumerations are matched case-insensitively.
func (f SearchFilter) Overrides() ([]Override, error) {
	var out []Override
	if f.Query != "" {
		out = append(out, WithQuery(f.Query))
	}
	if f.ResultType != "" {
		t := ResultType(strings.ToUpper(f.ResultType))
		if !t.IsValid() {
			return nil, fmt.Errorf("%w: result type %q", ErrInvalidInput, f.ResultType)
		}
		out = append(out, WithResultType(t))
	}
	if f.Owner != "" {
		out = append(out, WithOwner(&Person{ID: f.Owner}))
	}
	if f.Bench != "" {
		out = append(out, WithBench(&Person{ID: f.Bench}))
	}
	if f.DeletedItems != "" {
		d := DeletedItems(strings.ToUpper(f.DeletedItems))
		if !d.IsValid() {
			return nil, fmt.Errorf("%w: deleted items %q", ErrInvalidInput, f.DeletedItems)
		}
		out = append(out, WithDeletedItems(d))
	}
	if f.Parent != "" {
		id, err := ParseGlobalID(f.Parent)
		if err != nil {
			return nil, err
		}
		out = append(out, WithParentGlobalID(id))
	}
	if f.Permalink != "" {
		id, err := ParseGlobalID(f.Permalink)
		if err != nil {
			return nil, err
		}
		out = append(out, WithPermalink(id))
	}

	var order SortOrder
	if f.SortOrder != "" {
		order = SortOrder(strings.ToLower(f.SortOrder))
		if !order.IsValid() {
			return nil, fmt.Errorf("%w: sort order %q", ErrInvalidInput, f.SortOrder)
		}
	}
	switch {
	case f.OrderBy != "":
		if !IsSortKey(f.OrderBy) {
			return nil, fmt.Errorf("%w: sort key %q", ErrInvalidInput, f.OrderBy)
		}
		if order == "" {
			order = DefaultSortOrder(f.OrderBy)
		}
		out = append(out, WithOrder(f.OrderBy, order))
	case order != "":
		out = append(out, func(p *SearchParameters) { p.SortOrder = order })
	}

	if f.Page > 0 {
		out = append(out, WithPage(f.Page))
	}
	if f.PageSize > 0 {
		size := f.PageSize
		out = append(out, func(p *SearchParameters) { p.PageSize = size })
	}
	return out, nil
}
