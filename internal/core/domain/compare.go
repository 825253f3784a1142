package domain

import (
	"strings"
	"time"
)

// ComparisonRow is one compared field across records.
type ComparisonRow struct {
	Field  string   `json:"field" yaml:"field"`
	Values []string `json:"values" yaml:"values"`

	// Differs is true when not every record has the same value.
	Differs bool `json:"differs" yaml:"differs"`
}

// Comparison is a side by side table of records.
type Comparison struct {
	Columns []GlobalID      `json:"columns" yaml:"columns"`
	Rows    []ComparisonRow `json:"rows" yaml:"rows"`
}

// CompareRecords builds the comparison table for records in the given order.
func CompareRecords(records []InventoryRecord) Comparison {
	c := Comparison{Columns: make([]GlobalID, len(records))}
	for i, r := range records {
		c.Columns[i] = r.GlobalID
	}

	fields := []struct {
		name  string
		value func(InventoryRecord) string
	}{
		{"Name", func(r InventoryRecord) string { return r.Name }},
		{"Type", func(r InventoryRecord) string { return r.Type }},
		{"Owner", func(r InventoryRecord) string { return r.Owner.DisplayName() }},
		{"Created", func(r InventoryRecord) string { return formatTime(r.Created) }},
		{"Last modified", func(r InventoryRecord) string { return formatTime(r.Modified) }},
		{"Tags", func(r InventoryRecord) string { return strings.Join(r.Tags, ", ") }},
		{"Parent", func(r InventoryRecord) string { return r.ParentGlobalID.String() }},
	}
	for _, f := range fields {
		row := ComparisonRow{Field: f.name, Values: make([]string, len(records))}
		for i, r := range records {
			row.Values[i] = f.value(r)
			if i > 0 && row.Values[i] != row.Values[0] {
				row.Differs = true
			}
		}
		c.Rows = append(c.Rows, row)
	}
	return c
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
