package domain

// SortOrder is the direction of a sort.
type SortOrder string

// Sort directions.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// IsValid returns true if the direction is recognised.
func (o SortOrder) IsValid() bool {
	return o == SortAsc || o == SortDesc
}

// Invert returns the opposite direction.
func (o SortOrder) Invert() SortOrder {
	if o == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// String returns the string representation.
func (o SortOrder) String() string {
	return string(o)
}

// SortProperty describes a sortable record property.
type SortProperty struct {
	// Key is the value sent as orderBy.
	Key string

	// Label is the column heading.
	Label string

	// DefaultOrder is used when the property becomes the sort key.
	DefaultOrder SortOrder

	// AscLabel and DescLabel describe each direction, e.g. "A-Z" and "Z-A".
	AscLabel  string
	DescLabel string
}

// OrderLabel returns the label for the given direction.
func (p SortProperty) OrderLabel(o SortOrder) string {
	if o == SortDesc {
		return p.DescLabel
	}
	return p.AscLabel
}

// Sortable property keys.
const (
	SortKeyName             = "name"
	SortKeyType             = "type"
	SortKeyGlobalID         = "globalId"
	SortKeyCreationDate     = "creationDate"
	SortKeyModificationDate = "modificationDate"
	SortKeyOwner            = "owner"
)

// DefaultOrderBy is the sort key of a fresh search.
const DefaultOrderBy = SortKeyModificationDate

var sortProperties = []SortProperty{
	{Key: SortKeyName, Label: "Name", DefaultOrder: SortAsc, AscLabel: "A-Z", DescLabel: "Z-A"},
	{Key: SortKeyType, Label: "Type", DefaultOrder: SortAsc, AscLabel: "A-Z", DescLabel: "Z-A"},
	{Key: SortKeyGlobalID, Label: "Global ID", DefaultOrder: SortAsc, AscLabel: "Lowest first", DescLabel: "Highest first"},
	{Key: SortKeyCreationDate, Label: "Created", DefaultOrder: SortDesc, AscLabel: "Oldest first", DescLabel: "Newest first"},
	{Key: SortKeyModificationDate, Label: "Last modified", DefaultOrder: SortDesc, AscLabel: "Oldest first", DescLabel: "Newest first"},
	{Key: SortKeyOwner, Label: "Owner", DefaultOrder: SortAsc, AscLabel: "A-Z", DescLabel: "Z-A"},
}

// SortProperties returns every sortable property in display order.
func SortProperties() []SortProperty {
	out := make([]SortProperty, len(sortProperties))
	copy(out, sortProperties)
	return out
}

// LookupSortProperty finds a sortable property by key.
func LookupSortProperty(key string) (SortProperty, bool) {
	for _, p := range sortProperties {
		if p.Key == key {
			return p, true
		}
	}
	return SortProperty{}, false
}

// IsSortKey reports whether key names a sortable property.
func IsSortKey(key string) bool {
	_, ok := LookupSortProperty(key)
	return ok
}

// DefaultSortOrder returns the documented default direction for key.
// Unknown keys sort ascending.
func DefaultSortOrder(key string) SortOrder {
	if p, ok := LookupSortProperty(key); ok {
		return p.DefaultOrder
	}
	return SortAsc
}
