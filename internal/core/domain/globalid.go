package domain

import (
	"fmt"
	"strconv"
)

// RecordType identifies what kind of record a global id refers to.
type RecordType string

// Record types addressable by global id.
const (
	RecordTypeSample      RecordType = "SAMPLE"
	RecordTypeSubSample   RecordType = "SUBSAMPLE"
	RecordTypeContainer   RecordType = "CONTAINER"
	RecordTypeTemplate    RecordType = "TEMPLATE"
	RecordTypeBench       RecordType = "BENCH"
	RecordTypeBasket      RecordType = "BASKET"
	RecordTypeDocument    RecordType = "DOCUMENT"
	RecordTypeNotebook    RecordType = "NOTEBOOK"
	RecordTypeFolder      RecordType = "FOLDER"
	RecordTypeGalleryFile RecordType = "GALLERY_FILE"
)

var recordTypesByPrefix = map[string]RecordType{
	"SA": RecordTypeSample,
	"SS": RecordTypeSubSample,
	"IC": RecordTypeContainer,
	"IT": RecordTypeTemplate,
	"BE": RecordTypeBench,
	"BA": RecordTypeBasket,
	"SD": RecordTypeDocument,
	"NB": RecordTypeNotebook,
	"FL": RecordTypeFolder,
	"GF": RecordTypeGalleryFile,
}

// Label returns the lower-case noun used in status messages.
func (t RecordType) Label() string {
	switch t {
	case RecordTypeSample:
		return "sample"
	case RecordTypeSubSample:
		return "subsample"
	case RecordTypeContainer:
		return "container"
	case RecordTypeTemplate:
		return "template"
	case RecordTypeBench:
		return "bench"
	case RecordTypeBasket:
		return "basket"
	case RecordTypeDocument:
		return "document"
	case RecordTypeNotebook:
		return "notebook"
	case RecordTypeFolder:
		return "folder"
	case RecordTypeGalleryFile:
		return "gallery file"
	default:
		return "record"
	}
}

// GlobalID is a typed identifier referring to a record across the product.
// It is a two letter prefix followed by a positive decimal id, e.g. "SA12".
type GlobalID string

// ParseGlobalID validates s and returns it as a GlobalID.
func ParseGlobalID(s string) (GlobalID, error) {
	id := GlobalID(s)
	if !id.IsValid() {
		return "", fmt.Errorf("%w: malformed global id %q", ErrInvalidInput, s)
	}
	return id, nil
}

// IsValid reports whether the id has a known prefix and a positive numeric part.
func (g GlobalID) IsValid() bool {
	if len(g) < 3 {
		return false
	}
	if _, ok := recordTypesByPrefix[string(g[:2])]; !ok {
		return false
	}
	for _, r := range g[2:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	n, err := strconv.ParseInt(string(g[2:]), 10, 64)
	return err == nil && n > 0
}

// Prefix returns the two letter type prefix.
func (g GlobalID) Prefix() string {
	if len(g) < 2 {
		return ""
	}
	return string(g[:2])
}

// ID returns the numeric part, or 0 if the id is malformed.
func (g GlobalID) ID() int64 {
	if !g.IsValid() {
		return 0
	}
	n, _ := strconv.ParseInt(string(g[2:]), 10, 64)
	return n
}

// RecordType reports the record type the prefix stands for.
func (g GlobalID) RecordType() RecordType {
	return recordTypesByPrefix[g.Prefix()]
}

// IsBasket reports whether the id refers to a basket.
func (g GlobalID) IsBasket() bool {
	return g.RecordType() == RecordTypeBasket
}

// String returns the string representation.
func (g GlobalID) String() string {
	return string(g)
}
