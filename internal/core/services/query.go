package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/creasty/defaults"
	"github.com/go-playground/mold/v4"
	"github.com/go-playground/mold/v4/modifiers"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/custodia-labs/labinv/internal/core/domain"
)

// searchQuery is the wire form of domain.SearchParameters on /inventory/search.
type searchQuery struct {
	Query          string `schema:"query,omitempty"`
	ResultType     string `schema:"resultType,omitempty" mod:"trim,ucase" default:"ALL" validate:"oneof=ALL CONTAINER SAMPLE SUBSAMPLE TEMPLATE"`
	OwnerID        string `schema:"ownerId,omitempty"`
	BenchID        string `schema:"benchId,omitempty"`
	DeletedItems   string `schema:"deletedItems,omitempty" mod:"trim,ucase" default:"EXCLUDE" validate:"oneof=EXCLUDE INCLUDE DELETED_ONLY"`
	ParentGlobalID string `schema:"parentGlobalId,omitempty" mod:"trim,ucase" validate:"omitempty,globalid"`
	OrderBy        string `schema:"orderBy,omitempty" mod:"trim" default:"modificationDate" validate:"sortkey"`
	SortOrder      string `schema:"sortOrder,omitempty" mod:"trim,lcase" validate:"omitempty,oneof=asc desc"`
	Permalink      string `schema:"permalink,omitempty" mod:"trim,ucase" validate:"omitempty,globalid"`
	PageNumber     int    `schema:"pageNumber,omitempty" validate:"min=0"`
	PageSize       int    `schema:"pageSize,omitempty" default:"10" validate:"min=1,max=100"`
}

// QueryCodec converts search parameters to and from URL query values.
// Decoding trims, defaults and validates the values.
type QueryCodec struct {
	encoder  *schema.Encoder
	decoder  *schema.Decoder
	conform  *mold.Transformer
	validate *validator.Validate
}

// NewQueryCodec creates a codec.
func NewQueryCodec() *QueryCodec {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &QueryCodec{
		encoder:  schema.NewEncoder(),
		decoder:  decoder,
		conform:  modifiers.New(),
		validate: newValidator(),
	}
}

// Encode returns the query values for params. Empty keys are omitted.
func (c *QueryCodec) Encode(params domain.SearchParameters) url.Values {
	q := searchQuery{
		Query:          params.Query,
		ResultType:     params.ResultType.String(),
		DeletedItems:   params.DeletedItems.String(),
		ParentGlobalID: params.ParentGlobalID.String(),
		OrderBy:        params.OrderBy,
		SortOrder:      params.SortOrder.String(),
		Permalink:      params.Permalink.String(),
		PageNumber:     params.PageNumber,
		PageSize:       params.PageSize,
	}
	if params.Owner != nil {
		q.OwnerID = params.Owner.ID
	}
	if params.Bench != nil {
		q.BenchID = params.Bench.ID
	}

	values := url.Values{}
	// Encoding a flat struct of strings, bools and ints cannot fail.
	_ = c.encoder.Encode(q, values)
	return values
}

// EncodeString returns the encoded query string, keys sorted.
func (c *QueryCodec) EncodeString(params domain.SearchParameters) string {
	return c.Encode(params).Encode()
}

// Decode parses query values into search parameters.
// Missing keys take their defaults; invalid values wrap domain.ErrInvalidInput.
func (c *QueryCodec) Decode(values url.Values) (domain.SearchParameters, error) {
	var q searchQuery
	if err := c.decoder.Decode(&q, values); err != nil {
		var multi schema.MultiError
		if errors.As(err, &multi) {
			for key, e := range multi {
				err = fmt.Errorf("%q: %w", key, e)
				break
			}
		}
		return domain.SearchParameters{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err := c.conform.Struct(context.Background(), &q); err != nil {
		return domain.SearchParameters{}, fmt.Errorf("normalise query: %w", err)
	}
	if err := defaults.Set(&q); err != nil {
		return domain.SearchParameters{}, fmt.Errorf("default query: %w", err)
	}
	if err := c.validate.Struct(&q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return domain.SearchParameters{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, formatValidationError(verrs[0]))
		}
		return domain.SearchParameters{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	params := domain.SearchParameters{
		Query:          q.Query,
		ResultType:     domain.ResultType(q.ResultType),
		DeletedItems:   domain.DeletedItems(q.DeletedItems),
		ParentGlobalID: domain.GlobalID(q.ParentGlobalID),
		OrderBy:        q.OrderBy,
		SortOrder:      domain.SortOrder(q.SortOrder),
		Permalink:      domain.GlobalID(q.Permalink),
		PageNumber:     q.PageNumber,
		PageSize:       q.PageSize,
	}
	if params.SortOrder == "" {
		params.SortOrder = domain.DefaultSortOrder(params.OrderBy)
	}
	if q.OwnerID != "" {
		params.Owner = &domain.Person{ID: q.OwnerID}
	}
	if q.BenchID != "" {
		params.Bench = &domain.Person{ID: q.BenchID}
	}
	return params, nil
}

// DecodeString parses a raw query string, with or without a leading "?".
func (c *QueryCodec) DecodeString(raw string) (domain.SearchParameters, error) {
	if len(raw) > 0 && raw[0] == '?' {
		raw = raw[1:]
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return domain.SearchParameters{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return c.Decode(values)
}
