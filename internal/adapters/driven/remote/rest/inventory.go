package rest

import (
	"context"
	"net/http"

	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driven"
)

// Ensure Client implements the inventory port.
var _ driven.InventoryClient = (*Client)(nil)

// Inventory endpoints.
const (
	pathSearch  = "/inventory/search"
	pathBaskets = "/inventory/baskets"
	pathRecords = "/inventory/records"
	pathShare   = "/inventory/share"
)

// Search runs a listing or permalink lookup.
func (c *Client) Search(ctx context.Context, params domain.SearchParameters) (*domain.SearchResults, error) {
	var results domain.SearchResults
	req := request{
		op:     "search inventory",
		method: http.MethodGet,
		path:   pathSearch,
		query:  c.encoder.Encode(params),
	}
	if err := c.do(ctx, req, &results); err != nil {
		return nil, err
	}
	if results.Records == nil {
		results.Records = []domain.InventoryRecord{}
	}
	return &results, nil
}

// ListBaskets returns the current user's baskets.
func (c *Client) ListBaskets(ctx context.Context) ([]domain.Basket, error) {
	var baskets []domain.Basket
	req := request{op: "list baskets", method: http.MethodGet, path: pathBaskets}
	if err := c.do(ctx, req, &baskets); err != nil {
		return nil, err
	}
	return baskets, nil
}

// GetRecord fetches one record.
func (c *Client) GetRecord(ctx context.Context, id domain.GlobalID) (*domain.InventoryRecord, error) {
	var rec domain.InventoryRecord
	req := request{op: "get " + id.String(), method: http.MethodGet, path: pathRecords + "/" + id.String()}
	if err := c.do(ctx, req, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// RenameRecord changes a record's name.
func (c *Client) RenameRecord(ctx context.Context, id domain.GlobalID, name string) error {
	req, err := jsonRequest("rename "+id.String(), http.MethodPut,
		pathRecords+"/"+id.String()+"/name", map[string]string{"name": name})
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

// SetTags replaces a record's tags.
func (c *Client) SetTags(ctx context.Context, id domain.GlobalID, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	req, err := jsonRequest("tag "+id.String(), http.MethodPut,
		pathRecords+"/"+id.String()+"/tags", map[string][]string{"tags": tags})
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

type sharePayload struct {
	GlobalIDs []domain.GlobalID `json:"globalIds"`
	GroupIDs  []int64           `json:"groupIds"`
}

// ShareRecords shares records with lab groups.
func (c *Client) ShareRecords(ctx context.Context, ids []domain.GlobalID, groupIDs []int64) error {
	req, err := jsonRequest("share records", http.MethodPost, pathShare, sharePayload{GlobalIDs: ids, GroupIDs: groupIDs})
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}
