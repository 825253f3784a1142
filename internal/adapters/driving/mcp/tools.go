package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/labinv/internal/core/domain"
)

// SearchInput is the input schema for the inventory_search tool.
type SearchInput struct {
	Query        string `json:"query,omitempty" jsonschema:"free text to search for"`
	ResultType   string `json:"resultType,omitempty" jsonschema:"ALL, CONTAINER, SAMPLE, SUBSAMPLE or TEMPLATE"`
	Owner        string `json:"owner,omitempty" jsonschema:"only records owned by this username"`
	Bench        string `json:"bench,omitempty" jsonschema:"only records on this user's bench"`
	DeletedItems string `json:"deletedItems,omitempty" jsonschema:"EXCLUDE, INCLUDE or DELETED_ONLY"`
	Parent       string `json:"parent,omitempty" jsonschema:"global id of a parent container, sample, template or basket"`
	OrderBy      string `json:"orderBy,omitempty" jsonschema:"sort key such as name or modificationDate"`
	SortOrder    string `json:"sortOrder,omitempty" jsonschema:"asc or desc"`
	Page         int    `json:"page,omitempty" jsonschema:"page number starting at 0"`
	PageSize     int    `json:"pageSize,omitempty" jsonschema:"results per page (default 10)"`
	Context      string `json:"context,omitempty" jsonschema:"search context preset: inventory, picker, basket or container"`
}

// SearchOutput is the output schema for the inventory_search tool.
type SearchOutput struct {
	Status    string         `json:"status"`
	Filters   []string       `json:"filters,omitempty"`
	Records   []RecordOutput `json:"records"`
	TotalHits int            `json:"totalHits"`
}

// RecordOutput is one search hit.
type RecordOutput struct {
	GlobalID     string   `json:"globalId"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Owner        string   `json:"owner"`
	LastModified string   `json:"lastModified,omitempty"`
	Deleted      bool     `json:"deleted,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// SavedSearchesInput is the input schema for the inventory_saved_searches tool.
type SavedSearchesInput struct {
	Context string `json:"context,omitempty" jsonschema:"search context preset deciding which searches are enabled"`
}

// SavedSearchesOutput lists saved searches.
type SavedSearchesOutput struct {
	Searches []SavedSearchOutput `json:"searches"`
}

// SavedSearchOutput is one saved search.
type SavedSearchOutput struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Query   string `json:"query,omitempty"`
}

// BasketsInput is the input schema for the inventory_baskets tool.
type BasketsInput struct{}

// BasketsOutput lists baskets.
type BasketsOutput struct {
	Baskets []domain.Basket `json:"baskets"`
}

// CompareInput is the input schema for the inventory_compare tool.
type CompareInput struct {
	GlobalIDs []string `json:"globalIds" jsonschema:"two or more record global ids"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "inventory_search",
		Description: "Search samples, subsamples, containers and templates in the lab inventory",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "inventory_saved_searches",
		Description: "List the saved searches stored on this machine",
	}, s.handleSavedSearches)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "inventory_baskets",
		Description: "List the user's baskets; a basket global id can be used as search parent",
	}, s.handleBaskets)

	if s.ports.Records != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "inventory_compare",
			Description: "Compare two or more records field by field",
		}, s.handleCompare)
	}
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	overrides, err := input.overrides()
	if err != nil {
		return nil, SearchOutput{}, err
	}

	svc, err := s.ports.NewSearch(input.Context, overrides...)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	if err := svc.DoSearch(ctx); err != nil {
		return nil, SearchOutput{}, err
	}

	snap := svc.Snapshot()
	output := SearchOutput{
		Status:    snap.Status,
		Records:   make([]RecordOutput, len(snap.Results.Records)),
		TotalHits: snap.Results.TotalHits,
	}
	for _, chip := range snap.Chips {
		output.Filters = append(output.Filters, chip.Label)
	}
	for i := range snap.Results.Records {
		r := &snap.Results.Records[i]
		out := RecordOutput{
			GlobalID: r.GlobalID.String(),
			Name:     r.Name,
			Type:     r.Type,
			Owner:    r.Owner.DisplayName(),
			Deleted:  r.Deleted,
			Tags:     r.Tags,
		}
		if !r.Modified.IsZero() {
			out.LastModified = r.Modified.UTC().Format("2006-01-02T15:04:05Z")
		}
		output.Records[i] = out
	}
	return nil, output, nil
}

// overrides turns the tool input into overrides of the context defaults.
func (in SearchInput) overrides() ([]domain.Override, error) {
	return domain.SearchFilter{
		Query:        in.Query,
		ResultType:   in.ResultType,
		Owner:        in.Owner,
		Bench:        in.Bench,
		DeletedItems: in.DeletedItems,
		Parent:       in.Parent,
		OrderBy:      in.OrderBy,
		SortOrder:    in.SortOrder,
		Page:         in.Page,
		PageSize:     in.PageSize,
	}.Overrides()
}

func (s *Server) handleSavedSearches(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SavedSearchesInput,
) (*mcp.CallToolResult, SavedSearchesOutput, error) {
	svc, err := s.ports.NewSearch(input.Context)
	if err != nil {
		return nil, SavedSearchesOutput{}, err
	}
	options, err := svc.SavedSearches(ctx)
	if err != nil {
		return nil, SavedSearchesOutput{}, err
	}

	output := SavedSearchesOutput{Searches: make([]SavedSearchOutput, len(options))}
	for i := range options {
		output.Searches[i] = SavedSearchOutput{
			ID:      options[i].ID,
			Name:    options[i].Name,
			Enabled: options[i].Enabled,
		}
		if s.ports.Codec != nil {
			output.Searches[i].Query = s.ports.Codec.EncodeString(options[i].Params)
		}
	}
	return nil, output, nil
}

func (s *Server) handleBaskets(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ BasketsInput,
) (*mcp.CallToolResult, BasketsOutput, error) {
	svc, err := s.ports.NewSearch("")
	if err != nil {
		return nil, BasketsOutput{}, err
	}
	if err := svc.Load(ctx); err != nil {
		return nil, BasketsOutput{}, err
	}
	baskets := svc.Baskets()
	if baskets == nil {
		baskets = []domain.Basket{}
	}
	return nil, BasketsOutput{Baskets: baskets}, nil
}

func (s *Server) handleCompare(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CompareInput,
) (*mcp.CallToolResult, domain.Comparison, error) {
	ids := make([]domain.GlobalID, 0, len(input.GlobalIDs))
	for _, raw := range input.GlobalIDs {
		id, err := domain.ParseGlobalID(raw)
		if err != nil {
			return nil, domain.Comparison{}, err
		}
		ids = append(ids, id)
	}
	cmp, err := s.ports.Records.Compare(ctx, ids)
	if err != nil {
		return nil, domain.Comparison{}, err
	}
	return nil, *cmp, nil
}
