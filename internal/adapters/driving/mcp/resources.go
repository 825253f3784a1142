package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for labinv resources.
	uriScheme = "labinv://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "saved-searches",
		Name:        "saved-searches",
		Description: "Saved inventory searches",
		MIMEType:    "application/json",
	}, s.handleSavedSearchesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "saved-searches/{id}",
		Name:        "saved-search",
		Description: "Parameters of one saved search",
		MIMEType:    "application/json",
	}, s.handleSavedSearchResource)
}

type savedSearchInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Query   string `json:"query,omitempty"`
	Params  any    `json:"params,omitempty"`
}

func (s *Server) savedSearchInfos(ctx context.Context, withParams bool) ([]savedSearchInfo, error) {
	svc, err := s.ports.NewSearch("")
	if err != nil {
		return nil, err
	}
	options, err := svc.SavedSearches(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing saved searches: %w", err)
	}

	infos := make([]savedSearchInfo, len(options))
	for i := range options {
		infos[i] = savedSearchInfo{
			ID:      options[i].ID,
			Name:    options[i].Name,
			Enabled: options[i].Enabled,
		}
		if s.ports.Codec != nil {
			infos[i].Query = s.ports.Codec.EncodeString(options[i].Params)
		}
		if withParams {
			infos[i].Params = options[i].Params
		}
	}
	return infos, nil
}

// handleSavedSearchesResource returns every saved search.
func (s *Server) handleSavedSearchesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	infos, err := s.savedSearchInfos(ctx, false)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, infos)
}

// handleSavedSearchResource returns one saved search with its parameters.
func (s *Server) handleSavedSearchResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractSavedSearchID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	infos, err := s.savedSearchInfos(ctx, true)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.ID == id {
			return jsonResource(req.Params.URI, info)
		}
	}
	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSavedSearchID extracts the id from a URI like labinv://saved-searches/{id}.
func extractSavedSearchID(uri string) string {
	const prefix = uriScheme + "saved-searches/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
