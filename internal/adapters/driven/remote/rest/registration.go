package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driven"
)

// Ensure Client implements the registration ports.
var (
	_ driven.RegistrationParser = (*Client)(nil)
	_ driven.RegistrationClient = (*Client)(nil)
)

// Registration endpoints.
const (
	pathParseInput  = "/system/userRegistration/parseInputString"
	pathCSVUpload   = "/system/userRegistration/csvUpload"
	pathBatchCreate = "/system/userRegistration/batchCreate"

	// formInput is the form field carrying pasted registration text.
	formInput = "usersAndGroupsCsvFormat"
)

// ParseCSV uploads a CSV file for parsing.
func (c *Client) ParseCSV(
	ctx context.Context,
	filename string,
	r io.Reader,
) (*domain.ParsedRegistration, []string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, nil, fmt.Errorf("parse csv: read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}

	req := request{
		op:          "parse csv",
		method:      http.MethodPost,
		path:        pathCSVUpload,
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
	}
	return c.parse(ctx, req)
}

// ParseInputString parses pasted registration text on the server.
func (c *Client) ParseInputString(ctx context.Context, input string) (*domain.ParsedRegistration, []string, error) {
	req := formRequest("parse input", pathParseInput, url.Values{formInput: {input}})
	return c.parse(ctx, req)
}

func (c *Client) parse(ctx context.Context, req request) (*domain.ParsedRegistration, []string, error) {
	var env domain.Envelope[domain.ParsedRegistration]
	if err := c.do(ctx, req, &env); err != nil {
		return nil, nil, err
	}
	parsed := env.Data
	unrouted := parsed.RouteValidationMessages(env.Messages())
	return &parsed, unrouted, nil
}

// CreateUsers submits the users table.
func (c *Client) CreateUsers(ctx context.Context, users []domain.UserRow) ([]string, error) {
	return c.batchCreate(ctx, "create users", domain.ParsedRegistration{Users: users})
}

// CreateGroups submits the groups table.
func (c *Client) CreateGroups(ctx context.Context, groups []domain.GroupRow) ([]string, error) {
	return c.batchCreate(ctx, "create groups", domain.ParsedRegistration{Groups: groups})
}

// CreateCommunities submits the communities table.
func (c *Client) CreateCommunities(ctx context.Context, communities []domain.CommunityRow) ([]string, error) {
	return c.batchCreate(ctx, "create communities", domain.ParsedRegistration{Communities: communities})
}

// batchCreate posts one table. Validation messages come back as data.
func (c *Client) batchCreate(ctx context.Context, op string, payload domain.ParsedRegistration) ([]string, error) {
	req, err := jsonRequest(op, http.MethodPost, pathBatchCreate, payload)
	if err != nil {
		return nil, err
	}
	var env domain.Envelope[json.RawMessage]
	if err := c.do(ctx, req, &env); err != nil {
		return nil, err
	}
	return env.Messages(), nil
}
