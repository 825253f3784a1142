package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driven"
)

// Ensure Client implements the administration ports.
var (
	_ driven.AdminClient = (*Client)(nil)
	_ driven.LDAPClient  = (*Client)(nil)
)

// Administration endpoints.
const (
	pathCommunities      = "/community/admin/ajax/communities"
	pathGroups           = "/community/admin/ajax/groups"
	pathDeleteCommunity  = "/community/admin/ajax/deleteCommunity"
	pathDeleteGroup      = "/community/admin/ajax/deleteGroup"
	pathDeleteFileSystem = "/system/netfilesystem/ajax/deleteFileSystem"
	pathRetrieveSID      = "/system/ldap/ajax/retrieveSidForUser"
)

// ListCommunities returns all communities.
func (c *Client) ListCommunities(ctx context.Context) ([]domain.Community, error) {
	var env domain.Envelope[[]domain.Community]
	req := request{op: "list communities", method: http.MethodGet, path: pathCommunities}
	if err := c.doEnvelope(ctx, req, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// ListGroups returns lab groups in server order.
func (c *Client) ListGroups(ctx context.Context) ([]domain.LabGroup, error) {
	var env domain.Envelope[[]domain.LabGroup]
	req := request{op: "list groups", method: http.MethodGet, path: pathGroups}
	if err := c.doEnvelope(ctx, req, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// DeleteCommunity removes a community.
func (c *Client) DeleteCommunity(ctx context.Context, id int64) error {
	return c.deleteByID(ctx, "delete community", pathDeleteCommunity, id)
}

// DeleteGroup removes a lab group.
func (c *Client) DeleteGroup(ctx context.Context, id int64) error {
	return c.deleteByID(ctx, "delete group", pathDeleteGroup, id)
}

// DeleteFileSystem removes a network file system.
func (c *Client) DeleteFileSystem(ctx context.Context, id int64) error {
	return c.deleteByID(ctx, "delete file system", pathDeleteFileSystem, id)
}

func (c *Client) deleteByID(ctx context.Context, op, path string, id int64) error {
	var env domain.Envelope[bool]
	req := formRequest(op, path, url.Values{"id": {strconv.FormatInt(id, 10)}})
	return c.doEnvelope(ctx, req, &env)
}

// RetrieveSID asks the server to look up and store the user's SID.
func (c *Client) RetrieveSID(ctx context.Context, username string) (string, error) {
	var env domain.Envelope[string]
	req := request{
		op:     "retrieve sid for " + username,
		method: http.MethodPost,
		path:   pathRetrieveSID,
		query:  url.Values{"username": {username}},
	}
	if err := c.doEnvelope(ctx, req, &env); err != nil {
		return "", err
	}
	if env.Data == "" {
		return "", &domain.OperationError{Op: req.op, Err: fmt.Errorf("%w: no sid returned", domain.ErrNotFound)}
	}
	return env.Data, nil
}

// envelope is satisfied by every domain.Envelope instantiation.
type envelope interface {
	Messages() []string
}

// doEnvelope is do for endpoints whose error messages are failures rather
// than row-level validation data.
func (c *Client) doEnvelope(ctx context.Context, req request, env envelope) error {
	if err := c.do(ctx, req, env); err != nil {
		return err
	}
	if msgs := env.Messages(); len(msgs) > 0 {
		return &domain.OperationError{Op: req.op, Err: errors.New(strings.Join(msgs, "; "))}
	}
	return nil
}
