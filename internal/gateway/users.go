package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	domainsession "github.com/vitrinnea/admin-console/internal/domain/session"
	"github.com/vitrinnea/admin-console/internal/ports"
)

// ListUsers fetches the admin user list with pagination.
func (c *Client) ListUsers(ctx context.Context, opts ports.ListOptions) ([]domainsession.User, *ports.PageMeta, error) {
	env, err := c.doEnvelope(ctx, http.MethodGet, "/admin/users"+listQuery(opts), nil, callOptions{})
	if err != nil {
		return nil, nil, err
	}

	var users []domainsession.User
	if err := decodeData(env, &users); err != nil {
		return nil, nil, err
	}
	return users, env.Meta, nil
}

// GetUser fetches one user by ID.
func (c *Client) GetUser(ctx context.Context, id int64) (*domainsession.User, error) {
	env, err := c.doEnvelope(ctx, http.MethodGet, fmt.Sprintf("/admin/users/%d", id), nil, callOptions{})
	if err != nil {
		return nil, err
	}

	var user domainsession.User
	if err := decodeData(env, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser creates a user through the backend.
func (c *Client) CreateUser(ctx context.Context, in ports.CreateUserInput) (*domainsession.User, error) {
	env, err := c.doEnvelope(ctx, http.MethodPost, "/admin/users", in, callOptions{})
	if err != nil {
		return nil, err
	}

	var user domainsession.User
	if err := decodeData(env, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser updates a user through the backend.
func (c *Client) UpdateUser(ctx context.Context, id int64, in ports.UpdateUserInput) (*domainsession.User, error) {
	env, err := c.doEnvelope(ctx, http.MethodPut, fmt.Sprintf("/admin/users/%d", id), in, callOptions{})
	if err != nil {
		return nil, err
	}

	var user domainsession.User
	if err := decodeData(env, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser deletes a user through the backend.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	_, err := c.doEnvelope(ctx, http.MethodDelete, fmt.Sprintf("/admin/users/%d", id), nil, callOptions{})
	return err
}

type assignRolesRequest struct {
	Roles []int64 `json:"roles"`
}

// AssignRoles replaces a user's role assignments.
func (c *Client) AssignRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	body := assignRolesRequest{Roles: roleIDs}
	_, err := c.doEnvelope(ctx, http.MethodPost, fmt.Sprintf("/admin/users/%d/roles", userID), body, callOptions{})
	return err
}

func listQuery(opts ports.ListOptions) string {
	q := url.Values{}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(opts.PerPage))
	}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
