package gateway

import (
	"context"
	"fmt"
	"net/http"

	domainsession "github.com/vitrinnea/admin-console/internal/domain/session"
	"github.com/vitrinnea/admin-console/internal/ports"
)

// ListGroups fetches every role/group known to the backend.
func (c *Client) ListGroups(ctx context.Context) ([]domainsession.Group, error) {
	env, err := c.doEnvelope(ctx, http.MethodGet, "/admin/groups", nil, callOptions{})
	if err != nil {
		return nil, err
	}

	var groups []domainsession.Group
	if err := decodeData(env, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// GetGroup fetches one role/group by ID.
func (c *Client) GetGroup(ctx context.Context, id int64) (*domainsession.Group, error) {
	env, err := c.doEnvelope(ctx, http.MethodGet, fmt.Sprintf("/admin/groups/%d", id), nil, callOptions{})
	if err != nil {
		return nil, err
	}

	var group domainsession.Group
	if err := decodeData(env, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// CreateGroup creates a role/group through the backend.
func (c *Client) CreateGroup(ctx context.Context, in ports.CreateGroupInput) (*domainsession.Group, error) {
	env, err := c.doEnvelope(ctx, http.MethodPost, "/admin/groups", in, callOptions{})
	if err != nil {
		return nil, err
	}

	var group domainsession.Group
	if err := decodeData(env, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// UpdateGroup updates a role/group. The name slug is immutable; only display
// metadata and the active flag change.
func (c *Client) UpdateGroup(ctx context.Context, id int64, in ports.UpdateGroupInput) (*domainsession.Group, error) {
	env, err := c.doEnvelope(ctx, http.MethodPut, fmt.Sprintf("/admin/groups/%d", id), in, callOptions{})
	if err != nil {
		return nil, err
	}

	var group domainsession.Group
	if err := decodeData(env, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// DeleteGroup deletes a role/group through the backend.
func (c *Client) DeleteGroup(ctx context.Context, id int64) error {
	_, err := c.doEnvelope(ctx, http.MethodDelete, fmt.Sprintf("/admin/groups/%d", id), nil, callOptions{})
	return err
}

type assignPermissionsRequest struct {
	Permissions []int64 `json:"permissions"`
}

// AssignPermissions replaces a group's permission set.
func (c *Client) AssignPermissions(ctx context.Context, groupID int64, permissionIDs []int64) error {
	body := assignPermissionsRequest{Permissions: permissionIDs}
	_, err := c.doEnvelope(ctx, http.MethodPost, fmt.Sprintf("/admin/groups/%d/permissions", groupID), body, callOptions{})
	return err
}

// ListPermissions fetches the full permission catalogue.
func (c *Client) ListPermissions(ctx context.Context) ([]domainsession.PermissionRef, error) {
	env, err := c.doEnvelope(ctx, http.MethodGet, "/admin/permissions", nil, callOptions{})
	if err != nil {
		return nil, err
	}

	var perms []domainsession.PermissionRef
	if err := decodeData(env, &perms); err != nil {
		return nil, err
	}
	return perms, nil
}
