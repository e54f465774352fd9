package ports

import (
	"context"

	domainsession "github.com/vitrinnea/admin-console/internal/domain/session"
)

// ListOptions carries pagination inputs for backend list endpoints.
type ListOptions struct {
	Page    int
	PerPage int
	Search  string
}

// PageMeta mirrors the backend's list pagination envelope.
type PageMeta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// CreateUserInput is the payload for creating an admin-managed user.
type CreateUserInput struct {
	Name                 string  `json:"name"`
	Email                string  `json:"email"`
	Password             string  `json:"password"`
	PasswordConfirmation string  `json:"password_confirmation"`
	UserType             string  `json:"user_type"`
	Country              string  `json:"country"`
	Roles                []int64 `json:"roles,omitempty"`
}

// UpdateUserInput is the payload for updating a user. Nil fields are omitted.
type UpdateUserInput struct {
	Name                 *string `json:"name,omitempty"`
	Email                *string `json:"email,omitempty"`
	Password             *string `json:"password,omitempty"`
	PasswordConfirmation *string `json:"password_confirmation,omitempty"`
	UserType             *string `json:"user_type,omitempty"`
	Country              *string `json:"country,omitempty"`
	Roles                []int64 `json:"roles,omitempty"`
}

// UserDirectory is the backend's admin user CRUD surface.
type UserDirectory interface {
	ListUsers(ctx context.Context, opts ListOptions) ([]domainsession.User, *PageMeta, error)
	GetUser(ctx context.Context, id int64) (*domainsession.User, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*domainsession.User, error)
	UpdateUser(ctx context.Context, id int64, in UpdateUserInput) (*domainsession.User, error)
	DeleteUser(ctx context.Context, id int64) error
	AssignRoles(ctx context.Context, userID int64, roleIDs []int64) error
}

// CreateGroupInput is the payload for creating a role/group.
type CreateGroupInput struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

// UpdateGroupInput is the payload for updating a role/group. The name slug is
// immutable and deliberately absent.
type UpdateGroupInput struct {
	DisplayName *string `json:"display_name,omitempty"`
	Description *string `json:"description,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

// GroupDirectory is the backend's role/group and permission admin surface.
type GroupDirectory interface {
	ListGroups(ctx context.Context) ([]domainsession.Group, error)
	GetGroup(ctx context.Context, id int64) (*domainsession.Group, error)
	CreateGroup(ctx context.Context, in CreateGroupInput) (*domainsession.Group, error)
	UpdateGroup(ctx context.Context, id int64, in UpdateGroupInput) (*domainsession.Group, error)
	DeleteGroup(ctx context.Context, id int64) error
	AssignPermissions(ctx context.Context, groupID int64, permissionIDs []int64) error
	ListPermissions(ctx context.Context) ([]domainsession.PermissionRef, error)
}
