// Package audit contains domain types for the console-owned audit trail.
// Audit events record what an operator did through the console; they are
// console telemetry, not backend data.
package audit

import "time"

// Action identifies the kind of operator action recorded.
type Action string

const (
	ActionLogin          Action = "login"
	ActionLoginFailed    Action = "login_failed"
	ActionLogout         Action = "logout"
	ActionSessionExpired Action = "session_expired"
	ActionCountryChange  Action = "country_change"
	ActionUserCreate     Action = "user_create"
	ActionUserUpdate     Action = "user_update"
	ActionUserDelete     Action = "user_delete"
	ActionRolesAssign    Action = "roles_assign"
	ActionGroupCreate    Action = "group_create"
	ActionGroupUpdate    Action = "group_update"
	ActionGroupDelete    Action = "group_delete"
	ActionPermsAssign    Action = "perms_assign"
)

// Event is one recorded operator action.
type Event struct {
	ID         int64     `json:"id" db:"id"`
	ActorEmail string    `json:"actor_email" db:"actor_email"`
	Action     Action    `json:"action" db:"action"`
	Target     string    `json:"target,omitempty" db:"target"`
	Country    string    `json:"country,omitempty" db:"country"`
	RequestID  string    `json:"request_id,omitempty" db:"request_id"`
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
}
