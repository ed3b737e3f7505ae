package domain

type EventKind string

const (
	EventUserRegistered EventKind = "user.registered"
	EventUserCreated    EventKind = "user.created"
	EventTenantCreated  EventKind = "tenant.created"
)

// Event is anything that can be published on the event bus.
type Event interface {
	Kind() EventKind
}

// UserRegistered fires when a user completes self-registration.
type UserRegistered struct {
	UserID int64 `json:"user_id"`
}

func (UserRegistered) Kind() EventKind { return EventUserRegistered }

// UserCreated fires whenever a user record is created or attached to a
// tenant, including by an administrator or the member importer. TenantID is
// set when the creating context knows the tenant.
type UserCreated struct {
	UserID   int64  `json:"user_id"`
	TenantID *int64 `json:"tenant_id,omitempty"`
}

func (UserCreated) Kind() EventKind { return EventUserCreated }

type TenantCreated struct {
	TenantID  int64 `json:"tenant_id"`
	CreatorID int64 `json:"creator_id"`
}

func (TenantCreated) Kind() EventKind { return EventTenantCreated }
