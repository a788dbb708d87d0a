package crowd

import (
	"context"
	"time"
)

// Config holds configuration for the Crowd REST client.
type Config struct {
	// Connection settings
	BaseURL string        `validate:"required,url"`         // Root of the usermanagement API, e.g. https://crowd/rest/usermanagement/latest
	Timeout time.Duration `default:"10s" validate:"gte=0"` // Per-request timeout

	// Application credentials used for Basic auth on every request
	AppName     string `validate:"required"`
	AppPassword string `validate:"required"`

	// TLS settings
	VerifyTLS bool // Verify the server certificate; off unless enabled

	UserAgent string `default:"terraform-provider-crowd"`
	Logger    Logger `validate:"-"` // Defaults to the tflog adapter
}

// ListOptions holds the single-page window sent with list and search requests.
type ListOptions struct {
	MaxResults int `default:"1000" validate:"gte=1"`
	StartIndex int `default:"0" validate:"gte=0"`
}

// Attribute is a named, multi-valued custom attribute on a user or group.
type Attribute struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// AttributeList mirrors the upstream "attributes" envelope.
type AttributeList struct {
	Attributes []Attribute `json:"attributes"`
}

// User is the upstream user document.
type User struct {
	Name        string         `json:"name"`
	Key         string         `json:"key,omitempty"`
	FirstName   string         `json:"first-name,omitempty"`
	LastName    string         `json:"last-name,omitempty"`
	DisplayName string         `json:"display-name,omitempty"`
	Email       string         `json:"email,omitempty"`
	Active      bool           `json:"active"`
	Attributes  *AttributeList `json:"attributes,omitempty"`

	// Document is the full response body as returned by the server.
	Document map[string]any `json:"-"`
}

// Group is the upstream group document.
type Group struct {
	Name        string         `json:"name"`
	Type        string         `json:"type,omitempty"`
	Description string         `json:"description,omitempty"`
	Active      bool           `json:"active"`
	Attributes  *AttributeList `json:"attributes,omitempty"`

	Document map[string]any `json:"-"`
}

// AttributeValues returns the values of the named attribute, or nil.
func (u *User) AttributeValues(name string) []string {
	return u.Attributes.values(name)
}

// AttributeValues returns the values of the named attribute, or nil.
func (g *Group) AttributeValues(name string) []string {
	return g.Attributes.values(name)
}

func (l *AttributeList) values(name string) []string {
	if l == nil {
		return nil
	}
	for _, attr := range l.Attributes {
		if attr.Name == name {
			return attr.Values
		}
	}
	return nil
}

// AttributeMap flattens the attribute list into name -> values.
func (l *AttributeList) AttributeMap() map[string][]string {
	result := make(map[string][]string)
	if l == nil {
		return result
	}
	for _, attr := range l.Attributes {
		result[attr.Name] = attr.Values
	}
	return result
}

// CreateUserRequest describes a new user.
type CreateUserRequest struct {
	Name        string
	FirstName   string
	LastName    string
	DisplayName string
	Email       string
	Password    string // Empty means generate one and require a change at next login
}

// CreateUserResult reports the outcome of CreateUser.
type CreateUserResult struct {
	// Password is the generated password. Empty when the caller supplied one.
	Password string

	// PasswordChangeRequired is true when the requiresPasswordChange flag was set
	// after creation. A generated password with this false means the follow-up
	// attribute update failed and the account is not flagged for rotation.
	PasswordChangeRequired bool
}

// CreateGroupRequest describes a new group.
type CreateGroupRequest struct {
	Name        string
	Description string
}

// UpdateGroupRequest describes changes to an existing group. Nil fields are
// left unchanged.
type UpdateGroupRequest struct {
	Description *string
	Active      *bool
}

// MembershipDelta represents the changes needed to achieve desired membership state.
type MembershipDelta struct {
	ToAdd    []string
	ToRemove []string
}

// Directory is the set of operations consumers of the client depend on.
type Directory interface {
	GetUser(ctx context.Context, username string) (*User, error)
	GetGroup(ctx context.Context, groupname string) (*Group, error)
	GetUserGroups(ctx context.Context, username string, opts *ListOptions) ([]string, error)
	GetGroupUsers(ctx context.Context, groupname string, opts *ListOptions) ([]string, error)
	CreateUser(ctx context.Context, req *CreateUserRequest) (*CreateUserResult, error)
	AddUserToGroup(ctx context.Context, username, groupname string) error
	RemoveUserFromGroup(ctx context.Context, username, groupname string) error
	SetUserActivity(ctx context.Context, username string, active bool) error
}

var _ Directory = (*Client)(nil)
