package provision

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/isometry/terraform-provider-crowd/internal/crowd"
)

// User is one entry of the users JSON file.
type User struct {
	Name        string   `json:"name" validate:"required"`
	FirstName   string   `json:"first-name" validate:"required"`
	LastName    string   `json:"last-name" validate:"required"`
	DisplayName string   `json:"display-name"`
	Email       string   `json:"email" validate:"required,email"`
	Groups      []string `json:"groups" validate:"dive,required"`

	// Password is optional; when empty a password is generated.
	Password string `json:"password,omitempty"`
}

// CreateRequest returns the directory request that creates this user.
func (u *User) CreateRequest() *crowd.CreateUserRequest {
	return &crowd.CreateUserRequest{
		Name:        u.Name,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Password:    u.Password,
	}
}

// LoadUsers reads and validates the users JSON file at path.
func LoadUsers(path string) ([]User, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open users file: %w", err)
	}
	defer f.Close()

	users, err := ParseUsers(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return users, nil
}

// ParseUsers decodes a JSON array of users and validates every entry.
func ParseUsers(r io.Reader) ([]User, error) {
	var users []User
	if err := json.NewDecoder(r).Decode(&users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	validate := validator.New()
	seen := make(map[string]int, len(users))
	for i := range users {
		if err := validate.Struct(&users[i]); err != nil {
			return nil, fmt.Errorf("invalid user at index %d: %w", i, err)
		}
		if first, ok := seen[users[i].Name]; ok {
			return nil, fmt.Errorf("duplicate user %q at index %d and %d", users[i].Name, first, i)
		}
		seen[users[i].Name] = i
	}

	return users, nil
}
