package crowd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// RequiresPasswordChangeAttribute flags an account for password rotation at next login.
const RequiresPasswordChangeAttribute = "requiresPasswordChange"

// GetUser retrieves a user with its attributes. A user that does not exist
// yields (nil, nil).
func (c *Client) GetUser(ctx context.Context, username string) (*User, error) {
	const operation = "get_user"
	if err := requireArgument(operation, "username", username); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("username", username)
	query.Set("expand", "attributes")

	var user User
	document, err := c.lookup(ctx, operation, "/user", query, &user)
	if err != nil || document == nil {
		return nil, err
	}
	user.Document = document
	return &user, nil
}

// GetUserAttributes retrieves the custom attributes of a user. A user that
// does not exist yields (nil, nil).
func (c *Client) GetUserAttributes(ctx context.Context, username string) (*AttributeList, error) {
	const operation = "get_user_attributes"
	if err := requireArgument(operation, "username", username); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("username", username)

	var attributes AttributeList
	document, err := c.lookup(ctx, operation, "/user/attribute", query, &attributes)
	if err != nil || document == nil {
		return nil, err
	}
	return &attributes, nil
}

// ListUsers returns one page of all user names.
func (c *Client) ListUsers(ctx context.Context, opts *ListOptions) ([]string, error) {
	query := url.Values{}
	query.Set("entity-type", "user")
	return c.listNames(ctx, "list_users", "/search", query, "users", opts)
}

// SearchUsers returns one page of user names matching restriction.
func (c *Client) SearchUsers(ctx context.Context, restriction string, opts *ListOptions) ([]string, error) {
	const operation = "search_users"
	if err := requireArgument(operation, "restriction", restriction); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("entity-type", "user")
	query.Set("restriction", restriction)
	return c.listNames(ctx, operation, "/search", query, "users", opts)
}

// CreateUser creates an active user. When req.Password is empty a password is
// generated, returned in the result, and the account is flagged to change it at
// next login by a second request. A failure of that second request does not
// fail the creation; it is reported through PasswordChangeRequired.
func (c *Client) CreateUser(ctx context.Context, req *CreateUserRequest) (*CreateUserResult, error) {
	const operation = "create_user"
	if req == nil {
		return nil, &MissingArgumentError{Operation: operation, Argument: "name"}
	}
	if err := requireArgument(operation, "name", req.Name); err != nil {
		return nil, err
	}

	result := &CreateUserResult{}
	password := req.Password
	generated := password == ""
	if generated {
		password = GeneratePassword()
	}

	body := map[string]any{
		"name":   req.Name,
		"active": true,
		"password": map[string]string{
			"value": password,
		},
	}
	setIfNotEmpty(body, "first-name", req.FirstName)
	setIfNotEmpty(body, "last-name", req.LastName)
	setIfNotEmpty(body, "display-name", req.DisplayName)
	setIfNotEmpty(body, "email", req.Email)

	err := logOperation(ctx, c.logger, operation, map[string]any{
		"username":           req.Name,
		"generated_password": generated,
	}, func() error {
		resp, err := c.post(ctx, operation, "/user", nil, body)
		if err != nil {
			return err
		}
		return expectStatus(resp, operation, http.StatusCreated)
	})
	if err != nil {
		return nil, err
	}

	if !generated {
		return result, nil
	}

	result.Password = password
	if err := c.SetUserAttribute(ctx, req.Name, RequiresPasswordChangeAttribute, "true"); err != nil {
		c.logger.Warn(ctx, "User created but could not be flagged for password change", map[string]any{
			"username": req.Name,
			"error":    err.Error(),
		})
		return result, nil
	}
	result.PasswordChangeRequired = true

	return result, nil
}

// SetUserAttribute replaces the values of a single custom attribute.
func (c *Client) SetUserAttribute(ctx context.Context, username, name string, values ...string) error {
	const operation = "set_user_attribute"
	if err := requireArgument(operation, "username", username); err != nil {
		return err
	}
	if err := requireArgument(operation, "attribute_name", name); err != nil {
		return err
	}
	if len(values) == 0 {
		return &MissingArgumentError{Operation: operation, Argument: "attribute_value"}
	}

	query := url.Values{}
	query.Set("username", username)

	body := AttributeList{
		Attributes: []Attribute{{Name: name, Values: values}},
	}

	resp, err := c.post(ctx, operation, "/user/attribute", query, body)
	if err != nil {
		return err
	}
	return expectStatus(resp, operation, http.StatusNoContent)
}

// SetUserActivity activates or deactivates a user by fetching the current
// document, overwriting "active" and writing the whole document back. The two
// requests are not atomic: concurrent changes made between them are overwritten.
func (c *Client) SetUserActivity(ctx context.Context, username string, active bool) error {
	const operation = "set_user_activity"
	if err := requireArgument(operation, "username", username); err != nil {
		return err
	}

	query := url.Values{}
	query.Set("username", username)

	return logOperation(ctx, c.logger, operation, map[string]any{
		"username": username,
		"active":   active,
	}, func() error {
		resp, err := c.get(ctx, operation, "/user", query)
		if err != nil {
			return err
		}
		if resp.statusCode != http.StatusOK {
			return resp.upstreamError(operation)
		}

		document, err := decodeDocument(resp.body)
		if err != nil {
			return fmt.Errorf("crowd %s: failed to decode response: %w", operation, err)
		}
		document["active"] = active

		resp, err = c.put(ctx, operation, "/user", query, document)
		if err != nil {
			return err
		}
		return expectStatus(resp, operation, http.StatusNoContent)
	})
}

func setIfNotEmpty(body map[string]any, key, value string) {
	if value != "" {
		body[key] = value
	}
}
