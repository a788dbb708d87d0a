package crowd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// GroupTypeGroup is the only group type created by this client.
const GroupTypeGroup = "GROUP"

// GetGroup retrieves a group with its attributes. A group that does not exist
// yields (nil, nil).
func (c *Client) GetGroup(ctx context.Context, groupname string) (*Group, error) {
	const operation = "get_group"
	if err := requireArgument(operation, "groupname", groupname); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("groupname", groupname)
	query.Set("expand", "attributes")

	var group Group
	document, err := c.lookup(ctx, operation, "/group", query, &group)
	if err != nil || document == nil {
		return nil, err
	}
	group.Document = document
	return &group, nil
}

// ListGroups returns one page of all group names.
func (c *Client) ListGroups(ctx context.Context, opts *ListOptions) ([]string, error) {
	query := url.Values{}
	query.Set("entity-type", "group")
	return c.listNames(ctx, "list_groups", "/search", query, "groups", opts)
}

// SearchGroups returns one page of group names matching restriction.
func (c *Client) SearchGroups(ctx context.Context, restriction string, opts *ListOptions) ([]string, error) {
	const operation = "search_groups"
	if err := requireArgument(operation, "restriction", restriction); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("entity-type", "group")
	query.Set("restriction", restriction)
	return c.listNames(ctx, operation, "/search", query, "groups", opts)
}

// CreateGroup creates an active group.
func (c *Client) CreateGroup(ctx context.Context, req *CreateGroupRequest) error {
	const operation = "create_group"
	if req == nil {
		return &MissingArgumentError{Operation: operation, Argument: "name"}
	}
	if err := requireArgument(operation, "name", req.Name); err != nil {
		return err
	}

	body := map[string]any{
		"name":        req.Name,
		"type":        GroupTypeGroup,
		"description": req.Description,
		"active":      true,
	}

	resp, err := c.post(ctx, operation, "/group", nil, body)
	if err != nil {
		return err
	}
	return expectStatus(resp, operation, http.StatusCreated)
}

// UpdateGroup changes the description or activity of a group by fetching the
// current document and writing it back with req applied.
func (c *Client) UpdateGroup(ctx context.Context, groupname string, req *UpdateGroupRequest) error {
	const operation = "update_group"
	if err := requireArgument(operation, "groupname", groupname); err != nil {
		return err
	}
	if req == nil {
		return nil
	}

	query := url.Values{}
	query.Set("groupname", groupname)

	return logOperation(ctx, c.logger, operation, map[string]any{
		"groupname": groupname,
	}, func() error {
		resp, err := c.get(ctx, operation, "/group", query)
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
		if req.Description != nil {
			document["description"] = *req.Description
		}
		if req.Active != nil {
			document["active"] = *req.Active
		}

		resp, err = c.put(ctx, operation, "/group", query, document)
		if err != nil {
			return err
		}
		return expectStatus(resp, operation, http.StatusNoContent)
	})
}

// DeleteGroup removes a group.
func (c *Client) DeleteGroup(ctx context.Context, groupname string) error {
	const operation = "delete_group"
	if err := requireArgument(operation, "groupname", groupname); err != nil {
		return err
	}

	query := url.Values{}
	query.Set("groupname", groupname)

	resp, err := c.delete(ctx, operation, "/group", query)
	if err != nil {
		return err
	}
	return expectStatus(resp, operation, http.StatusNoContent)
}
