package crowd

import (
	"context"
	"net/http"
	"net/url"
	"slices"
)

// GetUserGroups returns one page of the groups a user is a direct member of.
func (c *Client) GetUserGroups(ctx context.Context, username string, opts *ListOptions) ([]string, error) {
	return c.listByUser(ctx, "get_user_groups", "/user/group/direct", username, opts)
}

// GetNestedUserGroups returns one page of the groups a user is a direct or
// transitive member of.
func (c *Client) GetNestedUserGroups(ctx context.Context, username string, opts *ListOptions) ([]string, error) {
	return c.listByUser(ctx, "get_nested_user_groups", "/user/group/nested", username, opts)
}

// GetGroupUsers returns one page of the direct user members of a group.
func (c *Client) GetGroupUsers(ctx context.Context, groupname string, opts *ListOptions) ([]string, error) {
	return c.listByGroup(ctx, "get_group_users", "/group/user/direct", "users", groupname, opts)
}

// GetNestedGroupUsers returns one page of the direct and transitive user members of a group.
func (c *Client) GetNestedGroupUsers(ctx context.Context, groupname string, opts *ListOptions) ([]string, error) {
	return c.listByGroup(ctx, "get_nested_group_users", "/group/user/nested", "users", groupname, opts)
}

// GetParentGroups returns one page of the groups a group is a direct member of.
func (c *Client) GetParentGroups(ctx context.Context, groupname string, opts *ListOptions) ([]string, error) {
	return c.listByGroup(ctx, "get_parent_groups", "/group/parent-group/direct", "groups", groupname, opts)
}

// GetNestedParentGroups returns one page of the direct and transitive parents of a group.
func (c *Client) GetNestedParentGroups(ctx context.Context, groupname string, opts *ListOptions) ([]string, error) {
	return c.listByGroup(ctx, "get_nested_parent_groups", "/group/parent-group/nested", "groups", groupname, opts)
}

// GetChildGroups returns one page of the direct child groups of a group.
func (c *Client) GetChildGroups(ctx context.Context, groupname string, opts *ListOptions) ([]string, error) {
	return c.listByGroup(ctx, "get_child_groups", "/group/child-group/direct", "groups", groupname, opts)
}

// GetNestedChildGroups returns one page of the direct and transitive children of a group.
func (c *Client) GetNestedChildGroups(ctx context.Context, groupname string, opts *ListOptions) ([]string, error) {
	return c.listByGroup(ctx, "get_nested_child_groups", "/group/child-group/nested", "groups", groupname, opts)
}

func (c *Client) listByUser(ctx context.Context, operation, path, username string, opts *ListOptions) ([]string, error) {
	if err := requireArgument(operation, "username", username); err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("username", username)
	return c.listNames(ctx, operation, path, query, "groups", opts)
}

func (c *Client) listByGroup(ctx context.Context, operation, path, collection, groupname string, opts *ListOptions) ([]string, error) {
	if err := requireArgument(operation, "groupname", groupname); err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("groupname", groupname)
	return c.listNames(ctx, operation, path, query, collection, opts)
}

// AddUserToGroup makes a user a direct member of a group. Both must already exist.
func (c *Client) AddUserToGroup(ctx context.Context, username, groupname string) error {
	const operation = "add_user_to_group"
	if err := requireArgument(operation, "username", username); err != nil {
		return err
	}
	if err := requireArgument(operation, "groupname", groupname); err != nil {
		return err
	}

	query := url.Values{}
	query.Set("username", username)

	resp, err := c.post(ctx, operation, "/user/group/direct", query, map[string]string{"name": groupname})
	if err != nil {
		return err
	}
	return expectStatus(resp, operation, http.StatusCreated)
}

// RemoveUserFromGroup removes a direct membership.
func (c *Client) RemoveUserFromGroup(ctx context.Context, username, groupname string) error {
	const operation = "remove_user_from_group"
	if err := requireArgument(operation, "username", username); err != nil {
		return err
	}
	if err := requireArgument(operation, "groupname", groupname); err != nil {
		return err
	}

	query := url.Values{}
	query.Set("username", username)
	query.Set("groupname", groupname)

	resp, err := c.delete(ctx, operation, "/user/group/direct", query)
	if err != nil {
		return err
	}
	return expectStatus(resp, operation, http.StatusNoContent)
}

// CalculateMembershipDelta compares current and desired member sets.
// Both result slices are sorted and free of duplicates.
func CalculateMembershipDelta(current, desired []string) MembershipDelta {
	currentSet := make(map[string]struct{}, len(current))
	for _, name := range current {
		currentSet[name] = struct{}{}
	}
	desiredSet := make(map[string]struct{}, len(desired))
	for _, name := range desired {
		if name != "" {
			desiredSet[name] = struct{}{}
		}
	}

	delta := MembershipDelta{ToAdd: []string{}, ToRemove: []string{}}
	for name := range desiredSet {
		if _, ok := currentSet[name]; !ok {
			delta.ToAdd = append(delta.ToAdd, name)
		}
	}
	for name := range currentSet {
		if _, ok := desiredSet[name]; !ok {
			delta.ToRemove = append(delta.ToRemove, name)
		}
	}

	slices.Sort(delta.ToAdd)
	slices.Sort(delta.ToRemove)
	return delta
}

// SetGroupMembers makes users the exact set of direct user members of a group.
// Current membership is read from a single page of opts (defaults apply when nil);
// removals are applied before additions. It stops at the first failed request.
func (c *Client) SetGroupMembers(ctx context.Context, groupname string, users []string, opts *ListOptions) (MembershipDelta, error) {
	const operation = "set_group_members"
	if err := requireArgument(operation, "groupname", groupname); err != nil {
		return MembershipDelta{}, err
	}

	var delta MembershipDelta
	err := logOperation(ctx, c.logger, operation, map[string]any{
		"groupname":     groupname,
		"desired_count": len(users),
	}, func() error {
		current, err := c.GetGroupUsers(ctx, groupname, opts)
		if err != nil {
			return err
		}

		delta = CalculateMembershipDelta(current, users)

		for _, username := range delta.ToRemove {
			if err := c.RemoveUserFromGroup(ctx, username, groupname); err != nil {
				return err
			}
		}
		for _, username := range delta.ToAdd {
			if err := c.AddUserToGroup(ctx, username, groupname); err != nil {
				return err
			}
		}
		return nil
	})

	return delta, err
}
