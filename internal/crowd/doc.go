/*
Package crowd provides a client for the Atlassian Crowd usermanagement REST API.

Every operation is a single synchronous request (CreateUser and SetUserActivity
issue two). The client performs no retries, no caching and no multi-page
aggregation: list operations return exactly one page, selected by ListOptions.

# Result Shape

Operations map response status codes in one of three ways:

  - Lookups (GetUser, GetGroup, GetUserAttributes): 200 returns the document,
    404 returns (nil, nil).
  - Lists (GetUserGroups, GetGroupUsers, SearchUsers, ...): 200 returns the
    names of the returned entities in server order, 404 returns an empty slice.
  - Mutations (CreateUser, CreateGroup, AddUserToGroup, ...): the expected 201
    or 204 returns nil.

Absence is never an error. Every other outcome is one of:

  - *ConfigurationError: NewClient was given incomplete settings.
  - *MissingArgumentError: a required argument was empty; nothing was sent.
  - *UpstreamError: any other status, with the raw code and body.
  - *TransportError: network, TLS or timeout failure.

# Example Usage

	client, err := crowd.NewClient(&crowd.Config{
		BaseURL:     "https://crowd.example.com/crowd/rest/usermanagement/latest",
		AppName:     "provisioner",
		AppPassword: "secret",
	})
	if err != nil {
		return err
	}

	groups, err := client.GetUserGroups(ctx, "bob", nil)
	if err != nil {
		return err
	}
*/
package crowd
