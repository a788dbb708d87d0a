// Package provision creates Crowd users in bulk from a JSON user list, grants
// their group memberships and optionally emails each new user their account
// details. It backs the crowd-provision command.
package provision
