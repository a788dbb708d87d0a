package validators

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
)

var _ validator.String = entityNameValidator{}

// entityNameValidator validates user and group names as Crowd stores them.
type entityNameValidator struct {
	kind string
}

func (v entityNameValidator) Description(_ context.Context) string {
	return fmt.Sprintf("value must be a non-empty %s name without surrounding whitespace or control characters", v.kind)
}

func (v entityNameValidator) MarkdownDescription(ctx context.Context) string {
	return v.Description(ctx)
}

func (v entityNameValidator) ValidateString(ctx context.Context, request validator.StringRequest, response *validator.StringResponse) {
	if request.ConfigValue.IsNull() || request.ConfigValue.IsUnknown() {
		return
	}

	value := request.ConfigValue.ValueString()

	var problem string
	switch {
	case value == "":
		problem = "name cannot be empty"
	case strings.TrimSpace(value) != value:
		problem = "name cannot start or end with whitespace"
	case strings.ContainsFunc(value, unicode.IsControl):
		problem = "name cannot contain control characters"
	default:
		return
	}

	response.Diagnostics.AddAttributeError(
		request.Path,
		"Invalid "+titleCase(v.kind)+" Name",
		fmt.Sprintf("The value %q is not a valid %s name: %s", value, v.kind, problem),
	)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// IsValidUserName returns a validator for Crowd user names.
func IsValidUserName() validator.String {
	return entityNameValidator{kind: "user"}
}

// IsValidGroupName returns a validator for Crowd group names.
func IsValidGroupName() validator.String {
	return entityNameValidator{kind: "group"}
}
