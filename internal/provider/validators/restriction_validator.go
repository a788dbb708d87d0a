package validators

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
)

// Ensure the implementation satisfies the expected interface.
var _ validator.String = restrictionValidator{}

// restrictionValidator checks the shape of a Crowd Query Language restriction
// such as `name = "eng-*" and active = true`.
type restrictionValidator struct{}

// Description describes the validation in plain text.
func (v restrictionValidator) Description(_ context.Context) string {
	return "value must be a Crowd Query Language restriction"
}

// MarkdownDescription describes the validation in Markdown.
func (v restrictionValidator) MarkdownDescription(ctx context.Context) string {
	return v.Description(ctx)
}

// ValidateString performs the validation.
func (v restrictionValidator) ValidateString(ctx context.Context, request validator.StringRequest, response *validator.StringResponse) {
	// Skip validation for unknown or null values
	if request.ConfigValue.IsNull() || request.ConfigValue.IsUnknown() {
		return
	}

	value := request.ConfigValue.ValueString()

	if err := checkRestriction(value); err != nil {
		response.Diagnostics.AddAttributeError(
			request.Path,
			"Invalid Restriction",
			fmt.Sprintf("The value %q is not a valid Crowd Query Language restriction: %s", value, err.Error()),
		)
	}
}

// checkRestriction verifies that quotes and parentheses are balanced and that
// at least one comparison appears outside of a quoted string.
func checkRestriction(value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("restriction cannot be empty")
	}

	depth := 0
	inQuote := false
	escaped := false
	hasComparison := false

	for _, r := range value {
		if escaped {
			escaped = false
			continue
		}
		switch {
		case r == '\\' && inQuote:
			escaped = true
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '(':
			depth++
		case r == ')':
			depth--
			if depth < 0 {
				return errors.New("unexpected closing parenthesis")
			}
		case r == '=' || r == '<' || r == '>':
			hasComparison = true
		}
	}

	if inQuote {
		return errors.New("unterminated quoted string")
	}
	if depth != 0 {
		return errors.New("unbalanced parentheses")
	}
	if !hasComparison {
		return errors.New("no comparison found, expected a term such as name = \"value\"")
	}
	return nil
}

// IsValidRestriction returns a validator which ensures that any configured
// attribute value is a well-formed Crowd Query Language restriction.
//
// Unknown values and null values are skipped from validation.
func IsValidRestriction() validator.String {
	return restrictionValidator{}
}
