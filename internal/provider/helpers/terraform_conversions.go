// Package helpers provides common utility functions for Terraform type conversions
// that can be reused across resources and data sources.
package helpers

import (
	"context"
	"slices"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/types"
)

// AttributesType is the element type of attribute maps: name to list of values.
var AttributesType = types.ListType{ElemType: types.StringType}

// StringsToList converts names to a list, preserving order. A nil slice
// yields an empty list rather than null.
func StringsToList(ctx context.Context, values []string) (types.List, diag.Diagnostics) {
	if values == nil {
		values = []string{}
	}
	return types.ListValueFrom(ctx, types.StringType, values)
}

// StringsToSet converts names to a set.
func StringsToSet(ctx context.Context, values []string) (types.Set, diag.Diagnostics) {
	if values == nil {
		values = []string{}
	}
	return types.SetValueFrom(ctx, types.StringType, values)
}

// SetToStrings converts a set of strings to a sorted slice. Null and unknown
// sets yield an empty slice.
func SetToStrings(ctx context.Context, set types.Set) ([]string, diag.Diagnostics) {
	values := []string{}
	if set.IsNull() || set.IsUnknown() {
		return values, nil
	}

	diags := set.ElementsAs(ctx, &values, false)
	slices.Sort(values)
	return values, diags
}

// AttributesToMap converts custom attributes to a map of string lists.
func AttributesToMap(ctx context.Context, attributes map[string][]string) (types.Map, diag.Diagnostics) {
	var diags diag.Diagnostics

	elements := make(map[string]attr.Value, len(attributes))
	for name, values := range attributes {
		list, d := StringsToList(ctx, values)
		diags.Append(d...)
		elements[name] = list
	}
	if diags.HasError() {
		return types.MapNull(AttributesType), diags
	}

	result, d := types.MapValue(AttributesType, elements)
	diags.Append(d...)
	return result, diags
}
