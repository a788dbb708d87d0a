package provider

import (
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/diag"

	"github.com/isometry/terraform-provider-crowd/internal/crowd"
)

// providerDataFrom type-asserts the value passed to Configure. A nil value
// means the provider has not been configured yet and is not an error.
func providerDataFrom(data any, kind string, diags *diag.Diagnostics) *crowd.ProviderData {
	if data == nil {
		return nil
	}

	providerData, ok := data.(*crowd.ProviderData)
	if !ok {
		diags.AddError(
			"Unexpected "+kind+" Configure Type",
			fmt.Sprintf("Expected *crowd.ProviderData, got: %T. Please report this issue to the provider developers.", data),
		)
		return nil
	}

	return providerData
}

// requireConfigured reports an error when an operation runs before the
// provider has been configured.
func requireConfigured(providerData *crowd.ProviderData, diags *diag.Diagnostics) bool {
	if providerData == nil || providerData.Client == nil {
		diags.AddError(
			"Provider Not Configured",
			"The Crowd provider has not been configured. Ensure the provider block sets a URL and application credentials.",
		)
		return false
	}
	return true
}
