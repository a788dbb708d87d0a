package provider

import (
	"context"

	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/isometry/terraform-provider-crowd/internal/crowd"
)

// initializeLogging registers the provider and client subsystems.
// This should be called at the beginning of each data source Read method
// and resource Create/Read/Update/Delete methods.
func initializeLogging(ctx context.Context) context.Context {
	// Pattern: TF_LOG_PROVIDER_CROWD_<SUBSYSTEM>
	ctx = tflog.NewSubsystem(ctx, "provider",
		tflog.WithLevelFromEnv("TF_LOG_PROVIDER_CROWD_PROVIDER"))
	ctx = tflog.NewSubsystem(ctx, crowd.Subsystem,
		tflog.WithLevelFromEnv("TF_LOG_PROVIDER_CROWD_CLIENT"))
	return tflog.SubsystemMaskFieldValuesWithFieldKeys(ctx, crowd.Subsystem, "password")
}
