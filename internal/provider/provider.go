package provider

import (
	"context"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/hashicorp/terraform-plugin-framework-validators/int64validator"
	"github.com/hashicorp/terraform-plugin-framework-validators/providervalidator"
	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/provider/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/isometry/terraform-provider-crowd/internal/crowd"
)

// Environment variables consulted when the corresponding attribute is unset.
const (
	EnvURL                 = "CROWD_URL"
	EnvApplicationName     = "CROWD_APPLICATION_NAME"
	EnvApplicationPassword = "CROWD_APPLICATION_PASSWORD"
	EnvVerifyTLS           = "CROWD_VERIFY_TLS"
	EnvTimeout             = "CROWD_TIMEOUT"
	EnvPageSize            = "CROWD_PAGE_SIZE"
)

const (
	defaultTimeoutSeconds = 10
	defaultPageSize       = 1000
)

// Ensure CrowdProvider satisfies various provider interfaces.
var _ provider.Provider = &CrowdProvider{}
var _ provider.ProviderWithConfigValidators = &CrowdProvider{}

// CrowdProvider defines the provider implementation.
type CrowdProvider struct {
	// Version is set to the provider version on release, "dev" when the
	// provider is built and ran locally, and "test" when running acceptance
	// testing.
	Version string
}

// CrowdProviderModel describes the provider data model.
type CrowdProviderModel struct {
	URL                 types.String `tfsdk:"url"`
	ApplicationName     types.String `tfsdk:"application_name"`
	ApplicationPassword types.String `tfsdk:"application_password"`
	VerifyTLS           types.Bool   `tfsdk:"verify_tls"`
	Timeout             types.Int64  `tfsdk:"timeout"`
	PageSize            types.Int64  `tfsdk:"page_size"`
}

func (p *CrowdProvider) Metadata(ctx context.Context, req provider.MetadataRequest, resp *provider.MetadataResponse) {
	resp.TypeName = "crowd"
	resp.Version = p.Version
}

func (p *CrowdProvider) Schema(ctx context.Context, req provider.SchemaRequest, resp *provider.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "The Crowd provider manages users, groups and group memberships in an Atlassian Crowd " +
			"directory through the usermanagement REST API, authenticating as a Crowd application.",
		Attributes: map[string]schema.Attribute{
			"url": schema.StringAttribute{
				MarkdownDescription: "Root of the Crowd usermanagement REST API " +
					"(e.g., `https://crowd.example.com/crowd/rest/usermanagement/latest`). " +
					"Can be set via the `" + EnvURL + "` environment variable.",
				Optional: true,
				Validators: []validator.String{
					stringvalidator.RegexMatches(
						regexp.MustCompile(`^https?://`),
						"must be an http or https URL",
					),
				},
			},
			"application_name": schema.StringAttribute{
				MarkdownDescription: "Name of the Crowd application used for HTTP basic authentication. " +
					"Can be set via the `" + EnvApplicationName + "` environment variable.",
				Optional: true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"application_password": schema.StringAttribute{
				MarkdownDescription: "Password of the Crowd application. " +
					"Can be set via the `" + EnvApplicationPassword + "` environment variable.",
				Optional:  true,
				Sensitive: true,
			},
			"verify_tls": schema.BoolAttribute{
				MarkdownDescription: "Verify the server TLS certificate. Defaults to `false`. " +
					"Can be set via the `" + EnvVerifyTLS + "` environment variable.",
				Optional: true,
			},
			"timeout": schema.Int64Attribute{
				MarkdownDescription: "Per-request timeout in seconds. Defaults to `10`. " +
					"Can be set via the `" + EnvTimeout + "` environment variable.",
				Optional: true,
				Validators: []validator.Int64{
					int64validator.AtLeast(1),
				},
			},
			"page_size": schema.Int64Attribute{
				MarkdownDescription: "Maximum number of names read in a single list request by resources and data sources " +
					"that do not expose their own window. Defaults to `1000`. " +
					"Can be set via the `" + EnvPageSize + "` environment variable.",
				Optional: true,
				Validators: []validator.Int64{
					int64validator.AtLeast(1),
				},
			},
		},
	}
}

// ConfigValidators implements provider.ProviderWithConfigValidators.
func (p *CrowdProvider) ConfigValidators(ctx context.Context) []provider.ConfigValidator {
	return []provider.ConfigValidator{
		// Application credentials are a pair
		providervalidator.RequiredTogether(
			path.MatchRoot("application_name"),
			path.MatchRoot("application_password"),
		),
	}
}

func (p *CrowdProvider) Configure(ctx context.Context, req provider.ConfigureRequest, resp *provider.ConfigureResponse) {
	var data CrowdProviderModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	ctx = p.configureLogging(ctx)

	tflog.Info(ctx, "Configuring Crowd provider", map[string]any{
		"version": p.Version,
	})

	config, pageSize := p.buildClientConfig(&data, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	start := time.Now()
	client, err := crowd.NewClient(config)
	if err != nil {
		tflog.Error(ctx, "Failed to create Crowd client", map[string]any{
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		resp.Diagnostics.AddError(
			"Unable to Create Crowd Client",
			"An unexpected error occurred when creating the Crowd client. "+
				"If the error is not clear, please contact the provider developers.\n\n"+
				"Crowd Client Error: "+err.Error(),
		)
		return
	}

	providerData := crowd.NewProviderData(client, pageSize)

	start = time.Now()
	if err := providerData.ValidateConnection(ctx); err != nil {
		tflog.Error(ctx, "Connection test failed", map[string]any{
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		summary := "Unable to Connect to Crowd"
		if crowd.IsAuthenticationError(err) {
			summary = "Authentication Failed"
		}
		resp.Diagnostics.AddError(
			summary,
			"The provider could not list groups with the configured application credentials. "+
				"Please verify the URL and application settings.\n\n"+
				"Connection Error: "+err.Error(),
		)
		return
	}

	tflog.Info(ctx, "Crowd provider configured successfully", map[string]any{
		"base_url":    client.BaseURL(),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	resp.DataSourceData = providerData
	resp.ResourceData = providerData
}

// configureLogging registers the logging subsystems and adds persistent
// provider fields to all logs.
func (p *CrowdProvider) configureLogging(ctx context.Context) context.Context {
	ctx = initializeLogging(ctx)
	ctx = tflog.SetField(ctx, "provider", "crowd")
	ctx = tflog.SetField(ctx, "provider_version", p.Version)
	ctx = tflog.MaskFieldValuesWithFieldKeys(ctx, "application_password", "password")

	tflog.Debug(ctx, "Crowd provider logging configured")

	return ctx
}

// buildClientConfig constructs the client configuration from provider config and environment variables.
func (p *CrowdProvider) buildClientConfig(data *CrowdProviderModel, diags *diag.Diagnostics) (*crowd.Config, int) {
	config := &crowd.Config{
		BaseURL:     p.getStringValue(data.URL, EnvURL),
		AppName:     p.getStringValue(data.ApplicationName, EnvApplicationName),
		AppPassword: p.getStringValue(data.ApplicationPassword, EnvApplicationPassword),
		VerifyTLS:   p.getBoolValue(data.VerifyTLS, EnvVerifyTLS, false),
		Logger:      crowd.NewTFLogger(crowd.Subsystem),
	}

	if config.BaseURL == "" {
		diags.AddAttributeError(
			path.Root("url"),
			"Missing Crowd URL",
			"The provider cannot create the Crowd client because the API URL is unset. "+
				"Set the 'url' attribute or the "+EnvURL+" environment variable.",
		)
	}

	if config.AppName == "" || config.AppPassword == "" {
		diags.AddError(
			"Missing Application Credentials",
			"Crowd requests are authenticated as an application. "+
				"Provide 'application_name' and 'application_password' attributes or set the "+
				EnvApplicationName+" and "+EnvApplicationPassword+" environment variables.",
		)
	}

	if timeout := p.getInt64Value(data.Timeout, EnvTimeout, defaultTimeoutSeconds); timeout > 0 {
		config.Timeout = time.Duration(timeout) * time.Second
	}

	pageSize := p.getInt64Value(data.PageSize, EnvPageSize, defaultPageSize)
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	return config, int(pageSize)
}

// Helper functions for configuration value resolution

func (p *CrowdProvider) getStringValue(configValue types.String, envVar string) string {
	if !configValue.IsNull() && configValue.ValueString() != "" {
		return configValue.ValueString()
	}
	return os.Getenv(envVar)
}

func (p *CrowdProvider) getBoolValue(configValue types.Bool, envVar string, defaultValue bool) bool {
	if !configValue.IsNull() && !configValue.IsUnknown() {
		return configValue.ValueBool()
	}
	if envValue := os.Getenv(envVar); envValue != "" {
		if parsed, err := strconv.ParseBool(envValue); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func (p *CrowdProvider) getInt64Value(configValue types.Int64, envVar string, defaultValue int64) int64 {
	if !configValue.IsNull() && !configValue.IsUnknown() {
		return configValue.ValueInt64()
	}
	if envValue := os.Getenv(envVar); envValue != "" {
		if parsed, err := strconv.ParseInt(envValue, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func (p *CrowdProvider) Resources(ctx context.Context) []func() resource.Resource {
	return []func() resource.Resource{
		NewGroupResource,
		NewGroupMembershipResource,
	}
}

func (p *CrowdProvider) DataSources(ctx context.Context) []func() datasource.DataSource {
	return []func() datasource.DataSource{
		NewGroupDataSource,
		NewGroupsDataSource,
		NewUserDataSource,
		NewUsersDataSource,
	}
}

func New(version string) func() provider.Provider {
	return func() provider.Provider {
		return &CrowdProvider{
			Version: version,
		}
	}
}
