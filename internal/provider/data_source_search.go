package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/terraform-plugin-framework-validators/int64validator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/isometry/terraform-provider-crowd/internal/crowd"
	"github.com/isometry/terraform-provider-crowd/internal/provider/helpers"
	"github.com/isometry/terraform-provider-crowd/internal/provider/validators"
)

// SearchDataSourceModel is shared by the crowd_users and crowd_groups data sources.
type SearchDataSourceModel struct {
	// Search configuration
	Restriction types.String `tfsdk:"restriction"`
	MaxResults  types.Int64  `tfsdk:"max_results"`
	StartIndex  types.Int64  `tfsdk:"start_index"`

	// Output
	ID    types.String `tfsdk:"id"`
	Names types.List   `tfsdk:"names"`
	Count types.Int64  `tfsdk:"count"`
}

// searchFuncs binds a search data source to the client operations for one entity type.
type searchFuncs struct {
	entity string // "user" or "group", for messages
	list   func(ctx context.Context, c *crowd.Client, opts *crowd.ListOptions) ([]string, error)
	search func(ctx context.Context, c *crowd.Client, restriction string, opts *crowd.ListOptions) ([]string, error)
}

func searchSchema(entity string) schema.Schema {
	return schema.Schema{
		MarkdownDescription: fmt.Sprintf("Retrieves one page of %s names, optionally filtered with a Crowd Query Language restriction.", entity),

		Attributes: map[string]schema.Attribute{
			"restriction": schema.StringAttribute{
				MarkdownDescription: "Crowd Query Language restriction (e.g., `name = \"eng-*\"`). " +
					fmt.Sprintf("When unset, all %ss are listed.", entity),
				Optional: true,
				Validators: []validator.String{
					validators.IsValidRestriction(),
				},
			},
			"max_results": schema.Int64Attribute{
				MarkdownDescription: "Maximum number of names to return. Defaults to the provider `page_size`.",
				Optional:            true,
				Validators: []validator.Int64{
					int64validator.AtLeast(1),
				},
			},
			"start_index": schema.Int64Attribute{
				MarkdownDescription: "Index of the first result to return. Defaults to `0`.",
				Optional:            true,
				Validators: []validator.Int64{
					int64validator.AtLeast(0),
				},
			},
			"id": schema.StringAttribute{
				MarkdownDescription: "A computed identifier for this data source instance.",
				Computed:            true,
			},
			"names": schema.ListAttribute{
				MarkdownDescription: fmt.Sprintf("Names of the matching %ss, in server order.", entity),
				ElementType:         types.StringType,
				Computed:            true,
			},
			"count": schema.Int64Attribute{
				MarkdownDescription: "The number of names returned.",
				Computed:            true,
			},
		},
	}
}

// listOptions builds the request window from the model, falling back to the provider page size.
func (m *SearchDataSourceModel) listOptions(providerData *crowd.ProviderData) *crowd.ListOptions {
	opts := providerData.ListOptions()
	if !m.MaxResults.IsNull() && !m.MaxResults.IsUnknown() {
		opts.MaxResults = int(m.MaxResults.ValueInt64())
	}
	if !m.StartIndex.IsNull() && !m.StartIndex.IsUnknown() {
		opts.StartIndex = int(m.StartIndex.ValueInt64())
	}
	return opts
}

func readSearch(ctx context.Context, providerData *crowd.ProviderData, funcs searchFuncs, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data SearchDataSourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() || !requireConfigured(providerData, &resp.Diagnostics) {
		return
	}

	opts := data.listOptions(providerData)
	restriction := data.Restriction.ValueString()
	start := time.Now()

	tflog.Debug(ctx, "Searching Crowd "+funcs.entity+"s", map[string]any{
		"restriction": restriction,
		"max_results": opts.MaxResults,
		"start_index": opts.StartIndex,
	})

	var (
		names []string
		err   error
	)
	if restriction == "" {
		names, err = funcs.list(ctx, providerData.Client, opts)
	} else {
		names, err = funcs.search(ctx, providerData.Client, restriction, opts)
	}
	if err != nil {
		resp.Diagnostics.AddError(
			fmt.Sprintf("Error Searching %ss", titleCase(funcs.entity)),
			fmt.Sprintf("Could not search Crowd %ss: %s", funcs.entity, err.Error()),
		)
		return
	}

	list, diags := helpers.StringsToList(ctx, names)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	data.Names = list
	data.Count = types.Int64Value(int64(len(names)))
	data.ID = types.StringValue(fmt.Sprintf("%ss-search-%d-%d", funcs.entity, opts.StartIndex, len(names)))

	tflog.Debug(ctx, "Crowd search completed", map[string]any{
		"entity":      funcs.entity,
		"count":       len(names),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
