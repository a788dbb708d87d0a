package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/isometry/terraform-provider-crowd/internal/crowd"
	"github.com/isometry/terraform-provider-crowd/internal/provider/helpers"
	"github.com/isometry/terraform-provider-crowd/internal/provider/validators"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &UserDataSource{}
var _ datasource.DataSourceWithConfigure = &UserDataSource{}

func NewUserDataSource() datasource.DataSource {
	return &UserDataSource{}
}

// UserDataSource defines the data source implementation.
type UserDataSource struct {
	providerData *crowd.ProviderData
}

// UserDataSourceModel describes the data source data model.
type UserDataSourceModel struct {
	Name types.String `tfsdk:"name"`

	// Identity and profile (computed)
	ID          types.String `tfsdk:"id"`
	Key         types.String `tfsdk:"key"`
	FirstName   types.String `tfsdk:"first_name"`
	LastName    types.String `tfsdk:"last_name"`
	DisplayName types.String `tfsdk:"display_name"`
	Email       types.String `tfsdk:"email"`
	Active      types.Bool   `tfsdk:"active"`
	Attributes  types.Map    `tfsdk:"attributes"`

	// Group memberships (computed)
	Groups       types.List `tfsdk:"groups"`
	NestedGroups types.List `tfsdk:"nested_groups"`

	// Derived from the requiresPasswordChange attribute
	RequiresPasswordChange types.Bool `tfsdk:"requires_password_change"`
}

func (d *UserDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_user"
}

func (d *UserDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Retrieves a Crowd user by name, including custom attributes and direct and nested group memberships.",

		Attributes: map[string]schema.Attribute{
			"name": schema.StringAttribute{
				MarkdownDescription: "The user name to look up.",
				Required:            true,
				Validators: []validator.String{
					validators.IsValidUserName(),
				},
			},
			"id": schema.StringAttribute{
				MarkdownDescription: "The user name, used as the data source identifier.",
				Computed:            true,
			},
			"key": schema.StringAttribute{
				MarkdownDescription: "The directory-qualified user key assigned by Crowd.",
				Computed:            true,
			},
			"first_name": schema.StringAttribute{
				MarkdownDescription: "First name.",
				Computed:            true,
			},
			"last_name": schema.StringAttribute{
				MarkdownDescription: "Last name.",
				Computed:            true,
			},
			"display_name": schema.StringAttribute{
				MarkdownDescription: "Display name.",
				Computed:            true,
			},
			"email": schema.StringAttribute{
				MarkdownDescription: "Email address.",
				Computed:            true,
			},
			"active": schema.BoolAttribute{
				MarkdownDescription: "Whether the account is active.",
				Computed:            true,
			},
			"attributes": schema.MapAttribute{
				MarkdownDescription: "Custom attributes of the user, by name.",
				ElementType:         helpers.AttributesType,
				Computed:            true,
			},
			"groups": schema.ListAttribute{
				MarkdownDescription: "Names of the groups the user is a direct member of, in server order.",
				ElementType:         types.StringType,
				Computed:            true,
			},
			"nested_groups": schema.ListAttribute{
				MarkdownDescription: "Names of the groups the user is a direct or transitive member of.",
				ElementType:         types.StringType,
				Computed:            true,
			},
			"requires_password_change": schema.BoolAttribute{
				MarkdownDescription: "Whether the user must change their password at next login.",
				Computed:            true,
			},
		},
	}
}

func (d *UserDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	d.providerData = providerDataFrom(req.ProviderData, "Data Source", &resp.Diagnostics)
}

func (d *UserDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data UserDataSourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() || !requireConfigured(d.providerData, &resp.Diagnostics) {
		return
	}

	name := data.Name.ValueString()
	client := d.providerData.Client
	opts := d.providerData.ListOptions()
	start := time.Now()

	tflog.Debug(ctx, "Reading Crowd user", map[string]any{
		"username": name,
	})

	user, err := client.GetUser(ctx, name)
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Reading User",
			fmt.Sprintf("Could not read Crowd user %q: %s", name, err.Error()),
		)
		return
	}

	if user == nil {
		resp.Diagnostics.AddError(
			"User Not Found",
			fmt.Sprintf("The Crowd user %q could not be found.", name),
		)
		return
	}

	groups, err := client.GetUserGroups(ctx, name, opts)
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Reading User Groups",
			fmt.Sprintf("Could not read groups of Crowd user %q: %s", name, err.Error()),
		)
		return
	}

	nestedGroups, err := client.GetNestedUserGroups(ctx, name, opts)
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Reading User Groups",
			fmt.Sprintf("Could not read nested groups of Crowd user %q: %s", name, err.Error()),
		)
		return
	}

	tflog.Debug(ctx, "Successfully retrieved Crowd user", map[string]any{
		"username":    user.Name,
		"group_count": len(groups),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	resp.Diagnostics.Append(mapUserToModel(ctx, user, groups, nestedGroups, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

// mapUserToModel maps the Crowd user and its memberships to the Terraform model.
func mapUserToModel(ctx context.Context, user *crowd.User, groups, nestedGroups []string, data *UserDataSourceModel) diag.Diagnostics {
	var diags diag.Diagnostics
	var d diag.Diagnostics

	data.ID = types.StringValue(user.Name)
	data.Name = types.StringValue(user.Name)
	data.Key = types.StringValue(user.Key)
	data.FirstName = types.StringValue(user.FirstName)
	data.LastName = types.StringValue(user.LastName)
	data.DisplayName = types.StringValue(user.DisplayName)
	data.Email = types.StringValue(user.Email)
	data.Active = types.BoolValue(user.Active)

	data.Attributes, d = helpers.AttributesToMap(ctx, user.Attributes.AttributeMap())
	diags.Append(d...)

	data.Groups, d = helpers.StringsToList(ctx, groups)
	diags.Append(d...)
	data.NestedGroups, d = helpers.StringsToList(ctx, nestedGroups)
	diags.Append(d...)

	requiresChange := false
	for _, v := range user.AttributeValues(crowd.RequiresPasswordChangeAttribute) {
		if v == "true" {
			requiresChange = true
			break
		}
	}
	data.RequiresPasswordChange = types.BoolValue(requiresChange)

	return diags
}
