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
var _ datasource.DataSource = &GroupDataSource{}
var _ datasource.DataSourceWithConfigure = &GroupDataSource{}

func NewGroupDataSource() datasource.DataSource {
	return &GroupDataSource{}
}

// GroupDataSource defines the data source implementation.
type GroupDataSource struct {
	providerData *crowd.ProviderData
}

// GroupDataSourceModel describes the data source data model.
type GroupDataSourceModel struct {
	Name types.String `tfsdk:"name"`

	// Group attributes (all computed)
	ID          types.String `tfsdk:"id"`
	Type        types.String `tfsdk:"type"`
	Description types.String `tfsdk:"description"`
	Active      types.Bool   `tfsdk:"active"`
	Attributes  types.Map    `tfsdk:"attributes"`

	// Membership information
	Members       types.List  `tfsdk:"members"`
	NestedMembers types.List  `tfsdk:"nested_members"`
	ParentGroups  types.List  `tfsdk:"parent_groups"`
	ChildGroups   types.List  `tfsdk:"child_groups"`
	MemberCount   types.Int64 `tfsdk:"member_count"`
}

// groupRelations holds the membership lists read alongside a group.
type groupRelations struct {
	Members       []string
	NestedMembers []string
	ParentGroups  []string
	ChildGroups   []string
}

func (d *GroupDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_group"
}

func (d *GroupDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Retrieves a Crowd group with its attributes, its direct and nested user members, " +
			"and its parent and child groups. Membership lists hold a single page sized by the provider `page_size`.",

		Attributes: map[string]schema.Attribute{
			"name": schema.StringAttribute{
				MarkdownDescription: "The name of the group to retrieve.",
				Required:            true,
				Validators: []validator.String{
					validators.IsValidGroupName(),
				},
			},
			"id": schema.StringAttribute{
				MarkdownDescription: "The group name, used as the data source identifier.",
				Computed:            true,
			},
			"type": schema.StringAttribute{
				MarkdownDescription: "The Crowd group type, normally `GROUP`.",
				Computed:            true,
			},
			"description": schema.StringAttribute{
				MarkdownDescription: "The description of the group.",
				Computed:            true,
			},
			"active": schema.BoolAttribute{
				MarkdownDescription: "Whether the group is active.",
				Computed:            true,
			},
			"attributes": schema.MapAttribute{
				MarkdownDescription: "Custom attributes of the group, by name.",
				ElementType:         helpers.AttributesType,
				Computed:            true,
			},
			"members": schema.ListAttribute{
				MarkdownDescription: "Names of the direct user members, in server order.",
				ElementType:         types.StringType,
				Computed:            true,
			},
			"nested_members": schema.ListAttribute{
				MarkdownDescription: "Names of the direct and transitive user members, in server order.",
				ElementType:         types.StringType,
				Computed:            true,
			},
			"parent_groups": schema.ListAttribute{
				MarkdownDescription: "Names of the groups this group is a direct member of.",
				ElementType:         types.StringType,
				Computed:            true,
			},
			"child_groups": schema.ListAttribute{
				MarkdownDescription: "Names of the groups that are direct members of this group.",
				ElementType:         types.StringType,
				Computed:            true,
			},
			"member_count": schema.Int64Attribute{
				MarkdownDescription: "The number of direct user members returned.",
				Computed:            true,
			},
		},
	}
}

func (d *GroupDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	d.providerData = providerDataFrom(req.ProviderData, "Data Source", &resp.Diagnostics)
}

func (d *GroupDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data GroupDataSourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() || !requireConfigured(d.providerData, &resp.Diagnostics) {
		return
	}

	name := data.Name.ValueString()
	start := time.Now()

	group, err := d.providerData.Client.GetGroup(ctx, name)
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Reading Group",
			fmt.Sprintf("Could not read Crowd group %q: %s", name, err.Error()),
		)
		return
	}

	if group == nil {
		resp.Diagnostics.AddError(
			"Group Not Found",
			fmt.Sprintf("The Crowd group %q could not be found.", name),
		)
		return
	}

	relations, err := d.readRelations(ctx, name)
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Reading Group Membership",
			fmt.Sprintf("Could not read membership of Crowd group %q: %s", name, err.Error()),
		)
		return
	}

	tflog.Debug(ctx, "Successfully retrieved Crowd group", map[string]any{
		"group_name":   group.Name,
		"member_count": len(relations.Members),
		"duration_ms":  time.Since(start).Milliseconds(),
	})

	resp.Diagnostics.Append(mapGroupToModel(ctx, group, relations, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

// readRelations reads one page of each membership list of a group.
func (d *GroupDataSource) readRelations(ctx context.Context, name string) (*groupRelations, error) {
	client := d.providerData.Client
	opts := d.providerData.ListOptions()

	var (
		relations groupRelations
		err       error
	)

	if relations.Members, err = client.GetGroupUsers(ctx, name, opts); err != nil {
		return nil, err
	}
	if relations.NestedMembers, err = client.GetNestedGroupUsers(ctx, name, opts); err != nil {
		return nil, err
	}
	if relations.ParentGroups, err = client.GetParentGroups(ctx, name, opts); err != nil {
		return nil, err
	}
	if relations.ChildGroups, err = client.GetChildGroups(ctx, name, opts); err != nil {
		return nil, err
	}

	return &relations, nil
}

// mapGroupToModel maps the Crowd group and its relations to the Terraform model.
func mapGroupToModel(ctx context.Context, group *crowd.Group, relations *groupRelations, data *GroupDataSourceModel) diag.Diagnostics {
	var diags diag.Diagnostics
	var d diag.Diagnostics

	data.ID = types.StringValue(group.Name)
	data.Name = types.StringValue(group.Name)
	data.Type = types.StringValue(group.Type)
	data.Description = types.StringValue(group.Description)
	data.Active = types.BoolValue(group.Active)

	data.Attributes, d = helpers.AttributesToMap(ctx, group.Attributes.AttributeMap())
	diags.Append(d...)

	data.Members, d = helpers.StringsToList(ctx, relations.Members)
	diags.Append(d...)
	data.NestedMembers, d = helpers.StringsToList(ctx, relations.NestedMembers)
	diags.Append(d...)
	data.ParentGroups, d = helpers.StringsToList(ctx, relations.ParentGroups)
	diags.Append(d...)
	data.ChildGroups, d = helpers.StringsToList(ctx, relations.ChildGroups)
	diags.Append(d...)

	data.MemberCount = types.Int64Value(int64(len(relations.Members)))

	tflog.Trace(ctx, "Mapped group data to model", map[string]any{
		"group_name":   group.Name,
		"member_count": len(relations.Members),
	})

	return diags
}
