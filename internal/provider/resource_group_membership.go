package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/isometry/terraform-provider-crowd/internal/crowd"
	"github.com/isometry/terraform-provider-crowd/internal/provider/helpers"
	"github.com/isometry/terraform-provider-crowd/internal/provider/validators"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ resource.Resource = &GroupMembershipResource{}
var _ resource.ResourceWithConfigure = &GroupMembershipResource{}
var _ resource.ResourceWithImportState = &GroupMembershipResource{}

func NewGroupMembershipResource() resource.Resource {
	return &GroupMembershipResource{}
}

// GroupMembershipResource defines the resource implementation.
type GroupMembershipResource struct {
	providerData *crowd.ProviderData
}

// GroupMembershipResourceModel describes the resource data model.
type GroupMembershipResourceModel struct {
	ID      types.String `tfsdk:"id"`      // Group name (same as group)
	Group   types.String `tfsdk:"group"`   // Group name (required)
	Members types.Set    `tfsdk:"members"` // Set of user names (required)
}

func (r *GroupMembershipResource) Metadata(ctx context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_group_membership"
}

func (r *GroupMembershipResource) Schema(ctx context.Context, req resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Manages the direct user membership of a Crowd group. This resource is authoritative: " +
			"users that are direct members of the group but not listed in `members` are removed.\n\n" +
			"Nested group membership is not managed and does not cause drift.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "The resource identifier, which is the group name. This is the same value as `group`.",
				Computed:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"group": schema.StringAttribute{
				MarkdownDescription: "The name of the group whose membership is being managed. The group must already exist.",
				Required:            true,
				Validators: []validator.String{
					validators.IsValidGroupName(),
				},
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"members": schema.SetAttribute{
				MarkdownDescription: "Set of user names that should be the direct members of the group. " +
					"**Note**: users not listed here will be removed from the group.",
				Required:    true,
				ElementType: types.StringType,
			},
		},
	}
}

func (r *GroupMembershipResource) Configure(ctx context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
	r.providerData = providerDataFrom(req.ProviderData, "Resource", &resp.Diagnostics)
}

func (r *GroupMembershipResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var data GroupMembershipResourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Plan.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() || !requireConfigured(r.providerData, &resp.Diagnostics) {
		return
	}

	start := time.Now()
	defer func() {
		logResourceOutcome(ctx, "create", "crowd_group_membership", start, resp.Diagnostics.HasError())
	}()

	group := data.Group.ValueString()

	existing, err := r.providerData.Client.GetGroup(ctx, group)
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Reading Group",
			fmt.Sprintf("Could not read group %q: %s", group, err.Error()),
		)
		return
	}
	if existing == nil {
		resp.Diagnostics.AddAttributeError(
			path.Root("group"),
			"Group Not Found",
			fmt.Sprintf("The Crowd group %q does not exist.", group),
		)
		return
	}

	if !r.applyMembers(ctx, &data, "Error Creating Group Membership", resp.Diagnostics.AddError) {
		return
	}

	data.ID = types.StringValue(group)
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *GroupMembershipResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var data GroupMembershipResourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() || !requireConfigured(r.providerData, &resp.Diagnostics) {
		return
	}

	group := data.ID.ValueString()
	client := r.providerData.Client

	tflog.Debug(ctx, "Reading Crowd group membership", map[string]any{
		"group": group,
	})

	// An absent group and an empty group both list no members, so the group
	// itself is checked first.
	existing, err := client.GetGroup(ctx, group)
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Reading Group",
			fmt.Sprintf("Could not read group %q: %s", group, err.Error()),
		)
		return
	}
	if existing == nil {
		tflog.Info(ctx, "Crowd group no longer exists, removing membership from state", map[string]any{
			"group": group,
		})
		resp.State.RemoveResource(ctx)
		return
	}

	members, err := client.GetGroupUsers(ctx, group, r.providerData.ListOptions())
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Reading Group Membership",
			fmt.Sprintf("Could not read members of group %q: %s", group, err.Error()),
		)
		return
	}

	set, diags := helpers.StringsToSet(ctx, members)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	data.Group = types.StringValue(group)
	data.Members = set

	tflog.Debug(ctx, "Read Crowd group membership", map[string]any{
		"group":        group,
		"member_count": len(members),
	})

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *GroupMembershipResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var data GroupMembershipResourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Plan.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() || !requireConfigured(r.providerData, &resp.Diagnostics) {
		return
	}

	start := time.Now()
	defer func() {
		logResourceOutcome(ctx, "update", "crowd_group_membership", start, resp.Diagnostics.HasError())
	}()

	if !r.applyMembers(ctx, &data, "Error Updating Group Membership", resp.Diagnostics.AddError) {
		return
	}

	data.ID = data.Group
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *GroupMembershipResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var data GroupMembershipResourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() || !requireConfigured(r.providerData, &resp.Diagnostics) {
		return
	}

	group := data.ID.ValueString()

	tflog.Debug(ctx, "Removing all direct members of Crowd group", map[string]any{
		"group": group,
	})

	delta, err := r.providerData.Client.SetGroupMembers(ctx, group, nil, r.providerData.ListOptions())
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Deleting Group Membership",
			fmt.Sprintf("Could not remove members from group %q: %s", group, err.Error()),
		)
		return
	}

	tflog.Debug(ctx, "Removed Crowd group members", map[string]any{
		"group":   group,
		"removed": len(delta.ToRemove),
	})
}

func (r *GroupMembershipResource) ImportState(ctx context.Context, req resource.ImportStateRequest, resp *resource.ImportStateResponse) {
	group := strings.TrimSpace(req.ID)

	if group == "" {
		resp.Diagnostics.AddError(
			"Invalid Import ID",
			"Import a crowd_group_membership by its group name.",
		)
		return
	}

	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("id"), group)...)
	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("group"), group)...)
}

// applyMembers reconciles the group's direct members with the planned set.
func (r *GroupMembershipResource) applyMembers(ctx context.Context, data *GroupMembershipResourceModel, summary string, addError func(string, string)) bool {
	group := data.Group.ValueString()

	members, diags := helpers.SetToStrings(ctx, data.Members)
	if diags.HasError() {
		addError(summary, fmt.Sprintf("Could not read planned members: %v", diags))
		return false
	}

	delta, err := r.providerData.Client.SetGroupMembers(ctx, group, members, r.providerData.ListOptions())
	if err != nil {
		addError(summary, fmt.Sprintf("Could not set members of group %q: %s", group, err.Error()))
		return false
	}

	tflog.Debug(ctx, "Reconciled Crowd group membership", map[string]any{
		"group":   group,
		"added":   len(delta.ToAdd),
		"removed": len(delta.ToRemove),
	})

	return true
}
