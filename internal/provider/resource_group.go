package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/isometry/terraform-provider-crowd/internal/crowd"
	"github.com/isometry/terraform-provider-crowd/internal/provider/validators"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ resource.Resource = &GroupResource{}
var _ resource.ResourceWithConfigure = &GroupResource{}
var _ resource.ResourceWithImportState = &GroupResource{}

// NewGroupResource creates a new instance of the group resource.
func NewGroupResource() resource.Resource {
	return &GroupResource{}
}

// GroupResource defines the resource implementation.
type GroupResource struct {
	providerData *crowd.ProviderData
}

// GroupResourceModel describes the resource data model.
type GroupResourceModel struct {
	ID          types.String `tfsdk:"id"`          // group name (computed)
	Name        types.String `tfsdk:"name"`        // Required, forces replacement
	Description types.String `tfsdk:"description"` // Optional, updated in place
	// Computed attributes
	Type   types.String `tfsdk:"type"`
	Active types.Bool   `tfsdk:"active"`
}

func (r *GroupResource) Metadata(ctx context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_group"
}

func (r *GroupResource) Schema(ctx context.Context, req resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Manages a Crowd group. Groups are created active with type `GROUP`. " +
			"The description is updated in place; renaming replaces the group.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "The group name.",
				Computed:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"name": schema.StringAttribute{
				MarkdownDescription: "The name of the group. Must be unique within the directory.",
				Required:            true,
				Validators: []validator.String{
					validators.IsValidGroupName(),
					stringvalidator.LengthAtMost(255),
				},
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"description": schema.StringAttribute{
				MarkdownDescription: "A description for the group.",
				Optional:            true,
				Validators: []validator.String{
					stringvalidator.LengthAtMost(255),
				},
			},
			"type": schema.StringAttribute{
				MarkdownDescription: "The Crowd group type.",
				Computed:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"active": schema.BoolAttribute{
				MarkdownDescription: "Whether the group is active.",
				Computed:            true,
			},
		},
	}
}

func (r *GroupResource) Configure(ctx context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
	r.providerData = providerDataFrom(req.ProviderData, "Resource", &resp.Diagnostics)
}

func (r *GroupResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var data GroupResourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Plan.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() || !requireConfigured(r.providerData, &resp.Diagnostics) {
		return
	}

	// Set up entry/exit logging
	start := time.Now()
	tflog.Debug(ctx, "Starting resource operation", map[string]any{
		"operation": "create",
		"resource":  "crowd_group",
		"name":      data.Name.ValueString(),
	})
	defer func() {
		logResourceOutcome(ctx, "create", "crowd_group", start, resp.Diagnostics.HasError())
	}()

	createReq := &crowd.CreateGroupRequest{
		Name:        data.Name.ValueString(),
		Description: data.Description.ValueString(),
	}

	if err := r.providerData.Client.CreateGroup(ctx, createReq); err != nil {
		resp.Diagnostics.AddError(
			"Error Creating Group",
			"Could not create group, unexpected error: "+err.Error(),
		)
		return
	}

	group, err := r.providerData.Client.GetGroup(ctx, createReq.Name)
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Reading Created Group",
			fmt.Sprintf("Group %q was created but could not be read back: %s", createReq.Name, err.Error()),
		)
		return
	}
	if group == nil {
		resp.Diagnostics.AddError(
			"Error Reading Created Group",
			fmt.Sprintf("Group %q was created but is not visible to the application.", createReq.Name),
		)
		return
	}

	updateModelFromGroup(&data, group)

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *GroupResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var data GroupResourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() || !requireConfigured(r.providerData, &resp.Diagnostics) {
		return
	}

	tflog.Debug(ctx, "Reading Crowd group", map[string]any{
		"name": data.ID.ValueString(),
	})

	group, err := r.providerData.Client.GetGroup(ctx, data.ID.ValueString())
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Reading Group",
			fmt.Sprintf("Could not read group %s: %s", data.ID.ValueString(), err.Error()),
		)
		return
	}

	if group == nil {
		tflog.Info(ctx, "Crowd group no longer exists, removing from state", map[string]any{
			"name": data.ID.ValueString(),
		})
		resp.State.RemoveResource(ctx)
		return
	}

	updateModelFromGroup(&data, group)

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *GroupResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var data GroupResourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Plan.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() || !requireConfigured(r.providerData, &resp.Diagnostics) {
		return
	}

	var currentData GroupResourceModel
	resp.Diagnostics.Append(req.State.Get(ctx, &currentData)...)
	if resp.Diagnostics.HasError() {
		return
	}

	start := time.Now()
	tflog.Debug(ctx, "Starting resource operation", map[string]any{
		"operation": "update",
		"resource":  "crowd_group",
		"name":      currentData.ID.ValueString(),
	})
	defer func() {
		logResourceOutcome(ctx, "update", "crowd_group", start, resp.Diagnostics.HasError())
	}()

	updateReq := &crowd.UpdateGroupRequest{}
	hasChanges := false

	if !data.Description.Equal(currentData.Description) {
		description := data.Description.ValueString()
		updateReq.Description = &description
		hasChanges = true
	}

	groupname := currentData.ID.ValueString()
	if hasChanges {
		if err := r.providerData.Client.UpdateGroup(ctx, groupname, updateReq); err != nil {
			resp.Diagnostics.AddError(
				"Error Updating Group",
				fmt.Sprintf("Could not update group %s: %s", groupname, err.Error()),
			)
			return
		}
	}

	group, err := r.providerData.Client.GetGroup(ctx, groupname)
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Reading Updated Group",
			fmt.Sprintf("Group %q was updated but could not be read back: %s", groupname, err.Error()),
		)
		return
	}
	if group == nil {
		resp.Diagnostics.AddError(
			"Error Reading Updated Group",
			fmt.Sprintf("Group %q no longer exists.", groupname),
		)
		return
	}

	updateModelFromGroup(&data, group)

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *GroupResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var data GroupResourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() || !requireConfigured(r.providerData, &resp.Diagnostics) {
		return
	}

	tflog.Debug(ctx, "Deleting Crowd group", map[string]any{
		"name": data.ID.ValueString(),
	})

	err := r.providerData.Client.DeleteGroup(ctx, data.ID.ValueString())
	if err != nil && crowd.StatusCode(err) != http.StatusNotFound {
		resp.Diagnostics.AddError(
			"Error Deleting Group",
			"Could not delete group, unexpected error: "+err.Error(),
		)
		return
	}

	tflog.Debug(ctx, "Deleted Crowd group", map[string]any{
		"name": data.ID.ValueString(),
	})
}

func (r *GroupResource) ImportState(ctx context.Context, req resource.ImportStateRequest, resp *resource.ImportStateResponse) {
	importID := strings.TrimSpace(req.ID)

	tflog.Debug(ctx, "Importing Crowd group", map[string]any{
		"import_id": importID,
	})

	if importID == "" {
		resp.Diagnostics.AddError(
			"Invalid Import ID",
			"Import a crowd_group by its group name.",
		)
		return
	}

	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("id"), importID)...)
	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("name"), importID)...)
}

// updateModelFromGroup updates the Terraform model with data from a Crowd group.
func updateModelFromGroup(model *GroupResourceModel, group *crowd.Group) {
	model.ID = types.StringValue(group.Name)
	model.Name = types.StringValue(group.Name)
	model.Type = types.StringValue(group.Type)
	model.Active = types.BoolValue(group.Active)

	if group.Description != "" {
		model.Description = types.StringValue(group.Description)
	} else {
		model.Description = types.StringNull()
	}
}

// logResourceOutcome logs the end of a resource operation with its duration.
func logResourceOutcome(ctx context.Context, operation, resourceType string, start time.Time, failed bool) {
	fields := map[string]any{
		"operation":   operation,
		"resource":    resourceType,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if failed {
		tflog.Error(ctx, "Resource operation failed", fields)
		return
	}
	tflog.Info(ctx, "Resource operation completed", fields)
}
