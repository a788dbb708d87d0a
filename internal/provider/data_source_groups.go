package provider

import (
	"context"

	"github.com/hashicorp/terraform-plugin-framework/datasource"

	"github.com/isometry/terraform-provider-crowd/internal/crowd"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &GroupsDataSource{}
var _ datasource.DataSourceWithConfigure = &GroupsDataSource{}

func NewGroupsDataSource() datasource.DataSource {
	return &GroupsDataSource{}
}

// GroupsDataSource lists or searches group names.
type GroupsDataSource struct {
	providerData *crowd.ProviderData
}

var groupSearch = searchFuncs{
	entity: "group",
	list: func(ctx context.Context, c *crowd.Client, opts *crowd.ListOptions) ([]string, error) {
		return c.ListGroups(ctx, opts)
	},
	search: func(ctx context.Context, c *crowd.Client, restriction string, opts *crowd.ListOptions) ([]string, error) {
		return c.SearchGroups(ctx, restriction, opts)
	},
}

func (d *GroupsDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_groups"
}

func (d *GroupsDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = searchSchema(groupSearch.entity)
}

func (d *GroupsDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	d.providerData = providerDataFrom(req.ProviderData, "Data Source", &resp.Diagnostics)
}

func (d *GroupsDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	readSearch(ctx, d.providerData, groupSearch, req, resp)
}
