package provider

import (
	"context"

	"github.com/hashicorp/terraform-plugin-framework/datasource"

	"github.com/isometry/terraform-provider-crowd/internal/crowd"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &UsersDataSource{}
var _ datasource.DataSourceWithConfigure = &UsersDataSource{}

func NewUsersDataSource() datasource.DataSource {
	return &UsersDataSource{}
}

// UsersDataSource lists or searches user names.
type UsersDataSource struct {
	providerData *crowd.ProviderData
}

var userSearch = searchFuncs{
	entity: "user",
	list: func(ctx context.Context, c *crowd.Client, opts *crowd.ListOptions) ([]string, error) {
		return c.ListUsers(ctx, opts)
	},
	search: func(ctx context.Context, c *crowd.Client, restriction string, opts *crowd.ListOptions) ([]string, error) {
		return c.SearchUsers(ctx, restriction, opts)
	},
}

func (d *UsersDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_users"
}

func (d *UsersDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = searchSchema(userSearch.entity)
}

func (d *UsersDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	d.providerData = providerDataFrom(req.ProviderData, "Data Source", &resp.Diagnostics)
}

func (d *UsersDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	readSearch(ctx, d.providerData, userSearch, req, resp)
}
