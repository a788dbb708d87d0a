package crowd

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// ProviderData wraps the Crowd client and provider-wide settings for use by
// Terraform resources and data sources.
type ProviderData struct {
	Client *Client

	// PageSize is the max-results value used when a resource reads a list.
	PageSize int
}

// NewProviderData creates a new provider data wrapper.
func NewProviderData(client *Client, pageSize int) *ProviderData {
	return &ProviderData{
		Client:   client,
		PageSize: pageSize,
	}
}

// ListOptions returns the first page window sized by PageSize.
func (pd *ProviderData) ListOptions() *ListOptions {
	return &ListOptions{MaxResults: pd.PageSize}
}

// ValidateConnection ensures the client is available and the credentials are accepted.
func (pd *ProviderData) ValidateConnection(ctx context.Context) error {
	if pd.Client == nil {
		return fmt.Errorf("crowd client is not initialized")
	}

	if err := pd.Client.Ping(ctx); err != nil {
		return fmt.Errorf("crowd connection check failed: %w", err)
	}

	tflog.Debug(ctx, "Provider data validation successful", map[string]any{
		"base_url":  pd.Client.BaseURL(),
		"page_size": pd.PageSize,
	})

	return nil
}
