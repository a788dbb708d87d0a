package provider

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/hashicorp/terraform-plugin-framework/providerserver"
	"github.com/hashicorp/terraform-plugin-go/tfprotov6"
	"github.com/hashicorp/terraform-plugin-testing/terraform"

	"github.com/isometry/terraform-provider-crowd/internal/crowd"
)

// Environment variables read by acceptance tests in addition to the provider's own.
const (
	EnvTestUser = "CROWD_TEST_USER" // Existing user added to test groups

	// Prefix for test object names to avoid conflicts.
	TestGroupPrefix = "tf-test-group-"
)

// testAccProtoV6ProviderFactories is used to instantiate a provider during acceptance testing.
// The factory function is called for each Terraform CLI command to create a provider
// server that the CLI can connect to and interact with.
var testAccProtoV6ProviderFactories = map[string]func() (tfprotov6.ProviderServer, error){
	"crowd": providerserver.NewProtocol6WithError(New("test")()),
}

// testAccPreCheck skips the test unless TF_ACC is set and a Crowd server is configured.
func testAccPreCheck(t *testing.T) {
	t.Helper()

	if os.Getenv("TF_ACC") == "" {
		t.Skip("Skipping acceptance test - set TF_ACC=1 to run")
	}

	for _, env := range []string{EnvURL, EnvApplicationName, EnvApplicationPassword} {
		if os.Getenv(env) == "" {
			t.Skipf("Skipping test: %s must be set", env)
		}
	}
}

// testAccPreCheckUser additionally requires an existing test user.
func testAccPreCheckUser(t *testing.T) string {
	t.Helper()

	testAccPreCheck(t)

	user := os.Getenv(EnvTestUser)
	if user == "" {
		t.Skipf("Skipping test: %s must be set to an existing Crowd user", EnvTestUser)
	}
	return user
}

// generateTestName generates a unique object name with the given prefix.
func generateTestName(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString()[:13], "-", "")
}

// testAccClient builds a client from the provider environment variables.
func testAccClient() (*crowd.Client, error) {
	return crowd.NewClient(&crowd.Config{
		BaseURL:     os.Getenv(EnvURL),
		AppName:     os.Getenv(EnvApplicationName),
		AppPassword: os.Getenv(EnvApplicationPassword),
	})
}

// testAccCheckGroupDestroy verifies that every crowd_group in state is gone.
func testAccCheckGroupDestroy(s *terraform.State) error {
	client, err := testAccClient()
	if err != nil {
		return fmt.Errorf("failed to create Crowd client: %w", err)
	}

	for _, rs := range s.RootModule().Resources {
		if rs.Type != "crowd_group" {
			continue
		}

		group, err := client.GetGroup(context.Background(), rs.Primary.ID)
		if err != nil {
			return fmt.Errorf("unexpected error checking group %s: %w", rs.Primary.ID, err)
		}
		if group != nil {
			return fmt.Errorf("group %s still exists", rs.Primary.ID)
		}
	}

	return nil
}
