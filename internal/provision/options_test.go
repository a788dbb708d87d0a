package provision

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every CROWD_* variable the options read. Empty values are
// ignored by the loader.
func clearEnv(t *testing.T) {
	t.Helper()
	var opts Options
	for key := range opts.settings() {
		t.Setenv(EnvPrefix+"_"+strings.ToUpper(key), "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadOptions_Defaults(t *testing.T) {
	clearEnv(t)

	opts, err := LoadOptions("", map[string]any{
		"app_name":     "provisioner",
		"app_password": "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1/crowd/rest/usermanagement/latest", opts.APIURL)
	assert.Equal(t, "http://127.0.0.1/crowd", opts.CrowdURL)
	assert.True(t, opts.SSLVerify)
	assert.Equal(t, 10*time.Second, opts.Timeout)
	assert.Equal(t, "INFO", opts.LogLevel)
	assert.False(t, opts.Mail.Enabled)
	assert.Equal(t, "crowd@localhost", opts.Mail.Sender)
	assert.Equal(t, "localhost", opts.Mail.Server)
	assert.Equal(t, 25, opts.Mail.Port)
	assert.Equal(t, "Crowd account setup", opts.Mail.Subject)
	assert.Empty(t, opts.Mail.RecipientsCC)
}

func TestLoadOptions_Precedence(t *testing.T) {
	clearEnv(t)

	config := writeFile(t, "crowd.yaml", `
api_url: https://crowd.example.com/crowd/rest/usermanagement/latest
app_name: from-file
app_password: file-secret
ssl_verify: false
mail_recipients_cc: ops@example.com, audit@example.com
log_level: debug
`)
	t.Setenv("CROWD_APP_PASSWORD", "env-secret")
	t.Setenv("CROWD_TIMEOUT", "30s")

	opts, err := LoadOptions(config, map[string]any{
		"app_name":   "from-flag",
		"users_json": "users.json",
		"timeout":    5 * time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, "https://crowd.example.com/crowd/rest/usermanagement/latest", opts.APIURL)
	assert.Equal(t, "from-file", opts.AppName, "config file overrides flags")
	assert.Equal(t, "env-secret", opts.AppPassword, "environment overrides config file")
	assert.Equal(t, 30*time.Second, opts.Timeout, "environment overrides flags")
	assert.Equal(t, "users.json", opts.UsersJSON)
	assert.False(t, opts.SSLVerify)
	assert.Equal(t, "DEBUG", opts.LogLevel)
	assert.Equal(t, []string{"ops@example.com", "audit@example.com"}, opts.Mail.RecipientsCC)
}

func TestLoadOptions_MissingConfigFile(t *testing.T) {
	clearEnv(t)

	_, err := LoadOptions(filepath.Join(t.TempDir(), "absent.yaml"), map[string]any{
		"app_name":     "provisioner",
		"app_password": "secret",
	})
	assert.NoError(t, err)
}

func TestLoadOptions_Invalid(t *testing.T) {
	testCases := []struct {
		name      string
		overrides map[string]any
		wantField string
	}{
		{
			name:      "missing credentials",
			overrides: map[string]any{},
			wantField: "AppName",
		},
		{
			name: "bad url",
			overrides: map[string]any{
				"api_url":      "not a url",
				"app_name":     "provisioner",
				"app_password": "secret",
			},
			wantField: "APIURL",
		},
		{
			name: "bad log level",
			overrides: map[string]any{
				"app_name":     "provisioner",
				"app_password": "secret",
				"log_level":    "chatty",
			},
			wantField: "LogLevel",
		},
		{
			name: "bad cc address",
			overrides: map[string]any{
				"app_name":           "provisioner",
				"app_password":       "secret",
				"mail_recipients_cc": "not-an-address",
			},
			wantField: "RecipientsCC",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)

			_, err := LoadOptions("", tc.overrides)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantField)
		})
	}
}

func TestOptions_ClientConfig(t *testing.T) {
	opts := &Options{
		APIURL:      "https://crowd.example.com/rest",
		AppName:     "provisioner",
		AppPassword: "secret",
		SSLVerify:   true,
		Timeout:     time.Minute,
	}

	config := opts.ClientConfig(nil)

	assert.Equal(t, opts.APIURL, config.BaseURL)
	assert.Equal(t, opts.AppName, config.AppName)
	assert.Equal(t, opts.AppPassword, config.AppPassword)
	assert.True(t, config.VerifyTLS)
	assert.Equal(t, time.Minute, config.Timeout)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitList([]string{"a, b", " ", "c"}))
	assert.Nil(t, splitList(nil))
}
