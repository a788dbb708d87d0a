package provision

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/isometry/terraform-provider-crowd/internal/crowd"
)

// EnvPrefix is prepended to upper-cased option keys when reading the environment,
// e.g. CROWD_APP_NAME.
const EnvPrefix = "CROWD"

// Options configures a provisioning run.
type Options struct {
	APIURL      string        `mapstructure:"api_url" default:"http://127.0.0.1/crowd/rest/usermanagement/latest" validate:"required,url"`
	CrowdURL    string        `mapstructure:"crowd_url" default:"http://127.0.0.1/crowd" validate:"omitempty,url"` // Front-end URL, available to templates
	AppName     string        `mapstructure:"app_name" validate:"required"`
	AppPassword string        `mapstructure:"app_password" validate:"required"`
	SSLVerify   bool          `mapstructure:"ssl_verify" default:"true"`
	Timeout     time.Duration `mapstructure:"timeout" default:"10s" validate:"gte=0"`
	UsersJSON   string        `mapstructure:"users_json"`
	LogLevel    string        `mapstructure:"log_level" default:"INFO" validate:"oneof=TRACE DEBUG INFO WARN WARNING ERROR"`

	Mail MailOptions `mapstructure:",squash"`
}

// MailOptions configures new-user notification email.
type MailOptions struct {
	Enabled       bool     `mapstructure:"notify_email"`
	Sender        string   `mapstructure:"mail_sender" default:"crowd@localhost" validate:"required"`
	Server        string   `mapstructure:"mail_server" default:"localhost" validate:"required,hostname|ip"`
	Port          int      `mapstructure:"mail_port" default:"25" validate:"gte=1,lte=65535"`
	Username      string   `mapstructure:"mail_username"`
	Password      string   `mapstructure:"mail_password"`
	RecipientsCC  []string `mapstructure:"mail_recipients_cc" validate:"dive,email"`
	RecipientsBCC []string `mapstructure:"mail_recipients_bcc" validate:"dive,email"`
	Subject       string   `mapstructure:"mail_subject" default:"Crowd account setup"`
	Template      string   `mapstructure:"mail_template" default:"./templates/new_user.tmpl" validate:"required"`
}

// LoadOptions resolves options from, in increasing precedence: struct defaults,
// the overrides map (typically command-line flags), the YAML config file and
// CROWD_* environment variables. A missing config file is not an error.
func LoadOptions(configFile string, overrides map[string]any) (*Options, error) {
	var base Options
	if err := defaults.Set(&base); err != nil {
		return nil, fmt.Errorf("failed to set default options: %w", err)
	}

	vip := viper.New()
	for key, value := range base.settings() {
		vip.SetDefault(key, value)
	}
	for key, value := range overrides {
		vip.SetDefault(key, value)
	}

	vip.SetEnvPrefix(EnvPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vip.AutomaticEnv()

	if configFile != "" {
		vip.SetConfigFile(configFile)
		vip.SetConfigType("yaml")
		if err := vip.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				var notFound viper.ConfigFileNotFoundError
				if !errors.As(err, &notFound) {
					return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
				}
			}
		}
	}

	var opts Options
	if err := vip.Unmarshal(&opts); err != nil {
		return nil, fmt.Errorf("failed to decode options: %w", err)
	}
	opts.Mail.RecipientsCC = splitList(opts.Mail.RecipientsCC)
	opts.Mail.RecipientsBCC = splitList(opts.Mail.RecipientsBCC)
	opts.LogLevel = strings.ToUpper(opts.LogLevel)
	if opts.LogLevel == "WARNING" {
		opts.LogLevel = "WARN"
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &opts, nil
}

// Validate checks the options against their validation tags.
func (o *Options) Validate() error {
	if err := validator.New().Struct(o); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			fields := make([]string, 0, len(validationErrs))
			for _, fe := range validationErrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid options: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

// ClientConfig returns the Crowd client configuration for these options.
func (o *Options) ClientConfig(logger crowd.Logger) *crowd.Config {
	return &crowd.Config{
		BaseURL:     o.APIURL,
		AppName:     o.AppName,
		AppPassword: o.AppPassword,
		VerifyTLS:   o.SSLVerify,
		Timeout:     o.Timeout,
		UserAgent:   "crowd-provision",
		Logger:      logger,
	}
}

// settings lists every option key so that environment variables are
// consulted for keys absent from the config file.
func (o *Options) settings() map[string]any {
	return map[string]any{
		"api_url":             o.APIURL,
		"crowd_url":           o.CrowdURL,
		"app_name":            o.AppName,
		"app_password":        o.AppPassword,
		"ssl_verify":          o.SSLVerify,
		"timeout":             o.Timeout,
		"users_json":          o.UsersJSON,
		"log_level":           o.LogLevel,
		"notify_email":        o.Mail.Enabled,
		"mail_sender":         o.Mail.Sender,
		"mail_server":         o.Mail.Server,
		"mail_port":           o.Mail.Port,
		"mail_username":       o.Mail.Username,
		"mail_password":       o.Mail.Password,
		"mail_recipients_cc":  o.Mail.RecipientsCC,
		"mail_recipients_bcc": o.Mail.RecipientsBCC,
		"mail_subject":        o.Mail.Subject,
		"mail_template":       o.Mail.Template,
	}
}

// splitList flattens comma-separated entries and drops blanks.
func splitList(values []string) []string {
	var result []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
	}
	return result
}
