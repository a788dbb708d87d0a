package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/urfave/cli/v2"

	"github.com/isometry/terraform-provider-crowd/internal/crowd"
	"github.com/isometry/terraform-provider-crowd/internal/provision"
)

// flagKeys maps command-line flag names to option keys.
var flagKeys = map[string]string{
	"api-url":             "api_url",
	"crowd-url":           "crowd_url",
	"app-name":            "app_name",
	"app-password":        "app_password",
	"timeout":             "timeout",
	"log-level":           "log_level",
	"users-json":          "users_json",
	"notify-email":        "notify_email",
	"mail-sender":         "mail_sender",
	"mail-server":         "mail_server",
	"mail-port":           "mail_port",
	"mail-username":       "mail_username",
	"mail-password":       "mail_password",
	"mail-recipients-cc":  "mail_recipients_cc",
	"mail-recipients-bcc": "mail_recipients_bcc",
	"mail-subject":        "mail_subject",
	"mail-template":       "mail_template",
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "./crowd.yaml", Usage: "YAML configuration file"},
		&cli.StringFlag{Name: "api-url", Usage: "Crowd usermanagement REST API URL"},
		&cli.StringFlag{Name: "crowd-url", Usage: "Crowd front-end URL included in notifications"},
		&cli.StringFlag{Name: "app-name", Usage: "Crowd application name"},
		&cli.StringFlag{Name: "app-password", Usage: "Crowd application password"},
		&cli.BoolFlag{Name: "no-ssl-verify", Usage: "Skip TLS certificate verification"},
		&cli.DurationFlag{Name: "timeout", Usage: "HTTP request timeout"},
		&cli.StringFlag{Name: "log-level", Usage: "TRACE, DEBUG, INFO, WARN or ERROR"},
	}
}

func provisionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "users-json", Aliases: []string{"u"}, Usage: "JSON file listing the users to provision"},
		&cli.BoolFlag{Name: "notify-email", Usage: "Email new users their credentials"},
		&cli.StringFlag{Name: "mail-sender", Usage: "Notification sender address"},
		&cli.StringFlag{Name: "mail-server", Usage: "SMTP server host"},
		&cli.IntFlag{Name: "mail-port", Usage: "SMTP server port"},
		&cli.StringFlag{Name: "mail-username", Usage: "SMTP username"},
		&cli.StringFlag{Name: "mail-password", Usage: "SMTP password"},
		&cli.StringSliceFlag{Name: "mail-recipients-cc", Usage: "Additional CC recipients"},
		&cli.StringSliceFlag{Name: "mail-recipients-bcc", Usage: "Additional BCC recipients"},
		&cli.StringFlag{Name: "mail-subject", Usage: "Notification subject"},
		&cli.StringFlag{Name: "mail-template", Usage: "Notification body template file"},
	}
}

func commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "provision",
			Usage:  "Create users that do not exist and add every user to their listed groups.",
			Flags:  provisionFlags(),
			Action: runProvision,
		},
		{
			Name:      "activate",
			Usage:     "Activate the named users.",
			ArgsUsage: "USERNAME...",
			Action: func(c *cli.Context) error {
				return runSetActivity(c, true)
			},
		},
		{
			Name:      "deactivate",
			Usage:     "Deactivate the named users.",
			ArgsUsage: "USERNAME...",
			Action: func(c *cli.Context) error {
				return runSetActivity(c, false)
			},
		},
	}
}

// overrides collects the flags set explicitly on any level of the command line.
func overrides(c *cli.Context) map[string]any {
	values := make(map[string]any)
	if c.IsSet("no-ssl-verify") {
		values["ssl_verify"] = !c.Bool("no-ssl-verify")
	}
	for name, key := range flagKeys {
		if !c.IsSet(name) {
			continue
		}
		switch name {
		case "timeout":
			values[key] = c.Duration(name)
		case "notify-email":
			values[key] = c.Bool(name)
		case "mail-port":
			values[key] = c.Int(name)
		case "mail-recipients-cc", "mail-recipients-bcc":
			values[key] = c.StringSlice(name)
		default:
			values[key] = c.String(name)
		}
	}
	return values
}

// setup loads options and returns a logger and directory client for them.
func setup(c *cli.Context) (*provision.Options, hclog.Logger, *crowd.Client, error) {
	opts, err := provision.LoadOptions(c.String("config"), overrides(c))
	if err != nil {
		return nil, nil, nil, err
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "crowd-provision",
		Level:  hclog.LevelFromString(opts.LogLevel),
		Output: os.Stderr,
	})

	client, err := crowd.NewClient(opts.ClientConfig(crowd.NewHCLogger(logger.Named("client"))))
	if err != nil {
		return nil, nil, nil, err
	}

	return opts, logger, client, nil
}

func runProvision(c *cli.Context) error {
	opts, logger, client, err := setup(c)
	if err != nil {
		return err
	}
	if opts.UsersJSON == "" {
		return errors.New("no users file provided, set --users-json or users_json")
	}

	users, err := provision.LoadUsers(opts.UsersJSON)
	if err != nil {
		return err
	}
	logger.Info("loaded users", "file", opts.UsersJSON, "count", len(users))

	var notifier provision.Notifier
	if opts.Mail.Enabled {
		renderer, err := provision.NewRenderer(opts.Mail.Template)
		if err != nil {
			return err
		}
		notifier = provision.NewMailNotifier(opts, renderer, nil)
	}

	report := provision.NewProvisioner(client, notifier, logger).Run(c.Context, users)
	if err := report.Err(); err != nil {
		return fmt.Errorf("%d of %d users failed:\n%w", report.Count(provision.OutcomeFailed), len(report.Results), err)
	}
	return nil
}

func runSetActivity(c *cli.Context, active bool) error {
	if c.NArg() == 0 {
		return errors.New("at least one username is required")
	}

	_, logger, client, err := setup(c)
	if err != nil {
		return err
	}

	report := provision.NewProvisioner(client, nil, logger).SetActivity(c.Context, c.Args().Slice(), active)
	return report.Err()
}
