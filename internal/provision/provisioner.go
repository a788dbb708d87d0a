package provision

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/hashicorp/go-hclog"

	"github.com/isometry/terraform-provider-crowd/internal/crowd"
)

// Outcome classifies what happened to one user during a run.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeFailed    Outcome = "failed"
)

// Result is the outcome for a single user.
type Result struct {
	User        string
	Outcome     Outcome
	GroupsAdded []string
	Notified    bool
	Err         error // Joined errors of every failed step
}

// Report collects per-user results in input order.
type Report struct {
	Results []Result
}

// Count returns how many results have the given outcome.
func (r *Report) Count(outcome Outcome) int {
	n := 0
	for _, result := range r.Results {
		if result.Outcome == outcome {
			n++
		}
	}
	return n
}

// Err joins the errors of all failed results, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, result := range r.Results {
		if result.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", result.User, result.Err))
		}
	}
	return errors.Join(errs...)
}

// Provisioner creates users and grants group memberships from a user list.
type Provisioner struct {
	dir      crowd.Directory
	notifier Notifier
	logger   hclog.Logger
	opts     *crowd.ListOptions
}

// NewProvisioner creates a provisioner. A nil notifier disables notification.
func NewProvisioner(dir crowd.Directory, notifier Notifier, logger hclog.Logger) *Provisioner {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Provisioner{
		dir:      dir,
		notifier: notifier,
		logger:   logger,
		opts:     &crowd.ListOptions{MaxResults: 1000},
	}
}

// Run provisions every user in order. A failure for one user is recorded in
// its result and does not stop the run; only context cancellation does.
func (p *Provisioner) Run(ctx context.Context, users []User) *Report {
	report := &Report{Results: make([]Result, 0, len(users))}

	for _, user := range users {
		if err := ctx.Err(); err != nil {
			report.Results = append(report.Results, Result{User: user.Name, Outcome: OutcomeFailed, Err: err})
			continue
		}
		report.Results = append(report.Results, p.provision(ctx, user))
	}

	p.logger.Info("provisioning complete",
		"created", report.Count(OutcomeCreated),
		"updated", report.Count(OutcomeUpdated),
		"unchanged", report.Count(OutcomeUnchanged),
		"failed", report.Count(OutcomeFailed),
	)

	return report
}

func (p *Provisioner) provision(ctx context.Context, user User) Result {
	logger := p.logger.With("user", user.Name)
	result := Result{User: user.Name}

	existing, err := p.dir.GetUser(ctx, user.Name)
	if err != nil {
		logger.Error("failed to look up user", "error", err)
		result.Outcome, result.Err = OutcomeFailed, err
		return result
	}

	if existing != nil {
		logger.Info("user already exists, checking group memberships")
		return p.reconcileGroups(ctx, logger, user, result)
	}

	logger.Info("creating user")
	created, err := p.dir.CreateUser(ctx, user.CreateRequest())
	if err != nil {
		logger.Error("failed to create user", "error", err)
		result.Outcome, result.Err = OutcomeFailed, err
		return result
	}
	if created.Password != "" && !created.PasswordChangeRequired {
		logger.Warn("generated password is not flagged for change at next login")
	}

	result.Outcome = OutcomeCreated
	var errs []error
	for _, group := range user.Groups {
		if err := p.addToGroup(ctx, logger, user.Name, group); err != nil {
			errs = append(errs, err)
			continue
		}
		result.GroupsAdded = append(result.GroupsAdded, group)
	}

	if p.notifier != nil {
		password := created.Password
		if password == "" {
			password = user.Password
		}
		logger.Info("notifying user via email", "email", user.Email)
		if err := p.notifier.Notify(ctx, user, password); err != nil {
			logger.Error("failed to send notification", "error", err)
			errs = append(errs, fmt.Errorf("notify: %w", err))
		} else {
			result.Notified = true
		}
	}

	if err := errors.Join(errs...); err != nil {
		result.Outcome, result.Err = OutcomeFailed, err
	}
	return result
}

// reconcileGroups adds an existing user to the listed groups they are not yet
// a direct member of. Memberships are never removed.
func (p *Provisioner) reconcileGroups(ctx context.Context, logger hclog.Logger, user User, result Result) Result {
	current, err := p.dir.GetUserGroups(ctx, user.Name, p.opts)
	if err != nil {
		logger.Error("failed to read group memberships", "error", err)
		result.Outcome, result.Err = OutcomeFailed, err
		return result
	}

	var errs []error
	for _, group := range user.Groups {
		if slices.Contains(current, group) {
			continue
		}
		if err := p.addToGroup(ctx, logger, user.Name, group); err != nil {
			errs = append(errs, err)
			continue
		}
		result.GroupsAdded = append(result.GroupsAdded, group)
	}

	switch {
	case len(errs) > 0:
		result.Outcome, result.Err = OutcomeFailed, errors.Join(errs...)
	case len(result.GroupsAdded) > 0:
		result.Outcome = OutcomeUpdated
	default:
		result.Outcome = OutcomeUnchanged
	}
	return result
}

func (p *Provisioner) addToGroup(ctx context.Context, logger hclog.Logger, username, group string) error {
	if err := p.dir.AddUserToGroup(ctx, username, group); err != nil {
		logger.Error("failed to add user to group", "group", group, "error", err)
		return fmt.Errorf("add to group %s: %w", group, err)
	}
	logger.Info("user added to group", "group", group)
	return nil
}

// SetActivity activates or deactivates each named user, continuing past failures.
func (p *Provisioner) SetActivity(ctx context.Context, usernames []string, active bool) *Report {
	report := &Report{Results: make([]Result, 0, len(usernames))}

	for _, username := range usernames {
		result := Result{User: username, Outcome: OutcomeUpdated}
		if err := p.dir.SetUserActivity(ctx, username, active); err != nil {
			p.logger.Error("failed to set user activity", "user", username, "active", active, "error", err)
			result.Outcome, result.Err = OutcomeFailed, err
		} else {
			p.logger.Info("user activity set", "user", username, "active", active)
		}
		report.Results = append(report.Results, result)
	}

	return report
}
