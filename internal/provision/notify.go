package provision

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	gomail "gopkg.in/mail.v2"
)

// Notifier tells a newly created user about their account.
type Notifier interface {
	Notify(ctx context.Context, user User, password string) error
}

// TemplateData is the value the notification template is executed with.
type TemplateData struct {
	User     User
	Password string
	CrowdURL string
}

// Renderer renders the notification body from a text/template file with the
// sprig function library available.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the template file at path.
func NewRenderer(path string) (*Renderer, error) {
	tmpl, err := template.New(filepath.Base(path)).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse notification template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// NewRendererFromString parses an inline template.
func NewRendererFromString(name, text string) (*Renderer, error) {
	tmpl, err := template.New(name).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse notification template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the template.
func (r *Renderer) Render(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render notification: %w", err)
	}
	return buf.String(), nil
}

// MailSender delivers messages. *gomail.Dialer satisfies it.
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// MailNotifier sends the rendered notification by SMTP.
type MailNotifier struct {
	sender   MailSender
	renderer *Renderer
	opts     MailOptions
	crowdURL string
}

// NewMailNotifier creates a notifier for opts. A nil sender dials
// opts.Server with the configured credentials.
func NewMailNotifier(opts *Options, renderer *Renderer, sender MailSender) *MailNotifier {
	if sender == nil {
		dialer := gomail.NewDialer(opts.Mail.Server, opts.Mail.Port, opts.Mail.Username, opts.Mail.Password)
		dialer.TLSConfig = &tls.Config{
			ServerName:         opts.Mail.Server,
			InsecureSkipVerify: !opts.SSLVerify, //nolint:gosec // follows the API verification setting
		}
		sender = dialer
	}

	return &MailNotifier{
		sender:   sender,
		renderer: renderer,
		opts:     opts.Mail,
		crowdURL: opts.CrowdURL,
	}
}

// Notify renders and sends the account email to the user with the configured
// CC and BCC recipients.
func (n *MailNotifier) Notify(ctx context.Context, user User, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user.Email == "" {
		return fmt.Errorf("user %s has no email address", user.Name)
	}

	body, err := n.renderer.Render(TemplateData{User: user, Password: password, CrowdURL: n.crowdURL})
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.opts.Sender)
	m.SetHeader("To", user.Email)
	if len(n.opts.RecipientsCC) > 0 {
		m.SetHeader("Cc", n.opts.RecipientsCC...)
	}
	if len(n.opts.RecipientsBCC) > 0 {
		m.SetHeader("Bcc", n.opts.RecipientsBCC...)
	}
	m.SetHeader("Subject", n.opts.Subject)
	m.SetBody("text/plain", body)

	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", user.Email, err)
	}
	return nil
}
