package provision

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/mail.v2"
)

// MockMailSender records the messages it is asked to send.
type MockMailSender struct {
	mock.Mock
}

func (m *MockMailSender) DialAndSend(msgs ...*gomail.Message) error {
	args := make([]any, len(msgs))
	for i, msg := range msgs {
		args[i] = msg
	}
	return m.Called(args...).Error(0)
}

func TestRenderer_Render(t *testing.T) {
	renderer, err := NewRendererFromString("welcome", `Hi {{ .User.FirstName | upper }}, {{ .User.Name | quote }} {{ .Password }}{{ with .User.Groups }} [{{ join "," . }}]{{ end }} {{ default "n/a" .CrowdURL }}`)
	require.NoError(t, err)

	testCases := []struct {
		name string
		data TemplateData
		want string
	}{
		{
			name: "full",
			data: TemplateData{User: testUser("alice", "a", "b"), Password: "pw", CrowdURL: "https://crowd.example.com"},
			want: `Hi TEST, "alice" pw [a,b] https://crowd.example.com`,
		},
		{
			name: "no groups or url",
			data: TemplateData{User: testUser("bob"), Password: "pw"},
			want: `Hi TEST, "bob" pw n/a`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := renderer.Render(tc.data)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRenderer_Errors(t *testing.T) {
	_, err := NewRendererFromString("broken", "{{ .User.Name ")
	assert.ErrorContains(t, err, "failed to parse notification template")

	_, err = NewRenderer(filepath.Join(t.TempDir(), "absent.tmpl"))
	assert.ErrorContains(t, err, "failed to parse notification template")

	renderer, err := NewRendererFromString("unknown", "{{ .Nope }}")
	require.NoError(t, err)
	_, err = renderer.Render(TemplateData{})
	assert.ErrorContains(t, err, "failed to render notification")
}

func TestNewRenderer_File(t *testing.T) {
	path := writeFile(t, "new_user.tmpl", "Welcome {{ .User.Name }}")

	renderer, err := NewRenderer(path)
	require.NoError(t, err)

	got, err := renderer.Render(TemplateData{User: testUser("carol")})
	require.NoError(t, err)
	assert.Equal(t, "Welcome carol", got)
}

func TestNewRenderer_ShippedTemplate(t *testing.T) {
	renderer, err := NewRenderer(filepath.Join("..", "..", "templates", "new_user.tmpl"))
	require.NoError(t, err)

	got, err := renderer.Render(TemplateData{User: testUser("dave", "everyone"), Password: "Generated1"})
	require.NoError(t, err)
	assert.Contains(t, got, "Username: dave")
	assert.Contains(t, got, "Password: Generated1")
	assert.Contains(t, got, "Groups:   everyone")
}

func mailOptions() *Options {
	return &Options{
		CrowdURL: "https://crowd.example.com",
		Mail: MailOptions{
			Enabled:       true,
			Sender:        "crowd@example.com",
			Server:        "smtp.example.com",
			Port:          25,
			RecipientsCC:  []string{"ops@example.com"},
			RecipientsBCC: []string{"audit@example.com", "security@example.com"},
			Subject:       "Your account",
		},
	}
}

func TestMailNotifier_Notify(t *testing.T) {
	renderer, err := NewRendererFromString("body", "User {{ .User.Name }} at {{ .CrowdURL }} with {{ .Password }}")
	require.NoError(t, err)

	sender := &MockMailSender{}
	var sent *gomail.Message
	sender.On("DialAndSend", mock.AnythingOfType("*mail.Message")).
		Run(func(args mock.Arguments) { sent = args.Get(0).(*gomail.Message) }).
		Return(nil)

	notifier := NewMailNotifier(mailOptions(), renderer, sender)
	require.NoError(t, notifier.Notify(t.Context(), testUser("alice"), "Generated1"))

	sender.AssertExpectations(t)
	require.NotNil(t, sent)
	assert.Equal(t, []string{"crowd@example.com"}, sent.GetHeader("From"))
	assert.Equal(t, []string{"alice@example.com"}, sent.GetHeader("To"))
	assert.Equal(t, []string{"ops@example.com"}, sent.GetHeader("Cc"))
	assert.Equal(t, []string{"audit@example.com", "security@example.com"}, sent.GetHeader("Bcc"))
	assert.Equal(t, []string{"Your account"}, sent.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = sent.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "User alice at https://crowd.example.com with Generated1")
}

func TestMailNotifier_NoRecipientsConfigured(t *testing.T) {
	renderer, err := NewRendererFromString("body", "hello")
	require.NoError(t, err)

	opts := mailOptions()
	opts.Mail.RecipientsCC = nil
	opts.Mail.RecipientsBCC = nil

	sender := &MockMailSender{}
	var sent *gomail.Message
	sender.On("DialAndSend", mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(0).(*gomail.Message) }).
		Return(nil)

	require.NoError(t, NewMailNotifier(opts, renderer, sender).Notify(t.Context(), testUser("bob"), "pw"))
	assert.Empty(t, sent.GetHeader("Cc"))
	assert.Empty(t, sent.GetHeader("Bcc"))
}

func TestMailNotifier_Failures(t *testing.T) {
	renderer, err := NewRendererFromString("body", "hello {{ .User.Name }}")
	require.NoError(t, err)

	t.Run("no email address", func(t *testing.T) {
		sender := &MockMailSender{}
		user := testUser("alice")
		user.Email = ""

		err := NewMailNotifier(mailOptions(), renderer, sender).Notify(t.Context(), user, "pw")
		assert.ErrorContains(t, err, "has no email address")
		sender.AssertNotCalled(t, "DialAndSend", mock.Anything)
	})

	t.Run("send error", func(t *testing.T) {
		sender := &MockMailSender{}
		sender.On("DialAndSend", mock.Anything).Return(errors.New("dial tcp: connection refused"))

		err := NewMailNotifier(mailOptions(), renderer, sender).Notify(t.Context(), testUser("alice"), "pw")
		assert.ErrorContains(t, err, "failed to send email to alice@example.com")
	})

	t.Run("cancelled", func(t *testing.T) {
		sender := &MockMailSender{}
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		err := NewMailNotifier(mailOptions(), renderer, sender).Notify(ctx, testUser("alice"), "pw")
		assert.ErrorIs(t, err, context.Canceled)
		sender.AssertNotCalled(t, "DialAndSend", mock.Anything)
	})
}

func TestNewMailNotifier_DefaultDialer(t *testing.T) {
	opts := mailOptions()
	opts.SSLVerify = false

	notifier := NewMailNotifier(opts, nil, nil)

	dialer, ok := notifier.sender.(*gomail.Dialer)
	require.True(t, ok)
	assert.Equal(t, "smtp.example.com", dialer.Host)
	assert.Equal(t, 25, dialer.Port)
	assert.True(t, dialer.TLSConfig.InsecureSkipVerify)
}
