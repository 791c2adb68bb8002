// Package mail gửi email chào mừng và email đặt lại mật khẩu
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"

	"github.com/thep200/ecommerce-api/cfg"
	"github.com/thep200/ecommerce-api/pkg/log"
	gomail "github.com/wneessen/go-mail"
)

type Mailer interface {
	SendWelcome(ctx context.Context, to, name string) error
	SendPasswordReset(ctx context.Context, to, token string) error
}

var (
	welcomeTpl = template.Must(template.New("welcome").Parse(`<h1>Welcome {{.Name}}!</h1>
<p>Thank you for registering with our e-commerce platform.</p>
<p>Start shopping now and discover amazing products!</p>`))

	resetTpl = template.Must(template.New("reset").Parse(`<h1>Password Reset</h1>
<p>You requested a password reset. Click the link below to reset your password:</p>
<a href="{{.URL}}">Reset Password</a>
<p>This link will expire in {{.Minutes}} minutes.</p>
<p>If you didn't request this, please ignore this email.</p>`))
)

// NewMailer trả về SMTP mailer khi có cấu hình host, ngược lại chỉ ghi log
func NewMailer(config *cfg.Config, logger log.Logger) (Mailer, error) {
	if config.Mail.Host == "" {
		return NewLogMailer(config, logger), nil
	}
	return NewSmtpMailer(config, logger)
}

func ResetURL(frontendURL, token string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", frontendURL, url.QueryEscape(token))
}

func renderWelcome(name string) (string, error) {
	var buf bytes.Buffer
	if err := welcomeTpl.Execute(&buf, struct{ Name string }{name}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderReset(resetURL string, minutes int) (string, error) {
	var buf bytes.Buffer
	data := struct {
		URL     string
		Minutes int
	}{resetURL, minutes}
	if err := resetTpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type SmtpMailer struct {
	Config *cfg.Config
	Logger log.Logger
	client *gomail.Client
}

func NewSmtpMailer(config *cfg.Config, logger log.Logger) (*SmtpMailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(config.Mail.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if config.Mail.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(config.Mail.Username),
			gomail.WithPassword(config.Mail.Password),
		)
	}
	client, err := gomail.NewClient(config.Mail.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return &SmtpMailer{Config: config, Logger: logger, client: client}, nil
}

func (m *SmtpMailer) send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	from := m.Config.Mail.From
	if from == "" {
		from = m.Config.Mail.Username
	}
	if err := msg.From(from); err != nil {
		return fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send %q to %s: %w", subject, to, err)
	}
	m.Logger.Info(ctx, "Email %q sent to %s", subject, to)
	return nil
}

func (m *SmtpMailer) SendWelcome(ctx context.Context, to, name string) error {
	body, err := renderWelcome(name)
	if err != nil {
		return err
	}
	return m.send(ctx, to, "Welcome to Our Store!", body)
}

func (m *SmtpMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	body, err := renderReset(ResetURL(m.Config.App.FrontendUrl, token), m.Config.Jwt.ResetTokenMinutes)
	if err != nil {
		return err
	}
	return m.send(ctx, to, "Password Reset Request", body)
}

// LogMailer dùng khi chưa cấu hình SMTP: chỉ ghi nội dung ra log
type LogMailer struct {
	Config *cfg.Config
	Logger log.Logger
}

func NewLogMailer(config *cfg.Config, logger log.Logger) *LogMailer {
	return &LogMailer{Config: config, Logger: logger}
}

func (m *LogMailer) SendWelcome(ctx context.Context, to, name string) error {
	m.Logger.Info(ctx, "[MAIL] welcome email for %s <%s>", name, to)
	return nil
}

// SendPasswordReset chỉ ghi link đầy đủ (có token) ở mức Debug
func (m *LogMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	m.Logger.Info(ctx, "[MAIL] password reset email for %s (token %s)", to, redact(token))
	m.Logger.Debug(ctx, "[MAIL] password reset link for %s: %s", to, ResetURL(m.Config.App.FrontendUrl, token))
	return nil
}

func redact(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****"
}
