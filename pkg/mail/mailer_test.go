package mail

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/ecommerce-api/cfg"
	"github.com/thep200/ecommerce-api/pkg/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestResetURL(t *testing.T) {
	assert.Equal(t, "http://shop.local/reset-password?token=a%2Bb", ResetURL("http://shop.local", "a+b"))
}

func TestRenderTemplates(t *testing.T) {
	body, err := renderWelcome("<script>Eve</script>")
	require.NoError(t, err)
	assert.Contains(t, body, "&lt;script&gt;Eve&lt;/script&gt;")

	body, err = renderReset("http://shop.local/reset-password?token=abc", 10)
	require.NoError(t, err)
	assert.Contains(t, body, `href="http://shop.local/reset-password?token=abc"`)
	assert.Contains(t, body, "expire in 10 minutes")
}

func TestNewMailer_WithoutHostLogsOnly(t *testing.T) {
	loader, _ := cfg.NewMockLoader()
	config, _ := loader.Load()
	logger, _ := log.NewCslLogger()

	mailer, err := NewMailer(config, logger)
	require.NoError(t, err)
	assert.IsType(t, &LogMailer{}, mailer)
	assert.NoError(t, mailer.SendWelcome(context.Background(), "a@example.com", "A"))
	assert.NoError(t, mailer.SendPasswordReset(context.Background(), "a@example.com", "tok"))
}

func TestLogMailer_ResetTokenOnlyAtDebug(t *testing.T) {
	loader, _ := cfg.NewMockLoader()
	config, _ := loader.Load()
	token := "0123456789abcdef0123456789abcdef"

	for _, level := range []zapcore.Level{zapcore.InfoLevel, zapcore.DebugLevel} {
		t.Run(level.String(), func(t *testing.T) {
			core, logs := observer.New(level)
			mailer := NewLogMailer(config, log.NewZapLoggerFrom(zap.New(core)))
			require.NoError(t, mailer.SendPasswordReset(context.Background(), "a@example.com", token))

			leaked := false
			for _, entry := range logs.AllUntimed() {
				if strings.Contains(entry.Message, token) {
					leaked = true
					assert.Equal(t, zapcore.DebugLevel, entry.Level)
				}
			}
			assert.Equal(t, level == zapcore.DebugLevel, leaked)
			assert.Contains(t, logs.All()[0].Message, "0123****")
		})
	}
}

func TestNewMailer_WithHost(t *testing.T) {
	loader, _ := cfg.NewMockLoader()
	config, _ := loader.Load()
	config.Mail = cfg.Mail{Host: "smtp.example.com", Port: 587, Username: "shop@example.com", Password: "pw"}
	logger, _ := log.NewCslLogger()

	mailer, err := NewMailer(config, logger)
	require.NoError(t, err)
	assert.IsType(t, &SmtpMailer{}, mailer)
}
