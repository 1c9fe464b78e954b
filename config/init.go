package config

import (
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	cron_config "github.com/customeros/mailharvest/internal/cron/config"
	mherrors "github.com/customeros/mailharvest/internal/errors"
	"github.com/customeros/mailharvest/internal/logger"
	"github.com/customeros/mailharvest/internal/tracing"
)

const DefaultEnvFile = ".env"

// InitConfig loads envFile (values there override the process environment),
// parses every section and validates the result. A missing env file is not an
// error.
func InitConfig(envFile string) (*Config, error) {
	config := &Config{
		AppConfig:     &AppConfig{},
		MailboxConfig: &MailboxConfig{},
		OpenAIConfig:  &OpenAIConfig{},
		ExportConfig:  &ExportConfig{},
		StorageConfig: &StorageConfig{},
		CronConfig:    &cron_config.Config{},
		Logger:        &logger.Config{},
		Tracing:       &tracing.JaegerConfig{},
	}

	if envFile != "" {
		err := godotenv.Overload(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(mherrors.ErrInvalidConfig, "unable to load %s: %v", envFile, err)
		}
	}

	if err := env.Parse(config); err != nil {
		return nil, errors.Wrapf(mherrors.ErrInvalidConfig, "error loading config: %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate normalizes the protocol and checks required values. The protocol is
// checked first so an unsupported value is reported even when the rest of the
// configuration is incomplete.
func (c *Config) Validate() error {
	protocol := strings.ToUpper(strings.TrimSpace(c.AppConfig.Protocol))
	switch protocol {
	case ProtocolIMAP, ProtocolPOP3:
		c.AppConfig.Protocol = protocol
	default:
		return errors.Wrapf(mherrors.ErrUnsupportedProtocol, "PROTOCOL %q, expected IMAP or POP3", c.AppConfig.Protocol)
	}

	mailbox := c.MailboxConfig
	if mailbox.EmailAddress == "" {
		return errors.Wrap(mherrors.ErrInvalidConfig, "EMAIL_ADDRESS is not set")
	}
	if mailbox.EmailPassword == "" {
		return errors.Wrap(mherrors.ErrInvalidConfig, "EMAIL_PASSWORD is not set")
	}
	if protocol == ProtocolIMAP && mailbox.ImapServer == "" {
		return errors.Wrap(mherrors.ErrInvalidConfig, "IMAP_SERVER is not set")
	}
	if protocol == ProtocolPOP3 && mailbox.Pop3Server == "" {
		return errors.Wrap(mherrors.ErrInvalidConfig, "POP3_SERVER is not set")
	}

	if c.AppConfig.NumEmails <= 0 {
		return errors.Wrapf(mherrors.ErrInvalidConfig, "NUM_EMAILS must be positive, got %d", c.AppConfig.NumEmails)
	}

	return nil
}
