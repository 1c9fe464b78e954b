package config

import (
	"time"

	cron_config "github.com/customeros/mailharvest/internal/cron/config"
	"github.com/customeros/mailharvest/internal/logger"
	"github.com/customeros/mailharvest/internal/tracing"
)

const (
	ProtocolIMAP = "IMAP"
	ProtocolPOP3 = "POP3"
)

type AppConfig struct {
	Protocol  string `env:"PROTOCOL" envDefault:"IMAP"`
	NumEmails int    `env:"NUM_EMAILS" envDefault:"10"`
}

type MailboxConfig struct {
	EmailAddress  string        `env:"EMAIL_ADDRESS"`
	EmailPassword string        `env:"EMAIL_PASSWORD"`
	ImapServer    string        `env:"IMAP_SERVER"`
	ImapPort      int           `env:"IMAP_PORT" envDefault:"993"`
	Pop3Server    string        `env:"POP3_SERVER"`
	Pop3Port      int           `env:"POP3_PORT" envDefault:"995"`
	DialTimeout   time.Duration `env:"MAIL_DIAL_TIMEOUT" envDefault:"30s"`
}

type OpenAIConfig struct {
	ApiKey  string `env:"OPENAI_API_KEY"`
	Model   string `env:"OPENAI_MODEL" envDefault:"gpt-4.1-mini"`
	BaseUrl string `env:"OPENAI_BASE_URL"`
}

// Enabled reports whether structured extraction should run.
func (c *OpenAIConfig) Enabled() bool {
	return c != nil && c.ApiKey != ""
}

type ExportConfig struct {
	Dir string `env:"EXPORT_DIR" envDefault:"."`
}

type StorageConfig struct {
	Bucket          string `env:"EXPORT_S3_BUCKET"`
	Region          string `env:"EXPORT_S3_REGION" envDefault:"us-east-1"`
	AccessKeyID     string `env:"EXPORT_S3_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"EXPORT_S3_ACCESS_KEY_SECRET"`
	KeyPrefix       string `env:"EXPORT_S3_PREFIX" envDefault:"exports"`
	R2AccountID     string `env:"EXPORT_R2_ACCOUNT_ID"`
}

// Enabled reports whether exported files should also be uploaded.
func (c *StorageConfig) Enabled() bool {
	return c != nil && c.Bucket != ""
}

type Config struct {
	AppConfig     *AppConfig
	MailboxConfig *MailboxConfig
	OpenAIConfig  *OpenAIConfig
	ExportConfig  *ExportConfig
	StorageConfig *StorageConfig
	CronConfig    *cron_config.Config
	Logger        *logger.Config
	Tracing       *tracing.JaegerConfig
}
