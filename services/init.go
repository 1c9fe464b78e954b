package services

import (
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/customeros/mailharvest/config"
	"github.com/customeros/mailharvest/interfaces"
	mherrors "github.com/customeros/mailharvest/internal/errors"
	"github.com/customeros/mailharvest/internal/logger"
	"github.com/customeros/mailharvest/services/ai"
	"github.com/customeros/mailharvest/services/batch"
	"github.com/customeros/mailharvest/services/console"
	"github.com/customeros/mailharvest/services/export"
	"github.com/customeros/mailharvest/services/imap"
	"github.com/customeros/mailharvest/services/pop3"
	"github.com/customeros/mailharvest/services/storage"
)

type Services struct {
	MailboxService   interfaces.MailboxService
	DisplayService   interfaces.DisplayService
	ExtractorService interfaces.ExtractorService
	StorageService   interfaces.StorageService
	ExportService    interfaces.ExportService
	BatchService     *batch.BatchService
}

func InitServices(cfg *config.Config, log logger.Logger) (*Services, error) {
	mailbox, err := NewMailboxService(cfg, log)
	if err != nil {
		return nil, err
	}

	var extractor interfaces.ExtractorService
	if cfg.OpenAIConfig.Enabled() {
		extractor = ai.NewAIService(cfg.OpenAIConfig, log)
	}

	storageService, err := storage.NewStorageServiceFromConfig(cfg.StorageConfig, log)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize export storage")
	}

	display := console.NewConsoleService(os.Stdout)
	exporter := export.NewCSVExportService(cfg.ExportConfig.Dir, storageService, log)

	return &Services{
		MailboxService:   mailbox,
		DisplayService:   display,
		ExtractorService: extractor,
		StorageService:   storageService,
		ExportService:    exporter,
		BatchService:     batch.NewBatchService(mailbox, display, extractor, exporter, cfg.AppConfig.NumEmails, log),
	}, nil
}

// NewMailboxService picks the mailbox client for the configured protocol.
func NewMailboxService(cfg *config.Config, log logger.Logger) (interfaces.MailboxService, error) {
	mb := cfg.MailboxConfig

	switch protocol := strings.ToUpper(cfg.AppConfig.Protocol); protocol {
	case config.ProtocolIMAP:
		return imap.NewIMAPService(imap.Config{
			Server:      mb.ImapServer,
			Port:        mb.ImapPort,
			Username:    mb.EmailAddress,
			Password:    mb.EmailPassword,
			DialTimeout: mb.DialTimeout,
		}, log), nil
	case config.ProtocolPOP3:
		return pop3.NewPOP3Service(pop3.Config{
			Server:      mb.Pop3Server,
			Port:        mb.Pop3Port,
			Username:    mb.EmailAddress,
			Password:    mb.EmailPassword,
			DialTimeout: mb.DialTimeout,
		}, log), nil
	default:
		return nil, errors.Wrapf(mherrors.ErrUnsupportedProtocol, "%q (expected IMAP or POP3)", cfg.AppConfig.Protocol)
	}
}
