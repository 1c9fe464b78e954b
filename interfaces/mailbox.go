package interfaces

import (
	"context"

	"github.com/customeros/mailharvest/internal/models"
)

// MailboxService opens authenticated sessions against one configured mailbox.
// IMAP and POP3 implement it identically from the caller's point of view.
type MailboxService interface {
	Protocol() string
	Connect(ctx context.Context) (MailboxSession, error)
}

// MailboxSession is a single authenticated connection. Close must be called on
// every path once Connect succeeded; it never returns an error.
type MailboxSession interface {
	// FetchRecent returns at most maxCount messages, newest first. Messages
	// that fail to download are skipped.
	FetchRecent(ctx context.Context, maxCount int) (models.MessageBatch, error)
	Close(ctx context.Context)
}
