package imap

import (
	"context"
	"io"

	"github.com/emersion/go-imap"
	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	mherrors "github.com/customeros/mailharvest/internal/errors"
	"github.com/customeros/mailharvest/internal/logger"
	"github.com/customeros/mailharvest/internal/models"
	"github.com/customeros/mailharvest/internal/tracing"
	"github.com/customeros/mailharvest/services/email_processor"
)

type imapSession struct {
	conn     imapConn
	log      logger.Logger
	selected bool
}

// FetchRecent examines INBOX read-only and downloads the newest maxCount
// messages one by one, newest first.
func (s *imapSession) FetchRecent(ctx context.Context, maxCount int) (models.MessageBatch, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPSession.FetchRecent")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("max_count", maxCount)

	if _, err := s.conn.Select(inboxFolder, true); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(mherrors.ErrFetchFailed, "failed to select %s: %v", inboxFolder, err)
	}
	s.selected = true

	seqNums, err := s.conn.Search(imap.NewSearchCriteria())
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(mherrors.ErrFetchFailed, "failed to search %s: %v", inboxFolder, err)
	}

	if len(seqNums) == 0 {
		s.log.Info("No messages found in mailbox")
		return models.MessageBatch{}, nil
	}

	selected := latestFirst(seqNums, maxCount)
	s.log.Infof("Fetching the latest %d messages", len(selected))
	span.LogFields(tracingLog.Int("mailbox_total", len(seqNums)), tracingLog.Int("selected", len(selected)))

	batch := make(models.MessageBatch, 0, len(selected))
	for _, seqNum := range selected {
		raw, err := s.fetchRaw(seqNum)
		if err != nil {
			s.log.Warnf("Skipping message %d: %v", seqNum, err)
			continue
		}
		batch = append(batch, email_processor.ParseMessage(raw))
	}

	span.LogFields(tracingLog.Int("fetched", len(batch)))
	return batch, nil
}

// latestFirst keeps the last maxCount ids in server order and reverses them.
func latestFirst(ids []uint32, maxCount int) []uint32 {
	if maxCount <= 0 {
		return []uint32{}
	}
	if len(ids) > maxCount {
		ids = ids[len(ids)-maxCount:]
	}

	reversed := make([]uint32, len(ids))
	for i, id := range ids {
		reversed[len(ids)-1-i] = id
	}
	return reversed
}

func (s *imapSession) fetchRaw(seqNum uint32) ([]byte, error) {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(seqNum)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	if err := s.conn.Fetch(seqSet, items, messages); err != nil {
		return nil, err
	}

	msg, ok := <-messages
	if !ok || msg == nil {
		return nil, errors.Errorf("server returned no data for message %d", seqNum)
	}

	raw, err := extractFullMessage(msg)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// extractFullMessage returns the BODY[] literal of a fetched message.
func extractFullMessage(msg *imap.Message) ([]byte, error) {
	for section, literal := range msg.Body {
		if section == nil || literal == nil {
			continue
		}
		if len(section.Path) == 0 && section.Specifier == imap.EntireSpecifier {
			return io.ReadAll(literal)
		}
	}
	return nil, errors.Errorf("message %d has no body section", msg.SeqNum)
}

// Close releases the selected mailbox and logs out. Errors are only logged.
func (s *imapSession) Close(ctx context.Context) {
	span, _ := opentracing.StartSpanFromContext(ctx, "IMAPSession.Close")
	defer span.Finish()

	if s.selected {
		if err := s.conn.Close(); err != nil {
			s.log.Warnf("Error closing mailbox: %v", err)
		}
		s.selected = false
	}

	if err := s.conn.Logout(); err != nil {
		s.log.Warnf("Error during logout: %v", err)
		return
	}
	s.log.Info("Logged out of IMAP server")
}
