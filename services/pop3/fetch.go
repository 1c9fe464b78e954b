package pop3

import (
	"bytes"
	"context"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	mherrors "github.com/customeros/mailharvest/internal/errors"
	"github.com/customeros/mailharvest/internal/logger"
	"github.com/customeros/mailharvest/internal/models"
	"github.com/customeros/mailharvest/internal/tracing"
	"github.com/customeros/mailharvest/services/email_processor"
)

type pop3Session struct {
	conn pop3Conn
	log  logger.Logger
}

// FetchRecent retrieves messages from the highest message number downwards,
// covering at most the last maxCount numbers. Messages that fail to download
// are skipped and not replaced by older ones.
func (s *pop3Session) FetchRecent(ctx context.Context, maxCount int) (models.MessageBatch, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "POP3Session.FetchRecent")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("max_count", maxCount)

	listing, err := s.conn.List(0)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(mherrors.ErrFetchFailed, "failed to list messages: %v", err)
	}

	total := len(listing)
	if total == 0 || maxCount <= 0 {
		s.log.Info("No messages found in mailbox")
		return models.MessageBatch{}, nil
	}

	first, last := recentRange(total, maxCount)
	s.log.Infof("Fetching the latest %d messages", last-first+1)
	span.LogFields(tracingLog.Int("mailbox_total", total))

	batch := make(models.MessageBatch, 0, last-first+1)
	for msgNum := last; msgNum >= first; msgNum-- {
		raw, err := s.conn.RetrRaw(msgNum)
		if err == nil && raw == nil {
			err = errors.Errorf("server returned no data for message %d", msgNum)
		}
		if err != nil {
			s.log.Warnf("Skipping message %d: %v", msgNum, err)
			continue
		}
		batch = append(batch, email_processor.ParseMessage(unstuffDots(raw.Bytes())))
		if len(batch) >= maxCount {
			break
		}
	}

	span.LogFields(tracingLog.Int("fetched", len(batch)))
	return batch, nil
}

// recentRange returns the inclusive message number range [max(1, total-maxCount+1), total].
func recentRange(total, maxCount int) (int, int) {
	first := total - maxCount + 1
	if first < 1 {
		first = 1
	}
	return first, total
}

var (
	lineBreak   = []byte("\n")
	stuffedLine = []byte("..")
)

// unstuffDots removes the extra leading dot a POP3 server adds to every line
// of a multi-line response that begins with "." (RFC 1939 section 3).
func unstuffDots(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	for _, line := range bytes.SplitAfter(raw, lineBreak) {
		if bytes.HasPrefix(line, stuffedLine) {
			line = line[1:]
		}
		out = append(out, line...)
	}
	return out
}

// Close sends QUIT, which also commits the (empty) set of deletions.
func (s *pop3Session) Close(ctx context.Context) {
	span, _ := opentracing.StartSpanFromContext(ctx, "POP3Session.Close")
	defer span.Finish()

	if err := s.conn.Quit(); err != nil {
		s.log.Warnf("Error during quit: %v", err)
		return
	}
	s.log.Info("Logged out of POP3 server")
}
