package batch

import (
	"context"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"go.uber.org/zap"

	"github.com/customeros/mailharvest/interfaces"
	"github.com/customeros/mailharvest/internal/logger"
	"github.com/customeros/mailharvest/internal/models"
	"github.com/customeros/mailharvest/internal/tracing"
)

type BatchService struct {
	mailbox   interfaces.MailboxService
	display   interfaces.DisplayService
	extractor interfaces.ExtractorService
	exporter  interfaces.ExportService
	numEmails int
	log       logger.Logger
}

// NewBatchService wires one run. extractor may be nil, which disables
// structured extraction.
func NewBatchService(
	mailbox interfaces.MailboxService,
	display interfaces.DisplayService,
	extractor interfaces.ExtractorService,
	exporter interfaces.ExportService,
	numEmails int,
	log logger.Logger,
) *BatchService {
	return &BatchService{
		mailbox:   mailbox,
		display:   display,
		extractor: extractor,
		exporter:  exporter,
		numEmails: numEmails,
		log:       log,
	}
}

// Run connects, fetches, displays, optionally extracts and exports one batch.
// The mailbox session is released on every path once connected.
func (s *BatchService) Run(ctx context.Context) error {
	runId := uuid.New().String()
	ctx = tracing.WithRunId(ctx, runId)
	log := s.log.With(zap.String("run_id", runId), zap.String("protocol", s.mailbox.Protocol()))

	span, ctx := opentracing.StartSpanFromContext(ctx, "BatchService.Run")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag(tracing.SpanTagProtocol, s.mailbox.Protocol())

	session, err := s.mailbox.Connect(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	defer session.Close(ctx)

	batch, err := session.FetchRecent(ctx, s.numEmails)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	log.Infof("Fetched %d messages", len(batch))
	span.LogFields(tracingLog.Int("messages", len(batch)))

	s.display.Display(batch)

	withAnalysis := s.extractor != nil
	analyzed := s.analyze(ctx, log, batch)

	if _, err := s.exporter.Export(ctx, analyzed, withAnalysis); err != nil {
		tracing.TraceErr(span, err)
		log.Errorf("Export failed: %v", err)
		return err
	}
	return nil
}

func (s *BatchService) analyze(ctx context.Context, log logger.Logger, batch models.MessageBatch) []models.AnalyzedMessage {
	analyzed := make([]models.AnalyzedMessage, 0, len(batch))

	if s.extractor == nil {
		log.Info("OPENAI_API_KEY not set, skipping analysis")
		for _, msg := range batch {
			analyzed = append(analyzed, models.AnalyzedMessage{Message: msg})
		}
		return analyzed
	}

	for i, msg := range batch {
		log.Infof("Analysing message %d/%d", i+1, len(batch))
		result := s.extractor.Extract(ctx, msg.Body)
		analyzed = append(analyzed, models.AnalyzedMessage{Message: msg, Extraction: &result})
	}
	return analyzed
}
