package tracing

import (
	"context"
	"encoding/json"
	"runtime/debug"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/customeros/mailharvest/internal/logger"
)

const (
	SpanTagRunId     = "run-id"
	SpanTagProtocol  = "protocol"
	SpanTagComponent = "component"
)

const (
	SpanTagComponentService = "service"
	SpanTagComponentCronJob = "cronJob"
	SpanTagComponentCLI     = "cli"
)

type runIdKey struct{}

// WithRunId stores the batch run id so every span of that run can be tagged.
func WithRunId(ctx context.Context, runId string) context.Context {
	return context.WithValue(ctx, runIdKey{}, runId)
}

func GetRunId(ctx context.Context) string {
	if runId, ok := ctx.Value(runIdKey{}).(string); ok {
		return runId
	}
	return ""
}

func StartTracerSpan(ctx context.Context, operationName string) (opentracing.Span, context.Context) {
	serverSpan := opentracing.GlobalTracer().StartSpan(operationName)
	return serverSpan, opentracing.ContextWithSpan(ctx, serverSpan)
}

func setDefaultSpanTags(ctx context.Context, span opentracing.Span) {
	if runId := GetRunId(ctx); runId != "" {
		span.SetTag(SpanTagRunId, runId)
	}
}

func SetDefaultServiceSpanTags(ctx context.Context, span opentracing.Span) {
	setDefaultSpanTags(ctx, span)
	TagComponentService(span)
}

func SetDefaultCronSpanTags(ctx context.Context, span opentracing.Span) {
	setDefaultSpanTags(ctx, span)
	TagComponentCronJob(span)
}

func TraceErr(span opentracing.Span, err error, fields ...log.Field) {
	if span == nil || err == nil {
		return
	}
	// Log the error with the fields
	ext.LogError(span, err, fields...)
}

func LogObjectAsJson(span opentracing.Span, name string, object any) {
	if object == nil {
		span.LogFields(log.String(name, "nil"))
		return
	}
	jsonObject, err := json.Marshal(object)
	if err == nil {
		span.LogFields(log.String(name, string(jsonObject)))
	} else {
		span.LogFields(log.Object(name, object))
	}
}

func TagComponentService(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentService)
}

func TagComponentCronJob(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentCronJob)
}

func TagComponentCLI(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentCLI)
}

func RecoverAndLogToJaeger(appLogger logger.Logger) {
	if r := recover(); r != nil {
		logPanic(appLogger, r)
	}
}

// RecoverAsError must be deferred directly. It logs a panic like
// RecoverAndLogToJaeger and stores it in *err so the caller still fails.
func RecoverAsError(appLogger logger.Logger, err *error) {
	if r := recover(); r != nil {
		logPanic(appLogger, r)
		*err = errors.Errorf("recovered from panic: %v", r)
	}
}

func logPanic(appLogger logger.Logger, r any) {
	span := opentracing.GlobalTracer().StartSpan("panic-recovery")
	defer span.Finish()

	stackTrace := string(debug.Stack())
	span.LogKV(
		"event", "error",
		"error.object", r,
		"stack", stackTrace,
	)
	span.SetTag("error", true)

	appLogger.Errorf("Recovered from panic: %v\nStack trace:\n%s", r, stackTrace)
}
