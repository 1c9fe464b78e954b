package tracing

import (
	"io"
	"net"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-client-go/log/zap"

	"github.com/customeros/mailharvest/internal/logger"
)

// A batch run lasts seconds, so spans are flushed often and on Close.
const reporterFlushInterval = time.Second

type JaegerConfig struct {
	Endpoint     string  `env:"JAEGER_ENDPOINT"`
	ServiceName  string  `env:"JAEGER_SERVICE_NAME" envDefault:"mailharvest"`
	AgentHost    string  `env:"JAEGER_AGENT_HOST" envDefault:"localhost"`
	AgentPort    string  `env:"JAEGER_AGENT_PORT" envDefault:"6831"`
	Enabled      bool    `env:"JAEGER_ENABLED" envDefault:"false"`
	LogSpans     bool    `env:"JAEGER_REPORTER_LOG_SPANS" envDefault:"false"`
	SamplerType  string  `env:"JAEGER_SAMPLER_TYPE" envDefault:"const"`
	SamplerParam float64 `env:"JAEGER_SAMPLER_PARAM" envDefault:"1"`
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewJaegerTracer returns opentracing's no-op tracer unless tracing is enabled,
// so spans cost nothing on a plain CLI run.
func NewJaegerTracer(jaegerConfig *JaegerConfig, log logger.Logger) (opentracing.Tracer, io.Closer, error) {
	if jaegerConfig == nil || !jaegerConfig.Enabled {
		log.Debug("Tracing disabled")
		return opentracing.NoopTracer{}, nopCloser{}, nil
	}

	cfg := jaegerConfiguration(jaegerConfig)
	log.Infof("Reporting traces for %s to %s", cfg.ServiceName, reporterTarget(cfg.Reporter))
	return cfg.NewTracer(config.Logger(zap.NewLogger(log.Logger())))
}

func jaegerConfiguration(jaegerConfig *JaegerConfig) *config.Configuration {
	reporter := &config.ReporterConfig{
		LogSpans:            jaegerConfig.LogSpans,
		BufferFlushInterval: reporterFlushInterval,
	}
	if jaegerConfig.Endpoint != "" {
		reporter.CollectorEndpoint = jaegerConfig.Endpoint
	} else {
		reporter.LocalAgentHostPort = net.JoinHostPort(jaegerConfig.AgentHost, jaegerConfig.AgentPort)
	}

	return &config.Configuration{
		ServiceName: jaegerConfig.ServiceName,
		Sampler: &config.SamplerConfig{
			Type:  jaegerConfig.SamplerType,
			Param: jaegerConfig.SamplerParam,
		},
		Reporter: reporter,
	}
}

func reporterTarget(reporter *config.ReporterConfig) string {
	if reporter.CollectorEndpoint != "" {
		return reporter.CollectorEndpoint
	}
	return reporter.LocalAgentHostPort
}
