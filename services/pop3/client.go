package pop3

import (
	"context"
	"net"
	"strconv"

	"github.com/knadh/go-pop3"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/mailharvest/interfaces"
	mherrors "github.com/customeros/mailharvest/internal/errors"
	"github.com/customeros/mailharvest/internal/tracing"
)

// Connect opens an implicit TLS session (POP3S) verified against the system
// trust store, then authenticates with USER/PASS.
func (s *POP3Service) Connect(ctx context.Context) (interfaces.MailboxSession, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "POP3Service.Connect")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("server", s.config.Server)
	span.SetTag("port", s.config.Port)

	serverAddr := net.JoinHostPort(s.config.Server, strconv.Itoa(s.config.Port))
	s.log.Infof("Connecting to POP3 server %s", serverAddr)

	c, err := s.dial(pop3.Opt{
		Host:        s.config.Server,
		Port:        s.config.Port,
		DialTimeout: s.config.DialTimeout,
		TLSEnabled:  true,
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(mherrors.ErrConnectionFailed, "failed to connect to %s: %v", serverAddr, err)
	}

	if err := s.authenticate(c); err != nil {
		if quitErr := c.Quit(); quitErr != nil {
			s.log.Debugf("Quit after failed login: %v", quitErr)
		}
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(mherrors.ErrConnectionFailed, "failed to login as %s: %v", s.config.Username, err)
	}

	s.log.Infof("Successfully connected and logged in to %s", serverAddr)
	span.SetTag("success", true)

	return &pop3Session{conn: c, log: s.log}, nil
}

func (s *POP3Service) authenticate(c pop3Conn) error {
	s.log.Infof("Logging in as %s", s.config.Username)
	if err := c.User(s.config.Username); err != nil {
		return errors.Wrap(err, "USER")
	}
	if err := c.Pass(s.config.Password); err != nil {
		return errors.Wrap(err, "PASS")
	}
	return nil
}
