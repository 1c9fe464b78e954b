package imap

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/mailharvest/interfaces"
	mherrors "github.com/customeros/mailharvest/internal/errors"
	"github.com/customeros/mailharvest/internal/tracing"
)

// Connect dials the server over TLS using the system trust store and logs in.
// There is no retry; any failure is returned wrapped in ErrConnectionFailed.
func (s *IMAPService) Connect(ctx context.Context) (interfaces.MailboxSession, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPService.Connect")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("server", s.config.Server)
	span.SetTag("port", s.config.Port)

	serverAddr := net.JoinHostPort(s.config.Server, strconv.Itoa(s.config.Port))
	tlsConfig := &tls.Config{
		ServerName: s.config.Server,
	}

	s.log.Infof("Connecting to IMAP server %s", serverAddr)
	c, err := s.dial(serverAddr, tlsConfig, s.config.DialTimeout)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(mherrors.ErrConnectionFailed, "failed to connect to %s: %v", serverAddr, err)
	}

	s.log.Infof("Logging in as %s", s.config.Username)
	if err := c.Login(s.config.Username, s.config.Password); err != nil {
		// Close the connection before returning
		if logoutErr := c.Logout(); logoutErr != nil {
			s.log.Debugf("Logout after failed login: %v", logoutErr)
		}
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(mherrors.ErrConnectionFailed, "failed to login as %s: %v", s.config.Username, err)
	}

	s.log.Infof("Successfully connected and logged in to %s", serverAddr)
	span.SetTag("success", true)

	return &imapSession{conn: c, log: s.log}, nil
}
