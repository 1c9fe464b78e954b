package imap

import (
	"crypto/tls"
	"net"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/customeros/mailharvest/interfaces"
	"github.com/customeros/mailharvest/internal/logger"
)

const (
	inboxFolder        = "INBOX"
	defaultDialTimeout = 30 * time.Second
)

// imapConn is the subset of *client.Client used by a session.
type imapConn interface {
	Login(username, password string) error
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	Search(criteria *imap.SearchCriteria) ([]uint32, error)
	Fetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	Close() error
	Logout() error
}

type dialFunc func(addr string, tlsConfig *tls.Config, timeout time.Duration) (imapConn, error)

type Config struct {
	Server      string
	Port        int
	Username    string
	Password    string
	DialTimeout time.Duration
}

type IMAPService struct {
	config Config
	log    logger.Logger
	dial   dialFunc
}

func NewIMAPService(config Config, log logger.Logger) interfaces.MailboxService {
	return newIMAPService(config, log, dialTLS)
}

func newIMAPService(config Config, log logger.Logger, dial dialFunc) *IMAPService {
	if config.DialTimeout <= 0 {
		config.DialTimeout = defaultDialTimeout
	}
	return &IMAPService{
		config: config,
		log:    log,
		dial:   dial,
	}
}

func (s *IMAPService) Protocol() string {
	return "IMAP"
}

func dialTLS(addr string, tlsConfig *tls.Config, timeout time.Duration) (imapConn, error) {
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}
	c, err := client.DialWithDialerTLS(dialer, addr, tlsConfig)
	if err != nil {
		return nil, err
	}
	return c, nil
}

var _ interfaces.MailboxService = (*IMAPService)(nil)
