package pop3

import (
	"bytes"
	"time"

	"github.com/knadh/go-pop3"

	"github.com/customeros/mailharvest/interfaces"
	"github.com/customeros/mailharvest/internal/logger"
)

const defaultDialTimeout = 30 * time.Second

// pop3Conn is the subset of *pop3.Conn used by a session.
type pop3Conn interface {
	User(user string) error
	Pass(password string) error
	List(msgID int) ([]pop3.MessageID, error)
	RetrRaw(msgID int) (*bytes.Buffer, error)
	Quit() error
}

type dialFunc func(opt pop3.Opt) (pop3Conn, error)

type Config struct {
	Server      string
	Port        int
	Username    string
	Password    string
	DialTimeout time.Duration
}

type POP3Service struct {
	config Config
	log    logger.Logger
	dial   dialFunc
}

func NewPOP3Service(config Config, log logger.Logger) interfaces.MailboxService {
	return newPOP3Service(config, log, dialTLS)
}

func newPOP3Service(config Config, log logger.Logger, dial dialFunc) *POP3Service {
	if config.DialTimeout <= 0 {
		config.DialTimeout = defaultDialTimeout
	}
	return &POP3Service{
		config: config,
		log:    log,
		dial:   dial,
	}
}

func (s *POP3Service) Protocol() string {
	return "POP3"
}

func dialTLS(opt pop3.Opt) (pop3Conn, error) {
	c, err := pop3.New(opt).NewConn()
	if err != nil {
		return nil, err
	}
	return c, nil
}

var _ interfaces.MailboxService = (*POP3Service)(nil)
