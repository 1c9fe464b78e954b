package errors

import "github.com/pkg/errors"

var (
	// configuration errors
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrUnsupportedProtocol = errors.New("unsupported protocol")

	// mailbox errors
	ErrConnectionFailed = errors.New("mailbox connection failed")
	ErrFetchFailed      = errors.New("mailbox fetch failed")

	// extraction errors
	ErrNoStructuredReply = errors.New("no structured data in model reply")

	// export errors
	ErrExportFailed = errors.New("export failed")
)
