package email_processor

import (
	"bytes"
	"io"
	"net/mail"
	"net/textproto"
	"strings"

	"github.com/jhillyerd/enmime"

	"github.com/customeros/mailharvest/internal/models"
	"github.com/customeros/mailharvest/internal/utils"
)

const (
	DefaultSubject = "(no subject)"
	DefaultSender  = "(unknown sender)"
)

// ParseMessage turns a raw RFC 5322 message into a ParsedMessage. It never
// fails: unparseable input degrades to the lossy string form of the payload.
func ParseMessage(raw []byte) models.ParsedMessage {
	root, err := enmime.ReadParts(bytes.NewReader(raw))
	if err == nil && root != nil {
		msg := messageFromHeader(root.Header)
		msg.Body = ExtractBody(root)
		return msg
	}

	return parseFallback(raw)
}

func messageFromHeader(header textproto.MIMEHeader) models.ParsedMessage {
	return models.ParsedMessage{
		Subject: headerOrDefault(header, "Subject", DefaultSubject),
		Sender:  headerOrDefault(header, "From", DefaultSender),
		DateRaw: headerOrDefault(header, "Date", ""),
	}
}

func headerOrDefault(header textproto.MIMEHeader, key, fallback string) string {
	values := header.Values(key)
	if len(values) == 0 {
		return fallback
	}
	return DecodeHeader(values[0])
}

// parseFallback is used when the MIME tree cannot be built at all.
func parseFallback(raw []byte) models.ParsedMessage {
	m, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return models.ParsedMessage{
			Subject: DefaultSubject,
			Sender:  DefaultSender,
			Body:    strings.TrimSpace(utils.ToValidUTF8(raw)),
		}
	}

	msg := messageFromHeader(textproto.MIMEHeader(m.Header))
	payload, err := io.ReadAll(m.Body)
	if err != nil && len(payload) == 0 {
		return msg
	}
	msg.Body = strings.TrimSpace(utils.ToValidUTF8(payload))
	return msg
}
