package email_processor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/customeros/mailharvest/internal/models"
)

func TestParseMessage_DecodesHeadersAndBody(t *testing.T) {
	raw := rawMessage(
		"From: =?UTF-8?Q?Jos=C3=A9_Recruiter?= <jose@agency.example>",
		"Subject: =?ISO-2022-JP?B?GyRCNWE/TTBGN28bKEI=?= Go",
		"Date: Mon, 02 Jun 2025 10:00:00 +0900",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Looking for a Go engineer.",
		"",
	)

	assert.Equal(t, models.ParsedMessage{
		Subject: "求人案件 Go",
		Sender:  "José Recruiter <jose@agency.example>",
		DateRaw: "Mon, 02 Jun 2025 10:00:00 +0900",
		Body:    "Looking for a Go engineer.",
	}, ParseMessage(raw))
}

func TestParseMessage_MissingHeadersUseDefaults(t *testing.T) {
	raw := rawMessage(
		"Content-Type: text/plain",
		"",
		"no headers to speak of",
	)

	msg := ParseMessage(raw)
	assert.Equal(t, DefaultSubject, msg.Subject)
	assert.Equal(t, DefaultSender, msg.Sender)
	assert.Equal(t, "", msg.DateRaw)
	assert.Equal(t, "no headers to speak of", msg.Body)
}

func TestParseMessage_EmptySubjectIsKept(t *testing.T) {
	raw := rawMessage(
		"Subject: ",
		"From: a@example.com",
		"",
		"body",
	)

	msg := ParseMessage(raw)
	assert.Equal(t, "", msg.Subject)
	assert.Equal(t, "a@example.com", msg.Sender)
}

func TestParseFallback(t *testing.T) {
	msg := parseFallback(rawMessage("Subject: hi", "From: x@example.com", "", " body text ", ""))
	assert.Equal(t, "hi", msg.Subject)
	assert.Equal(t, "x@example.com", msg.Sender)
	assert.Equal(t, "body text", msg.Body)

	garbage := parseFallback([]byte("not a message at all\xff"))
	assert.Equal(t, DefaultSubject, garbage.Subject)
	assert.Equal(t, DefaultSender, garbage.Sender)
	assert.Equal(t, "not a message at all\uFFFD", garbage.Body)
}
