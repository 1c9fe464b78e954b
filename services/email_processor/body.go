package email_processor

import (
	"bytes"
	"strings"

	"github.com/jhillyerd/enmime"

	"github.com/customeros/mailharvest/internal/utils"
)

const (
	mimeTextPlain         = "text/plain"
	mimeMessageRFC822     = "message/rfc822"
	dispositionAttachment = "attachment"

	// forwarded-inside-forwarded chains deeper than this are not opened
	maxEmbeddedDepth = 8
)

// ExtractBody returns the first text/plain, non-attachment part of the tree in
// depth-first declaration order. The root itself is considered, so a
// single-part message follows the same rule. Inline message/rfc822 parts are
// opened and walked in place. Returns "" when nothing matches.
func ExtractBody(root *enmime.Part) string {
	part := firstPlainTextPart(root, 0)
	if part == nil {
		return ""
	}
	return strings.TrimSpace(utils.ToValidUTF8(part.Content))
}

func firstPlainTextPart(p *enmime.Part, depth int) *enmime.Part {
	if p == nil {
		return nil
	}
	if isPlainTextBody(p) {
		return p
	}
	if isEmbeddedMessage(p) && depth < maxEmbeddedDepth {
		embedded, err := enmime.ReadParts(bytes.NewReader(p.Content))
		if err != nil {
			return nil
		}
		return firstPlainTextPart(embedded, depth+1)
	}
	for child := p.FirstChild; child != nil; child = child.NextSibling {
		if match := firstPlainTextPart(child, depth); match != nil {
			return match
		}
	}
	return nil
}

func isEmbeddedMessage(p *enmime.Part) bool {
	if p.FirstChild != nil || len(p.Content) == 0 {
		return false
	}
	if isAttachment(p) {
		return false
	}
	return strings.ToLower(strings.TrimSpace(p.ContentType)) == mimeMessageRFC822
}

func isAttachment(p *enmime.Part) bool {
	return strings.EqualFold(strings.TrimSpace(p.Disposition), dispositionAttachment)
}

func isPlainTextBody(p *enmime.Part) bool {
	if p.FirstChild != nil {
		return false
	}
	if isAttachment(p) {
		return false
	}
	contentType := strings.ToLower(strings.TrimSpace(p.ContentType))
	return contentType == "" || contentType == mimeTextPlain
}
