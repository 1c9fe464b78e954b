package email_processor

import (
	"io"
	"mime"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/customeros/mailharvest/internal/utils"
)

var headerDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

// charsetReader resolves charsets through the WHATWG index, which also covers
// the Japanese and Chinese legacy encodings common in job mail. Unknown
// charsets are read as UTF-8 and cleaned up later.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	if charset == "" {
		return input, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return input, nil
	}
	return enc.NewDecoder().Reader(input), nil
}

// DecodeHeader turns a raw header value with any number of RFC 2047 encoded
// words into plain text. Literal text is kept in place, invalid bytes become
// U+FFFD and the function never fails.
func DecodeHeader(raw string) string {
	if !strings.Contains(raw, "=?") {
		return utils.ToValidUTF8([]byte(raw))
	}

	decoded, err := headerDecoder.DecodeHeader(raw)
	if err != nil {
		return utils.ToValidUTF8([]byte(raw))
	}

	return utils.ToValidUTF8([]byte(decoded))
}
