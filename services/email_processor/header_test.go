package email_processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeHeader(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain ascii", raw: "Weekly update", want: "Weekly update"},
		{name: "empty", raw: "", want: ""},
		{name: "utf-8 base64", raw: "=?UTF-8?B?44GT44KT44Gr44Gh44Gv?=", want: "こんにちは"},
		{name: "q encoding underscores", raw: "=?UTF-8?Q?Senior_Go_Engineer?=", want: "Senior Go Engineer"},
		{name: "literal around encoded word", raw: "Re: =?UTF-8?Q?caf=C3=A9?= menu", want: "Re: café menu"},
		{name: "iso-2022-jp", raw: "=?ISO-2022-JP?B?GyRCNWE/TTBGN28bKEI=?=", want: "求人案件"},
		{name: "shift_jis", raw: "=?Shift_JIS?B?i4GQbIjEjI8=?=", want: "求人案件"},
		{
			name: "mixed charsets concatenated in order",
			raw:  "=?UTF-8?B?44GT44KT44Gr44Gh44Gv?= =?ISO-8859-1?Q?caf=E9?= =?ISO-2022-JP?B?GyRCNWE/TTBGN28bKEI=?=",
			want: "こんにちはcafé求人案件",
		},
		{name: "sender with display name", raw: "=?UTF-8?Q?Jos=C3=A9?= <jose@example.com>", want: "José <jose@example.com>"},
		{name: "invalid utf-8 byte replaced", raw: "=?UTF-8?Q?bad=FFbyte?=", want: "bad\uFFFDbyte"},
		{name: "unknown charset read as utf-8", raw: "=?x-unknown?Q?abc?=", want: "abc"},
		{name: "raw invalid byte outside encoded word", raw: "caf\xe9", want: "caf\uFFFD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeHeader(tt.raw))
		})
	}
}

func TestDecodeHeader_MalformedWordKeptLiterally(t *testing.T) {
	got := DecodeHeader("=?UTF-8?X?broken?=")
	assert.Equal(t, "=?UTF-8?X?broken?=", got)
}
