package mail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRawEmail_PlainText(t *testing.T) {
	raw := "From: Alice <alice@example.com>\r\n" +
		"To: support@example.dev\r\n" +
		"Subject: Need help\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Hello support team\r\n"

	parsed, err := ParseRawEmail(strings.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", parsed.SenderEmail)
	assert.Equal(t, "Need help", parsed.Subject)
	assert.Contains(t, parsed.Text, "Hello support team")
	assert.Empty(t, parsed.References)
	assert.Empty(t, parsed.Attachments)
}

func TestParseRawEmail_MultipartWithHTML(t *testing.T) {
	raw := "From: alice@example.com\r\n" +
		"To: support@example.dev\r\n" +
		"Subject: Multipart\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=\"sep\"\r\n" +
		"\r\n" +
		"--sep\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"plain body\r\n" +
		"--sep\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>html body</p>\r\n" +
		"--sep--\r\n"

	parsed, err := ParseRawEmail(strings.NewReader(raw))
	require.NoError(t, err)

	assert.Contains(t, parsed.Text, "plain body")
	assert.Contains(t, parsed.HTML, "html body")
}

func TestParseRawEmail_CollectsReferencesInOrder(t *testing.T) {
	raw := "From: alice@example.com\r\n" +
		"To: support@example.dev\r\n" +
		"Subject: Re: thread\r\n" +
		"References: <first@mail.example.com> <second@mail.example.com>\r\n" +
		"In-Reply-To: <second@mail.example.com>\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"reply\r\n"

	parsed, err := ParseRawEmail(strings.NewReader(raw))
	require.NoError(t, err)

	// Brackets stripped, duplicates collapsed, order preserved.
	assert.Equal(t, []string{"first@mail.example.com", "second@mail.example.com"}, parsed.References)
}

func TestParseRawEmail_Attachment(t *testing.T) {
	raw := "From: alice@example.com\r\n" +
		"To: support@example.dev\r\n" +
		"Subject: With attachment\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=\"sep\"\r\n" +
		"\r\n" +
		"--sep\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"see attached\r\n" +
		"--sep\r\n" +
		"Content-Type: text/csv\r\n" +
		"Content-Disposition: attachment; filename=\"data.csv\"\r\n" +
		"\r\n" +
		"a,b\r\n1,2\r\n" +
		"--sep--\r\n"

	parsed, err := ParseRawEmail(strings.NewReader(raw))
	require.NoError(t, err)

	require.Len(t, parsed.Attachments, 1)
	att := parsed.Attachments[0]
	assert.Equal(t, "data.csv", att.Filename)
	assert.Contains(t, att.ContentType, "text/csv")
	assert.Equal(t, int64(len(att.Content)), att.Size)
	assert.NotEmpty(t, att.Content)
}

func TestParseSenderAddress(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"Alice Smith" <alice@example.com>`, "alice@example.com"},
		{`Alice <alice@example.com>`, "alice@example.com"},
		// A bare addr-spec must come through whole, not be mistaken
		// for a display name followed by a shorter address.
		{`alice@example.com`, "alice@example.com"},
		{` alice@example.com `, "alice@example.com"},
		{`not an address`, "not an address"},
		{``, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseSenderAddress(tt.input), "input %q", tt.input)
	}
}

func TestLocalID(t *testing.T) {
	assert.Equal(t, "abc123", LocalID("abc123@mail.example.com"))
	assert.Equal(t, "abc123", LocalID("abc123"))
	assert.Equal(t, "", LocalID(""))
}
