package mail

import (
	"bytes"
	"io"
	netmail "net/mail"
	"strings"

	"github.com/jhillyerd/enmime"
)

// ParsedEmail is the decoded view of one raw inbound email.
type ParsedEmail struct {
	SenderEmail string
	Subject     string
	Text        string
	HTML        string
	// References holds the message-ids from the References and
	// In-Reply-To headers, in order, angle brackets stripped. They are
	// the candidates for thread correlation.
	References  []string
	Attachments []ParsedAttachment
}

// ParsedAttachment is one decoded attachment.
type ParsedAttachment struct {
	Filename    string
	ContentType string
	Content     []byte
	Size        int64
}

// ParseRawEmail parses a raw MIME message from an io.Reader.
func ParseRawEmail(r io.Reader) (*ParsedEmail, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, err
	}

	parsed := &ParsedEmail{
		Subject: env.GetHeader("Subject"),
		Text:    env.Text,
		HTML:    env.HTML,
	}

	parsed.SenderEmail = parseSenderAddress(env.GetHeader("From"))
	parsed.References = parseReferenceIDs(env.GetHeader("References"), env.GetHeader("In-Reply-To"))

	for _, att := range env.Attachments {
		parsed.Attachments = append(parsed.Attachments, ParsedAttachment{
			Filename:    att.FileName,
			ContentType: att.ContentType,
			Content:     att.Content,
			Size:        int64(len(att.Content)),
		})
	}

	// Inline parts with a filename count as attachments too
	for _, att := range env.Inlines {
		if att.FileName != "" {
			parsed.Attachments = append(parsed.Attachments, ParsedAttachment{
				Filename:    att.FileName,
				ContentType: att.ContentType,
				Content:     att.Content,
				Size:        int64(len(att.Content)),
			})
		}
	}

	return parsed, nil
}

// ParseRawEmailBytes parses a raw MIME message held in memory.
func ParseRawEmailBytes(raw []byte) (*ParsedEmail, error) {
	return ParseRawEmail(bytes.NewReader(raw))
}

// parseSenderAddress extracts the address from a From header. Both
// name-addr and bare addr-spec forms go through net/mail; a header
// that does not parse keeps its raw value as the address so the
// sender is never lost.
func parseSenderAddress(from string) string {
	from = strings.TrimSpace(from)
	if from == "" {
		return ""
	}

	addr, err := netmail.ParseAddress(from)
	if err != nil {
		return from
	}
	return addr.Address
}

// parseReferenceIDs collects message-ids from References and
// In-Reply-To header values: whitespace-separated, each wrapped in
// angle brackets. In-Reply-To comes last so the most specific
// candidate is at the tail.
func parseReferenceIDs(references, inReplyTo string) []string {
	var ids []string
	seen := make(map[string]bool)

	for _, raw := range append(strings.Fields(references), strings.Fields(inReplyTo)...) {
		id := strings.Trim(raw, "<>")
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// LocalID strips the domain part off a message-id, if any. Providers
// assign ids of the form "abc123@mail.example.com" while callbacks
// carry only "abc123", so correlation tries both forms.
func LocalID(messageID string) string {
	if at := strings.IndexByte(messageID, '@'); at > 0 {
		return messageID[:at]
	}
	return messageID
}
