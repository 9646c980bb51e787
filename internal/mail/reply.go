package mail

import (
	"regexp"
	"strings"
)

// Patterns that begin quoted-reply chrome. Everything from the first
// match onward is hidden history, not the visible reply.
var (
	attributionLine = regexp.MustCompile(`(?i)^On .{1,500}wrote:\s*$`)
	originalMarker  = regexp.MustCompile(`(?i)^-{2,}\s*(Original|Forwarded) Message\s*-{2,}`)
	fromHeaderLine  = regexp.MustCompile(`(?i)^From:\s.+$`)
	signatureMarker = regexp.MustCompile(`^--\s*$`)
)

// VisibleReplyText extracts the text a human actually typed from an
// inbound reply, stripping quoted history and signatures. Extraction
// is best effort: if nothing survives the stripping, the original text
// is returned untouched so the message body is never lost.
func VisibleReplyText(text string) string {
	if text == "" {
		return ""
	}

	lines := strings.Split(text, "\n")
	var visible []string

	for i, line := range lines {
		trimmed := strings.TrimRight(line, "\r")

		if attributionLine.MatchString(trimmed) || originalMarker.MatchString(trimmed) || signatureMarker.MatchString(trimmed) {
			break
		}
		// A From: header line after the first line starts quoted history
		if i > 0 && fromHeaderLine.MatchString(trimmed) {
			break
		}
		if strings.HasPrefix(strings.TrimSpace(trimmed), ">") {
			continue
		}

		visible = append(visible, trimmed)
	}

	result := strings.TrimSpace(strings.Join(visible, "\n"))
	if result == "" {
		return strings.TrimSpace(text)
	}
	return result
}
