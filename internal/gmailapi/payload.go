package gmailapi

import (
	"encoding/base64"
	"errors"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/k3a/html2text"
	"google.golang.org/api/gmail/v1"

	"github.com/vintas/mailman/internal/mail"
)

// recordFromMessage converts a full-format Gmail message into a Record.
// The plain body falls back to an html2text rendering when the message
// carries only an HTML part.
func recordFromMessage(msg *gmail.Message) (mail.Record, error) {
	if msg == nil || msg.Id == "" {
		return mail.Record{}, errors.New("message has no ID")
	}
	headers := collectHeaders(msg.Payload)
	plain, html := extractBodies(msg.Payload)
	if plain == "" && html != "" {
		plain = html2text.HTML2Text(html)
	}

	rec := mail.Record{
		ID:         mail.MessageID(msg.Id),
		ThreadID:   mail.ThreadID(msg.ThreadId),
		From:       headers["From"],
		To:         splitAddresses(headers["To"]),
		Cc:         splitAddresses(headers["Cc"]),
		Bcc:        splitAddresses(headers["Bcc"]),
		Subject:    headers["Subject"],
		BodyPlain:  plain,
		BodyHTML:   html,
		Snippet:    msg.Snippet,
		ReceivedAt: receivedTime(msg, headers),
		Headers:    headers,
	}
	for _, id := range msg.LabelIds {
		rec.Labels = append(rec.Labels, mail.LabelID(id))
	}
	return rec, nil
}

func collectHeaders(part *gmail.MessagePart) map[string]string {
	out := map[string]string{}
	if part == nil {
		return out
	}
	for _, h := range part.Headers {
		// canonical case so lookups don't depend on sender quirks
		out[canonicalHeader(h.Name)] = h.Value
	}
	return out
}

func canonicalHeader(name string) string {
	switch strings.ToLower(name) {
	case "from":
		return "From"
	case "to":
		return "To"
	case "cc":
		return "Cc"
	case "bcc":
		return "Bcc"
	case "subject":
		return "Subject"
	case "date":
		return "Date"
	default:
		return name
	}
}

// splitAddresses breaks a recipient header into individual address
// strings, preserving display names where present. An unparseable
// header is returned as a single raw element so no data is dropped.
func splitAddresses(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	addrs, err := netmail.ParseAddressList(raw)
	if err != nil {
		return []string{raw}
	}
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a.Name != "" {
			out = append(out, a.String())
		} else {
			out = append(out, a.Address)
		}
	}
	return out
}

// extractBodies walks the part tree for the first text/plain and
// text/html bodies, handling nested multiparts.
func extractBodies(part *gmail.MessagePart) (plain, html string) {
	if part == nil {
		return "", ""
	}
	switch strings.ToLower(part.MimeType) {
	case "text/plain":
		if plain == "" {
			plain = decodeBody(part.Body)
		}
	case "text/html":
		if html == "" {
			html = decodeBody(part.Body)
		}
	}
	for _, child := range part.Parts {
		p, h := extractBodies(child)
		if plain == "" {
			plain = p
		}
		if html == "" {
			html = h
		}
		if plain != "" && html != "" {
			break
		}
	}
	return plain, html
}

func decodeBody(body *gmail.MessagePartBody) string {
	if body == nil || body.Data == "" {
		return ""
	}
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(body.Data, "="))
	if err != nil {
		return ""
	}
	return string(decoded)
}

// receivedTime prefers Gmail's internal date and falls back to the Date
// header. A zero time is the defined sentinel when neither parses.
func receivedTime(msg *gmail.Message, headers map[string]string) time.Time {
	if msg.InternalDate > 0 {
		return time.UnixMilli(msg.InternalDate).UTC()
	}
	if raw := headers["Date"]; raw != "" {
		if ts, err := netmail.ParseDate(raw); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}
