// Package message models commit messages and parses them into the parts the
// lint rules operate on: a conventional header, a free-form body, and a
// git-trailer style footer block.
package message

import (
	"regexp"
	"strings"
)

// TicketPattern matches a single issue-tracker ticket identifier, e.g.
// SSPORT-1234 or TICKET-ANALYTICS-567.
var TicketPattern = regexp.MustCompile(`^[A-Z]+(?:-[A-Z0-9]+)*$`)

// Footer is one trailer line from the final paragraph of a commit message.
type Footer struct {
	// Key is the trailer token before the colon (e.g. "Fixes").
	Key string
	// Value is the trimmed text after the colon.
	Value string
	// Raw is the unmodified line, used by rules that validate the whole line.
	Raw string
	// Line is the 1-based line number within the normalized message.
	Line int
}

// Message is a parsed commit message. Parsing is lenient: a message that
// does not follow the conventional shape still produces a Message, and the
// rules report what is wrong with it.
type Message struct {
	// Raw is the normalized message text (LF line endings, comments stripped).
	Raw string

	// Header is the first line.
	Header string

	// Conventional reports whether the header matched type(scope)!: subject.
	Conventional bool
	Type         string
	Scope        string
	Breaking     bool
	Subject      string

	// Body holds the lines between the header and the footer block,
	// excluding the separating blank lines.
	Body []string

	// BodyStart is the 1-based line number of the first body line, zero
	// when the message has no body.
	BodyStart int

	// Footers holds the trailer lines of the final paragraph, in order.
	Footers []Footer
}

// Footer returns the last footer whose key equals key (case-insensitive,
// matching how git resolves duplicate trailers) and whether one was found.
func (m *Message) Footer(key string) (Footer, bool) {
	for i := len(m.Footers) - 1; i >= 0; i-- {
		if strings.EqualFold(m.Footers[i].Key, key) {
			return m.Footers[i], true
		}
	}
	return Footer{}, false
}

// Tickets returns the ticket identifiers referenced by the given footer
// value. Tokens that do not look like ticket IDs are skipped; the footer
// rule is responsible for rejecting malformed lines.
func Tickets(value string) []string {
	var tickets []string
	for _, token := range strings.Split(value, ",") {
		token = strings.TrimSpace(token)
		if token != "" && TicketPattern.MatchString(token) {
			tickets = append(tickets, token)
		}
	}
	return tickets
}
