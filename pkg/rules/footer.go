package rules

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ssport/commitcheck/pkg/message"
)

// FixesPattern validates the complete ticket-reference footer line. The key
// is case-sensitive, the colon is mandatory, and multiple tickets must be
// comma separated.
var FixesPattern = regexp.MustCompile(`^Fixes:\s*([A-Z]+(?:-[A-Z0-9]+)*)(,\s*[A-Z]+(?:-[A-Z0-9]+)*)*\s*$`)

// FixedFooterMessage is reported verbatim whenever the footer rule fails,
// mirroring what the CI workflow prints.
const FixedFooterMessage = `commit footer must reference a ticket: "Fixes: ABC-123[, DEF-456...]"`

// FooterTicket requires the message to end with a valid Fixes footer.
type FooterTicket struct{}

func (FooterTicket) Name() string { return "footer-ticket" }

func (FooterTicket) Check(_ context.Context, msg *message.Message) []Result {
	line, ok := fixesLine(msg)
	if !ok || !FixesPattern.MatchString(line.Raw) {
		return []Result{{
			Rule:     "footer-ticket",
			Severity: SeverityError,
			Message:  FixedFooterMessage,
			Line:     line.Line,
		}}
	}
	return nil
}

// MatchFooter reports whether a candidate footer line satisfies the ticket
// reference convention. This is the single check a pre-commit hook needs.
func MatchFooter(line string) bool {
	return FixesPattern.MatchString(line)
}

// fixesLine locates the footer line carrying the ticket reference. The key
// lookup is case-insensitive so that a wrongly cased "fixes:" line is found
// and then rejected by the pattern, rather than reported as missing.
func fixesLine(msg *message.Message) (message.Footer, bool) {
	return msg.Footer("fixes")
}

// TicketPrefix restricts referenced tickets to the configured project
// prefixes. It stays quiet when the footer itself is invalid; FooterTicket
// already reports that.
type TicketPrefix struct {
	Prefixes []string
}

func (TicketPrefix) Name() string { return "ticket-prefix" }

func (r TicketPrefix) Check(_ context.Context, msg *message.Message) []Result {
	if len(r.Prefixes) == 0 {
		return nil
	}
	line, ok := fixesLine(msg)
	if !ok || !FixesPattern.MatchString(line.Raw) {
		return nil
	}

	var results []Result
	for _, ticket := range message.Tickets(line.Value) {
		if !r.allowed(ticket) {
			results = append(results, Result{
				Rule:     "ticket-prefix",
				Severity: SeverityError,
				Message:  fmt.Sprintf("ticket %s does not use an allowed project prefix (%s)", ticket, strings.Join(r.Prefixes, ", ")),
				Line:     line.Line,
			})
		}
	}
	return results
}

func (r TicketPrefix) allowed(ticket string) bool {
	for _, prefix := range r.Prefixes {
		if strings.HasPrefix(ticket, prefix+"-") {
			return true
		}
	}
	return false
}
