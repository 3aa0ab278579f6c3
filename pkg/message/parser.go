package message

import (
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyMessage is returned when the input contains no content after
// normalization (e.g. an aborted commit buffer of only comments).
var ErrEmptyMessage = errors.New("empty commit message")

// headerPattern matches a Conventional Commits header: type(scope)!: subject.
// Scope and the breaking-change marker are optional.
var headerPattern = regexp.MustCompile(`^([a-z]+)(?:\(([^()]*)\))?(!)?: (.+)$`)

// footerLinePattern matches one git-trailer style line: "Key: value" or
// "Key #value", with a key of word characters and hyphens. "BREAKING CHANGE"
// is the single key permitted to contain a space.
var footerLinePattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9-]*|BREAKING CHANGE)(: | #)(.*)$`)

// Parse normalizes and splits a raw commit message. Line endings are
// normalized to LF, comment lines (as produced in a commit-msg hook buffer)
// are dropped, and trailing blank lines are trimmed. The final paragraph is
// treated as the footer block when every line in it parses as a trailer.
func Parse(raw string) (*Message, error) {
	lines := normalize(raw)
	if len(lines) == 0 {
		return nil, ErrEmptyMessage
	}

	msg := &Message{
		Raw:    strings.Join(lines, "\n"),
		Header: lines[0],
	}

	if m := headerPattern.FindStringSubmatch(msg.Header); m != nil {
		msg.Conventional = true
		msg.Type = m[1]
		msg.Scope = m[2]
		msg.Breaking = m[3] == "!"
		msg.Subject = m[4]
	}

	rest := lines[1:]
	footerStart := footerBlockStart(rest)

	body := rest
	if footerStart >= 0 {
		body = rest[:footerStart]
		for i, line := range rest[footerStart:] {
			m := footerLinePattern.FindStringSubmatch(line)
			msg.Footers = append(msg.Footers, Footer{
				Key:   m[1],
				Value: strings.TrimSpace(m[3]),
				Raw:   line,
				Line:  1 + footerStart + i + 1,
			})
		}
	}

	// Trim the blank separator lines around the body.
	start, end := 0, len(body)
	for start < end && body[start] == "" {
		start++
	}
	for end > start && body[end-1] == "" {
		end--
	}
	if start < end {
		msg.Body = body[start:end]
		msg.BodyStart = 1 + start + 1
	}

	return msg, nil
}

// normalize converts CRLF to LF, strips comment lines, and removes trailing
// blank lines. It returns nil when nothing remains.
func normalize(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, strings.TrimRight(line, " \t"))
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return nil
	}
	return lines
}

// footerBlockStart returns the index within rest where the footer block
// begins, or -1 when the final paragraph is not a trailer block. The block
// must be preceded by a blank line (or be the entire remainder) and every
// line in it must parse as a trailer.
func footerBlockStart(rest []string) int {
	last := len(rest) - 1
	if last < 0 {
		return -1
	}

	start := last
	for start >= 0 && rest[start] != "" {
		start--
	}
	start++ // first line of the final paragraph

	if start > last {
		return -1 // trailing blank, already trimmed by normalize
	}
	for i := start; i <= last; i++ {
		if !footerLinePattern.MatchString(rest[i]) {
			return -1
		}
	}
	return start
}
