// Package parser implements the message parser (§4.5): buffered line
// reading with timestamp-boundary detection for plain text, and one-JSON-
// object-per-line parsing for JSON sources.
//
// Grounded on MessageParser.cpp's parse_line/parse_json_line state machine.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/clparchive/clp/jsonenc"
	"github.com/clparchive/clp/tspattern"
)

// timestampKeyNames are the JSON field names searched, in order, for a
// message's timestamp (§4.5).
var timestampKeyNames = []string{
	"Time", "TIME", "time", "timestamp", "Timestamp", "TimeStamp", "TIMESTAMP",
}

// ParsedMessage is one decoded log record: its timestamp (if any), the
// reconstructed text (possibly spanning several buffered lines), and, for
// JSON sources, the parsed document.
type ParsedMessage struct {
	HasTimestamp bool
	Timestamp    time.Time
	Text         string
	JSON         *jsonenc.Value
}

// TextParser reads newline-delimited text, buffering lines until a
// timestamp boundary (or EOF) completes a message.
type TextParser struct {
	r       *bufio.Reader
	cache   tspattern.Cache
	pending *ParsedMessage
}

// NewTextParser wraps r for line-buffered parsing.
func NewTextParser(r io.Reader) *TextParser {
	return &TextParser{r: bufio.NewReader(r)}
}

// Next returns the next completed message. It returns (msg, true, nil) on
// success, (ParsedMessage{}, false, nil) at a clean EOF with nothing
// buffered, and a non-nil error only on an underlying read failure.
//
// Algorithm (parse_line): for each line, try to find a timestamp (cached
// pattern first, then the known-pattern library). A timestamp-bearing line
// either starts a fresh buffered message (if none is pending) or completes
// the pending one and starts a new buffer with the new line. A line with
// no timestamp either becomes a single-line message (no buffer pending) or
// is appended to the pending buffer.
func (p *TextParser) Next() (ParsedMessage, bool, error) {
	for {
		line, readErr := p.r.ReadString('\n')
		if len(line) == 0 {
			if readErr == io.EOF {
				if p.pending != nil {
					msg := *p.pending
					p.pending = nil
					return msg, true, nil
				}
				return ParsedMessage{}, false, nil
			}
			if readErr != nil {
				return ParsedMessage{}, false, fmt.Errorf("parser: read line: %w", readErr)
			}
		}

		trimmed := strings.TrimSuffix(line, "\n")

		match, hasTS := p.cache.Search(trimmed)

		if hasTS {
			if p.pending == nil {
				p.pending = &ParsedMessage{HasTimestamp: true, Timestamp: match.Time, Text: trimmed}
			} else {
				completed := *p.pending
				p.pending = &ParsedMessage{HasTimestamp: true, Timestamp: match.Time, Text: trimmed}
				return completed, true, nil
			}
		} else {
			if p.pending == nil {
				return ParsedMessage{Text: trimmed}, true, nil
			}
			p.pending.Text += "\n" + trimmed
		}

		if readErr == io.EOF {
			if p.pending != nil {
				msg := *p.pending
				p.pending = nil
				return msg, true, nil
			}
			return ParsedMessage{}, false, nil
		}
	}
}

// JSONParser parses one JSON object per line (§4.5). A line that fails to
// parse is reported by Next as an error together with ok=true and an empty
// ParsedMessage; the following call continues with the next line.
type JSONParser struct {
	r     *bufio.Reader
	cache tspattern.Cache
}

// NewJSONParser wraps r for one-object-per-line JSON parsing.
func NewJSONParser(r io.Reader) *JSONParser {
	return &JSONParser{r: bufio.NewReader(r)}
}

// Next returns the next line's parsed message. ok is false at EOF and on a
// read failure.
// A line that isn't valid JSON is reported via err (Corrupt, per §7); the
// caller should log and continue rather than abort the source.
func (p *JSONParser) Next() (msg ParsedMessage, ok bool, err error) {
	line, readErr := p.r.ReadString('\n')
	if len(line) == 0 {
		if readErr == io.EOF {
			return ParsedMessage{}, false, nil
		}
		return ParsedMessage{}, false, fmt.Errorf("parser: read line: %w", readErr)
	}

	trimmed := strings.TrimSuffix(line, "\n")

	doc, parseErr := jsonenc.Parse([]byte(trimmed))
	if parseErr != nil {
		return ParsedMessage{}, true, fmt.Errorf("parser: malformed json line: %w", parseErr)
	}

	msg = ParsedMessage{JSON: doc}

	if doc.Kind == jsonenc.KindObject {
		for _, name := range timestampKeyNames {
			field, found := doc.Obj.Get(name)
			if !found {
				continue
			}

			switch field.Kind {
			case jsonenc.KindNumber:
				if jsonenc.IsInteger(field.Number) {
					ms, convErr := jsonenc.AsInt64(field.Number)
					if convErr == nil {
						msg.HasTimestamp = true
						msg.Timestamp = tspattern.EpochMillisToTime(ms)
					}
				}
			case jsonenc.KindString:
				if m, found := p.cache.Search(field.Str); found {
					msg.HasTimestamp = true
					msg.Timestamp = m.Time
				}
			}

			break
		}
	}

	return msg, true, nil
}
