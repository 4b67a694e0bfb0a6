// Package claude decodes the agent CLI's stream-json wire format into loom
// events. The CLI emits one JSON object per line; a single line can carry
// several content blocks and therefore decode to several events.
package claude

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/avisram/loom"
)

// line is the envelope shared by all stream-json lines.
type line struct {
	Type      string          `json:"type"`
	Subtype   string          `json:"subtype"`
	Message   *message        `json:"message"`
	SessionID string          `json:"session_id"`
	Result    string          `json:"result"`
	IsError   bool            `json:"is_error"`
	CostUSD   float64         `json:"total_cost_usd"`
	Duration  int64           `json:"duration_ms"`
	Error     json.RawMessage `json:"error"`
}

type message struct {
	Role    string          `json:"role"`
	Content flexibleContent `json:"content"`
}

// contentBlock is one element of a message content array.
type contentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	ToolUseID string          `json:"tool_use_id"`
	Content   flexibleContent `json:"content"`
	IsError   bool            `json:"is_error"`
}

// flexibleContent is message content that may be a plain string or an array
// of content blocks, depending on the line kind.
type flexibleContent struct {
	raw json.RawMessage
}

func (fc *flexibleContent) UnmarshalJSON(data []byte) error {
	fc.raw = data
	return nil
}

func (fc flexibleContent) text() (string, bool) {
	var s string
	if err := json.Unmarshal(fc.raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func (fc flexibleContent) blocks() ([]contentBlock, bool) {
	var blocks []contentBlock
	if err := json.Unmarshal(fc.raw, &blocks); err != nil {
		return nil, false
	}
	return blocks, true
}

// flatten renders content to plain text: either the string itself, or the
// concatenated text blocks of an array.
func (fc flexibleContent) flatten() string {
	if s, ok := fc.text(); ok {
		return s
	}
	blocks, ok := fc.blocks()
	if !ok {
		return ""
	}
	var sb strings.Builder
	for _, b := range blocks {
		if b.Type != "text" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(b.Text)
	}
	return sb.String()
}

// planInput is the input shape of the plan-proposal tool.
type planInput struct {
	Plan string `json:"plan"`
}

// Decode parses one stream-json line into zero or more events. Lines that are
// not valid JSON return ErrMalformedLine. Lines with an unknown type decode
// to no events and no error, so new runtime event kinds pass through
// harmlessly. Optional fields that fail to parse are treated as absent.
func Decode(data []byte) ([]loom.Event, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}

	var ln line
	if err := json.Unmarshal([]byte(trimmed), &ln); err != nil {
		return nil, fmt.Errorf("%w: %v", loom.ErrMalformedLine, err)
	}

	switch ln.Type {
	case "assistant":
		return decodeAssistant(ln), nil
	case "user":
		return decodeUser(ln), nil
	case "result":
		return []loom.Event{loom.ResultEvent{
			Subtype:  ln.Subtype,
			CostUSD:  ln.CostUSD,
			Duration: time.Duration(ln.Duration) * time.Millisecond,
		}}, nil
	case "error":
		return decodeError(ln), nil
	default:
		return nil, nil
	}
}

// SessionID extracts the session id from a line, if it carries one. The init
// system line announces it; later lines repeat it.
func SessionID(data []byte) string {
	var ln line
	if err := json.Unmarshal(data, &ln); err != nil {
		return ""
	}
	return ln.SessionID
}

func decodeAssistant(ln line) []loom.Event {
	if ln.Message == nil {
		return nil
	}
	blocks, ok := ln.Message.Content.blocks()
	if !ok {
		return nil
	}
	var events []loom.Event
	for _, b := range blocks {
		switch b.Type {
		case "text":
			events = append(events, loom.TextEvent{Content: b.Text})
		case "tool_use":
			if b.Name == "ExitPlanMode" {
				var in planInput
				// Malformed plan input degrades to an empty proposal.
				_ = json.Unmarshal(b.Input, &in)
				events = append(events, loom.PlanEvent{Plan: in.Plan})
				continue
			}
			events = append(events, loom.ToolUseEvent{
				Name:  b.Name,
				Input: b.Input,
				ID:    b.ID,
			})
		}
	}
	return events
}

func decodeUser(ln line) []loom.Event {
	if ln.Message == nil {
		return nil
	}

	// A plain string content is a real user turn.
	if s, ok := ln.Message.Content.text(); ok {
		return []loom.Event{loom.UserEvent{Content: s}}
	}

	// Otherwise the "user" line is the transport for tool results.
	blocks, ok := ln.Message.Content.blocks()
	if !ok {
		return nil
	}
	var events []loom.Event
	for _, b := range blocks {
		switch b.Type {
		case "tool_result":
			events = append(events, loom.ToolResultEvent{
				ToolUseID: b.ToolUseID,
				Output:    b.Content.flatten(),
				IsError:   b.IsError,
			})
		case "text":
			events = append(events, loom.UserEvent{Content: b.Text})
		}
	}
	return events
}

func decodeError(ln line) []loom.Event {
	msg := ln.Subtype
	if len(ln.Error) > 0 {
		var e struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(ln.Error, &e); err == nil && e.Message != "" {
			msg = e.Message
		} else {
			var s string
			if err := json.Unmarshal(ln.Error, &s); err == nil && s != "" {
				msg = s
			}
		}
	}
	if msg == "" && ln.Result != "" {
		msg = ln.Result
	}
	return []loom.Event{loom.ErrorEvent{Message: msg}}
}
