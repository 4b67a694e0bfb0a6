// Package json persists tasks as versioned JSON files.
package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/avisram/loom"
)

// envelope is the v1 wire format for a persisted task.
type envelope struct {
	Version   int        `json:"version"`
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Events    []eventDTO `json:"events"`
}

// eventDTO is the JSON representation of an Event with a type discriminator.
type eventDTO struct {
	Type        string           `json:"type"`
	Content     *string          `json:"content,omitempty"`
	Name        *string          `json:"name,omitempty"`
	Input       *json.RawMessage `json:"input,omitempty"`
	ID          *string          `json:"id,omitempty"`
	ToolUseID   *string          `json:"tool_use_id,omitempty"`
	Output      *string          `json:"output,omitempty"`
	IsError     *bool            `json:"is_error,omitempty"`
	Attachments []string         `json:"attachments,omitempty"`
	Subtype     *string          `json:"subtype,omitempty"`
	CostUSD     *float64         `json:"cost_usd,omitempty"`
	DurationMS  *int64           `json:"duration_ms,omitempty"`
	Message     *string          `json:"message,omitempty"`
	Plan        *string          `json:"plan,omitempty"`
}

// MarshalTask serializes a Task to JSON in v1 envelope format.
func MarshalTask(t loom.Task) ([]byte, error) {
	env := envelope{
		Version:   1,
		ID:        t.ID,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		Events:    make([]eventDTO, len(t.Events)),
	}
	for i, ev := range t.Events {
		dto, err := marshalEvent(ev)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		env.Events[i] = dto
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalTask deserializes a Task from JSON in v1 envelope format.
func UnmarshalTask(data []byte) (loom.Task, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return loom.Task{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return loom.Task{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	events := make([]loom.Event, len(env.Events))
	for i, dto := range env.Events {
		ev, err := unmarshalEvent(dto)
		if err != nil {
			return loom.Task{}, fmt.Errorf("event %d: %w", i, err)
		}
		events[i] = ev
	}
	return loom.Task{
		ID:        env.ID,
		CreatedAt: env.CreatedAt,
		UpdatedAt: env.UpdatedAt,
		Events:    events,
	}, nil
}

// Save writes a Task to a JSON file, creating parent directories as needed.
// The write is atomic: data lands in a temp file that is renamed into place.
func Save(path string, t loom.Task) error {
	data, err := MarshalTask(t)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads a Task from a JSON file. A missing file reports ErrTaskNotFound.
func Load(path string) (loom.Task, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return loom.Task{}, fmt.Errorf("%w: %s", loom.ErrTaskNotFound, path)
	}
	if err != nil {
		return loom.Task{}, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalTask(data)
}

func marshalEvent(ev loom.Event) (eventDTO, error) {
	switch e := ev.(type) {
	case loom.TextEvent:
		return eventDTO{Type: "text", Content: &e.Content}, nil
	case loom.ToolUseEvent:
		input := e.Input
		return eventDTO{Type: "tool_use", Name: &e.Name, Input: &input, ID: &e.ID}, nil
	case loom.ToolResultEvent:
		return eventDTO{
			Type:      "tool_result",
			ToolUseID: &e.ToolUseID,
			Output:    &e.Output,
			IsError:   &e.IsError,
		}, nil
	case loom.UserEvent:
		return eventDTO{Type: "user", Content: &e.Content, Attachments: e.Attachments}, nil
	case loom.ResultEvent:
		ms := e.Duration.Milliseconds()
		return eventDTO{Type: "result", Subtype: &e.Subtype, CostUSD: &e.CostUSD, DurationMS: &ms}, nil
	case loom.ErrorEvent:
		return eventDTO{Type: "error", Message: &e.Message}, nil
	case loom.PlanEvent:
		return eventDTO{Type: "plan", Plan: &e.Plan}, nil
	default:
		return eventDTO{}, fmt.Errorf("unknown event type: %T", ev)
	}
}

func unmarshalEvent(dto eventDTO) (loom.Event, error) {
	switch dto.Type {
	case "text":
		return loom.TextEvent{Content: strVal(dto.Content)}, nil
	case "tool_use":
		var input json.RawMessage
		if dto.Input != nil {
			input = *dto.Input
		}
		return loom.ToolUseEvent{Name: strVal(dto.Name), Input: input, ID: strVal(dto.ID)}, nil
	case "tool_result":
		var isError bool
		if dto.IsError != nil {
			isError = *dto.IsError
		}
		return loom.ToolResultEvent{
			ToolUseID: strVal(dto.ToolUseID),
			Output:    strVal(dto.Output),
			IsError:   isError,
		}, nil
	case "user":
		return loom.UserEvent{Content: strVal(dto.Content), Attachments: dto.Attachments}, nil
	case "result":
		var cost float64
		if dto.CostUSD != nil {
			cost = *dto.CostUSD
		}
		var dur time.Duration
		if dto.DurationMS != nil {
			dur = time.Duration(*dto.DurationMS) * time.Millisecond
		}
		return loom.ResultEvent{Subtype: strVal(dto.Subtype), CostUSD: cost, Duration: dur}, nil
	case "error":
		return loom.ErrorEvent{Message: strVal(dto.Message)}, nil
	case "plan":
		return loom.PlanEvent{Plan: strVal(dto.Plan)}, nil
	default:
		return nil, fmt.Errorf("unknown event type: %q", dto.Type)
	}
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
