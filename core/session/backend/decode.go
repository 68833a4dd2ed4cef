package backend

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// lineDecoder accumulates bytes delivered at arbitrary read boundaries
// and yields complete newline-terminated lines. Partial trailing bytes
// are preserved for the next feed.
type lineDecoder struct {
	buffer []byte
}

func (d *lineDecoder) Feed(chunk []byte) [][]byte {
	d.buffer = append(d.buffer, chunk...)

	var lines [][]byte
	for {
		newline := bytes.IndexByte(d.buffer, '\n')
		if newline < 0 {
			return lines
		}

		line := bytes.TrimRight(d.buffer[:newline], "\r")
		d.buffer = d.buffer[newline+1:]
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		lines = append(lines, line)
	}
}

// Flush returns the trailing unterminated line, if any. Called once at
// end of stream so a final record without a newline is not lost.
func (d *lineDecoder) Flush() ([]byte, bool) {
	line := bytes.TrimSpace(d.buffer)
	d.buffer = nil
	if len(line) == 0 {
		return nil, false
	}
	return line, true
}

type wireRecord struct {
	Type string `json:"type"`

	Text string `json:"text,omitempty"`

	Action *wireAction `json:"action,omitempty"`

	Response     string           `json:"response,omitempty"`
	EmotionState string           `json:"emotion_state,omitempty"`
	Actions      []ResponseAction `json:"actions,omitempty"`

	Audio  string `json:"audio,omitempty"`
	Timing int    `json:"timing,omitempty"`

	Old    string `json:"old,omitempty"`
	New    string `json:"new,omitempty"`
	Reason string `json:"reason,omitempty"`

	Error string `json:"error,omitempty"`
}

type wireAction struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

// DecodeRecord parses one line into a typed stream event. Callers are
// expected to log and skip failures rather than abort the stream.
func DecodeRecord(line []byte) (StreamEvent, error) {
	var record wireRecord
	if err := json.Unmarshal(line, &record); err != nil {
		return nil, fmt.Errorf("failed to parse stream record: %w", err)
	}

	switch record.Type {
	case "delta":
		return Delta{Text: record.Text}, nil

	case "action":
		if record.Action == nil {
			return Action{}, nil
		}
		return Action{Name: record.Action.Name, Params: record.Action.Params}, nil

	case "text_done":
		return TextDone{
			Response:     record.Response,
			EmotionState: record.EmotionState,
			Actions:      record.Actions,
		}, nil

	case "audio":
		decoded, err := base64.StdEncoding.DecodeString(record.Audio)
		if err != nil {
			return nil, fmt.Errorf("failed to decode audio payload: %w", err)
		}
		return Audio{Audio: decoded, TimingMS: record.Timing}, nil

	case "session_reset":
		return SessionReset{OldID: record.Old, NewID: record.New, Reason: record.Reason}, nil

	case "error":
		return StreamError{Message: record.Error}, nil
	}

	return nil, fmt.Errorf("unrecognized stream record type %q", record.Type)
}
