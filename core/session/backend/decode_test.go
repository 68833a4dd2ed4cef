package backend

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestLineDecoderReassemblesArbitraryChunks(t *testing.T) {
	payload := strings.Join([]string{
		`{"type":"delta","text":"Hel"}`,
		`{"type":"delta","text":"lo"}`,
		`{"type":"text_done","response":"Hello"}`,
	}, "\n") + "\n"

	for _, chunkSize := range []int{1, 2, 3, 7, 16, len(payload)} {
		decoder := &lineDecoder{}
		var lines [][]byte
		for start := 0; start < len(payload); start += chunkSize {
			end := min(start+chunkSize, len(payload))
			lines = append(lines, decoder.Feed([]byte(payload[start:end]))...)
		}
		if tail, ok := decoder.Flush(); ok {
			lines = append(lines, tail)
		}

		if len(lines) != 3 {
			t.Fatalf("chunk size %d: expected 3 lines, got %d", chunkSize, len(lines))
		}
		if string(lines[0]) != `{"type":"delta","text":"Hel"}` {
			t.Fatalf("chunk size %d: unexpected first line %q", chunkSize, lines[0])
		}
		if string(lines[2]) != `{"type":"text_done","response":"Hello"}` {
			t.Fatalf("chunk size %d: unexpected last line %q", chunkSize, lines[2])
		}
	}
}

func TestLineDecoderSkipsBlankLinesAndTrimsCarriageReturns(t *testing.T) {
	decoder := &lineDecoder{}
	lines := decoder.Feed([]byte("{\"type\":\"delta\"}\r\n\r\n\n{\"type\":\"error\"}\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if string(lines[0]) != `{"type":"delta"}` {
		t.Fatalf("expected carriage return to be trimmed, got %q", lines[0])
	}
}

func TestLineDecoderFlushReturnsUnterminatedTail(t *testing.T) {
	decoder := &lineDecoder{}
	if lines := decoder.Feed([]byte(`{"type":"delta","text":"tail"}`)); len(lines) != 0 {
		t.Fatalf("expected no complete lines, got %d", len(lines))
	}

	tail, ok := decoder.Flush()
	if !ok {
		t.Fatalf("expected flush to return the trailing line")
	}
	if string(tail) != `{"type":"delta","text":"tail"}` {
		t.Fatalf("unexpected tail %q", tail)
	}
	if _, ok := decoder.Flush(); ok {
		t.Fatalf("expected second flush to be empty")
	}
}

func TestDecodeRecordVariants(t *testing.T) {
	event, err := DecodeRecord([]byte(`{"type":"delta","text":"hi"}`))
	if err != nil {
		t.Fatalf("expected delta to decode, got %v", err)
	}
	if delta, ok := event.(Delta); !ok || delta.Text != "hi" {
		t.Fatalf("unexpected delta event %#v", event)
	}

	event, err = DecodeRecord([]byte(`{"type":"action","action":{"name":"lookup","params":{"q":"weather"}}}`))
	if err != nil {
		t.Fatalf("expected action to decode, got %v", err)
	}
	action, ok := event.(Action)
	if !ok || action.Name != "lookup" {
		t.Fatalf("unexpected action event %#v", event)
	}
	if action.Params["q"] != "weather" {
		t.Fatalf("expected action params to survive, got %#v", action.Params)
	}

	event, err = DecodeRecord([]byte(`{"type":"text_done","response":"done","emotion_state":"happy","actions":[{"name":"lookup","result":"sunny"}]}`))
	if err != nil {
		t.Fatalf("expected text_done to decode, got %v", err)
	}
	done, ok := event.(TextDone)
	if !ok || done.Response != "done" || done.EmotionState != "happy" {
		t.Fatalf("unexpected text_done event %#v", event)
	}
	if len(done.Actions) != 1 || done.Actions[0].Result != "sunny" {
		t.Fatalf("unexpected text_done actions %#v", done.Actions)
	}

	encoded := base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
	event, err = DecodeRecord([]byte(`{"type":"audio","audio":"` + encoded + `","timing":120}`))
	if err != nil {
		t.Fatalf("expected audio to decode, got %v", err)
	}
	audioEvent, ok := event.(Audio)
	if !ok || audioEvent.TimingMS != 120 {
		t.Fatalf("unexpected audio event %#v", event)
	}
	if len(audioEvent.Audio) != 3 || audioEvent.Audio[0] != 1 {
		t.Fatalf("expected audio payload to be base64 decoded, got %v", audioEvent.Audio)
	}

	event, err = DecodeRecord([]byte(`{"type":"session_reset","old":"a","new":"b","reason":"context overflow"}`))
	if err != nil {
		t.Fatalf("expected session_reset to decode, got %v", err)
	}
	if reset, ok := event.(SessionReset); !ok || reset.NewID != "b" || reset.Reason != "context overflow" {
		t.Fatalf("unexpected session_reset event %#v", event)
	}

	event, err = DecodeRecord([]byte(`{"type":"error","error":"boom"}`))
	if err != nil {
		t.Fatalf("expected error record to decode, got %v", err)
	}
	if streamErr, ok := event.(StreamError); !ok || streamErr.Message != "boom" {
		t.Fatalf("unexpected error event %#v", event)
	}
}

func TestDecodeRecordRejectsMalformedInput(t *testing.T) {
	if _, err := DecodeRecord([]byte(`{"type":"delta"`)); err == nil {
		t.Fatalf("expected malformed json to fail")
	}
	if _, err := DecodeRecord([]byte(`{"type":"hologram"}`)); err == nil {
		t.Fatalf("expected unknown record type to fail")
	}
	if _, err := DecodeRecord([]byte(`{"type":"audio","audio":"@@@"}`)); err == nil {
		t.Fatalf("expected invalid base64 audio to fail")
	}
}
