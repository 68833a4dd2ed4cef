package session

import (
	"testing"
	"time"

	"github.com/voxshell/voxshell-core/core/events"
)

func TestTagDispatcherDispatchesMusicPlayOnce(t *testing.T) {
	collected := []events.Event{}
	dispatcher := newTagDispatcher(func(event events.Event) {
		collected = append(collected, event)
	})

	// Cumulative rescans of the same text must not re-dispatch.
	dispatcher.Scan("Sure, here it comes [MUSIC")
	dispatcher.Scan("Sure, here it comes [MUSIC_PLAY:jazz]")
	dispatcher.Scan("Sure, here it comes [MUSIC_PLAY:jazz] enjoy!")

	if len(collected) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(collected))
	}
	music, ok := collected[0].(events.MusicCommand)
	if !ok {
		t.Fatalf("expected a music command, got %#v", collected[0])
	}
	if music.Action != "play" || music.Track != "jazz" {
		t.Fatalf("unexpected music command %#v", music)
	}
}

func TestTagDispatcherBareTagHasNoArgument(t *testing.T) {
	collected := []events.Event{}
	dispatcher := newTagDispatcher(func(event events.Event) {
		collected = append(collected, event)
	})

	text := "Sure, starting it now. [MUSIC_PLAY]"
	dispatcher.Scan(text)
	if len(collected) != 1 {
		t.Fatalf("expected one event, got %d", len(collected))
	}
	if music, ok := collected[0].(events.MusicCommand); !ok || music.Action != "play" || music.Track != "" {
		t.Fatalf("unexpected event %#v", collected[0])
	}
	if stripped := StripTags(text); stripped != "Sure, starting it now." {
		t.Fatalf("unexpected stripped text %q", stripped)
	}
}

func TestTagDispatcherSpanningDeltasDispatchesWhenComplete(t *testing.T) {
	count := 0
	dispatcher := newTagDispatcher(func(events.Event) { count++ })

	dispatcher.Scan("[OPEN_")
	if count != 0 {
		t.Fatalf("expected no dispatch for an incomplete tag")
	}
	dispatcher.Scan("[OPEN_PAGE:https://example.com]")
	if count != 1 {
		t.Fatalf("expected dispatch once the tag completed, got %d", count)
	}
}

func TestTagDispatcherIgnoresUnknownTags(t *testing.T) {
	count := 0
	dispatcher := newTagDispatcher(func(events.Event) { count++ })

	dispatcher.Scan("see [citation:12] and [SELF_DESTRUCT]")
	if count != 0 {
		t.Fatalf("expected unknown tags to be ignored, got %d events", count)
	}
}

func TestTagDispatcherIsCaseInsensitive(t *testing.T) {
	collected := []events.Event{}
	dispatcher := newTagDispatcher(func(event events.Event) {
		collected = append(collected, event)
	})

	dispatcher.Scan("[music_stop]")
	if len(collected) != 1 {
		t.Fatalf("expected one event, got %d", len(collected))
	}
	if music, ok := collected[0].(events.MusicCommand); !ok || music.Action != "stop" {
		t.Fatalf("unexpected event %#v", collected[0])
	}
}

func TestTagDispatcherResetTurnAllowsRedispatch(t *testing.T) {
	count := 0
	dispatcher := newTagDispatcher(func(events.Event) { count++ })

	dispatcher.Scan("[PAGE_PICKER]")
	dispatcher.resetTurn()
	dispatcher.Scan("[PAGE_PICKER]")
	if count != 2 {
		t.Fatalf("expected a fresh turn to dispatch again, got %d", count)
	}
}

func TestSoundEffectCooldownSpansTurns(t *testing.T) {
	collected := []events.Event{}
	dispatcher := newTagDispatcher(func(event events.Event) {
		collected = append(collected, event)
	})
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	dispatcher.now = func() time.Time { return current }

	dispatcher.Scan("[PLAY_SOUND:rimshot|drum]")
	dispatcher.resetTurn()
	current = current.Add(2 * time.Second)
	dispatcher.Scan("[PLAY_SOUND:airhorn|horn]")
	if len(collected) != 1 {
		t.Fatalf("expected the second sound to be suppressed, got %d events", len(collected))
	}

	dispatcher.resetTurn()
	current = current.Add(soundEffectCooldown)
	dispatcher.Scan("[PLAY_SOUND:airhorn|horn]")
	if len(collected) != 2 {
		t.Fatalf("expected the cooldown to expire, got %d events", len(collected))
	}
	sound, ok := collected[1].(events.SoundEffect)
	if !ok || sound.Sound != "airhorn" || sound.Type != "horn" {
		t.Fatalf("unexpected sound event %#v", collected[1])
	}
}

func TestStripTagsRemovesOnlyKnownKinds(t *testing.T) {
	text := "Playing it now [MUSIC_PLAY:jazz] see [citation:4] for details"
	stripped := StripTags(text)
	if stripped != "Playing it now see [citation:4] for details" {
		t.Fatalf("unexpected stripped text %q", stripped)
	}
}

func TestStripCodeFencesHandlesUnterminatedFence(t *testing.T) {
	if got := StripCodeFences("before ```go\ncode()\n``` after"); got != "before after" {
		t.Fatalf("unexpected text %q", got)
	}
	if got := StripCodeFences("streaming ```python\npartial"); got != "streaming" {
		t.Fatalf("expected a trailing fence to be dropped, got %q", got)
	}
}
