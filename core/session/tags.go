package session

import (
	"regexp"
	"strings"
	"time"

	"github.com/voxshell/voxshell-core/core/events"
)

// TagKind identifies one bracketed command directive embedded in
// response text. The vocabulary is fixed: unknown bracketed tokens are
// left in place, neither stripped nor actioned.
type TagKind string

const (
	TagOpenPage   TagKind = "OPEN_PAGE"
	TagPagePicker TagKind = "PAGE_PICKER"
	TagMusicPlay  TagKind = "MUSIC_PLAY"
	TagMusicStop  TagKind = "MUSIC_STOP"
	TagMusicSkip  TagKind = "MUSIC_SKIP"
	TagPlaySound  TagKind = "PLAY_SOUND"
	TagPassive    TagKind = "PASSIVE_MODE"
	TagEnrollFace TagKind = "ENROLL_FACE"
	TagGenerate   TagKind = "GENERATE_MEDIA"
	TagStreamPlay TagKind = "STREAM_PLAY"
)

var knownTagKinds = map[TagKind]struct{}{
	TagOpenPage:   {},
	TagPagePicker: {},
	TagMusicPlay:  {},
	TagMusicStop:  {},
	TagMusicSkip:  {},
	TagPlaySound:  {},
	TagPassive:    {},
	TagEnrollFace: {},
	TagGenerate:   {},
	TagStreamPlay: {},
}

// Grammar: [KIND], [KIND:ARG] or [KIND:ARG1|ARG2], case-insensitive.
var tagPattern = regexp.MustCompile(`\[([A-Za-z_]+)(?::([^\[\]]*))?\]`)

var codeFencePattern = regexp.MustCompile("(?s)```.*?(```|$)")

const soundEffectCooldown = 5 * time.Second

// tagDispatcher runs command-tag detection over incrementally revealed
// response text. Each tag kind is actioned at most once per turn, no
// matter how many deltas it spans or how often it repeats.
type tagDispatcher struct {
	emit       func(events.Event)
	dispatched map[TagKind]struct{}

	// lastSoundAt rate-limits sound effects across turns.
	lastSoundAt time.Time
	now         func() time.Time
}

func newTagDispatcher(emit func(events.Event)) *tagDispatcher {
	return &tagDispatcher{
		emit:       emit,
		dispatched: map[TagKind]struct{}{},
		now:        time.Now,
	}
}

// resetTurn clears the per-turn dispatch set. Sound-effect cooldown
// state deliberately survives across turns.
func (d *tagDispatcher) resetTurn() {
	d.dispatched = map[TagKind]struct{}{}
}

// Scan detects every syntactically complete tag in text and dispatches
// the kinds not yet actioned this turn. Safe to call on every delta
// with the cumulative text-so-far; also called once more on the final
// payload to catch tags that only completed there.
func (d *tagDispatcher) Scan(text string) {
	for _, match := range tagPattern.FindAllStringSubmatch(text, -1) {
		kind := TagKind(strings.ToUpper(match[1]))
		if _, known := knownTagKinds[kind]; !known {
			continue
		}
		if _, done := d.dispatched[kind]; done {
			continue
		}

		if event, ok := d.eventFor(kind, match[2]); ok {
			d.dispatched[kind] = struct{}{}
			d.emit(event)
		}
	}
}

func (d *tagDispatcher) eventFor(kind TagKind, rawArgs string) (events.Event, bool) {
	args := strings.Split(rawArgs, "|")
	arg := func(i int) string {
		if i < len(args) {
			return strings.TrimSpace(args[i])
		}
		return ""
	}

	switch kind {
	case TagOpenPage:
		return events.NewCanvasCommand("open", arg(0)), true
	case TagPagePicker:
		return events.NewCanvasPagePick(), true
	case TagMusicPlay:
		return events.NewMusicCommand("play", arg(0)), true
	case TagMusicStop:
		return events.NewMusicCommand("stop", ""), true
	case TagMusicSkip:
		return events.NewMusicCommand("skip", ""), true
	case TagPlaySound:
		if since := d.now().Sub(d.lastSoundAt); since < soundEffectCooldown {
			logger.Debug("sound effect suppressed by cooldown", "remaining", (soundEffectCooldown - since).String())
			return nil, false
		}
		d.lastSoundAt = d.now()
		return events.NewSoundEffect(arg(0), arg(1)), true
	case TagPassive:
		return events.NewPassiveRequest(), true
	case TagEnrollFace:
		return events.NewFaceEnroll(arg(0)), true
	case TagGenerate:
		return events.NewMediaGenerate(rawArgs), true
	case TagStreamPlay:
		return events.NewStreamRequest(arg(0), arg(1)), true
	}

	return nil, false
}

// StripTags removes every recognized command tag from text. Unknown
// bracketed tokens stay: the stripper only knows the fixed vocabulary.
func StripTags(text string) string {
	stripped := tagPattern.ReplaceAllStringFunc(text, func(match string) string {
		submatch := tagPattern.FindStringSubmatch(match)
		if _, known := knownTagKinds[TagKind(strings.ToUpper(submatch[1]))]; known {
			return ""
		}
		return match
	})
	return collapseSpaces(stripped)
}

// StripCodeFences removes fenced code blocks from display text,
// including an unterminated trailing fence still being streamed.
func StripCodeFences(text string) string {
	return collapseSpaces(codeFencePattern.ReplaceAllString(text, ""))
}

func collapseSpaces(text string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(text), " "))
}
