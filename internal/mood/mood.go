// Package mood maps detected emotions to their presentation: a background
// gradient, a quote and a short spoken announcement.
package mood

import (
	"errors"
	"fmt"
	"strings"
)

// Emotion is one of the seven mood categories inferred from a face.
type Emotion string

// Recognized emotions, in the order the mood buttons are shown.
const (
	Unknown   Emotion = ""
	Happy     Emotion = "Happy"
	Sad       Emotion = "Sad"
	Surprised Emotion = "Surprised"
	Fearful   Emotion = "Fearful"
	Angry     Emotion = "Angry"
	Disgusted Emotion = "Disgusted"
	Neutral   Emotion = "Neutral"
)

// ErrUnknownEmotion is returned when a label does not name a recognized emotion.
var ErrUnknownEmotion = errors.New("unknown emotion")

var all = []Emotion{Happy, Sad, Surprised, Fearful, Angry, Disgusted, Neutral}

var emojis = map[Emotion]string{
	Happy:     "😀",
	Sad:       "😔",
	Surprised: "😲",
	Fearful:   "😨",
	Angry:     "😠",
	Disgusted: "🤢",
	Neutral:   "😶",
}

// All returns the recognized emotions in display order.
func All() []Emotion {
	out := make([]Emotion, len(all))
	copy(out, all)
	return out
}

// ParseEmotion resolves a label case-insensitively. Both display labels
// ("Happy") and the lowercase expression keys emitted by face models
// ("happy") are accepted.
func ParseEmotion(s string) (Emotion, error) {
	name := strings.TrimSpace(s)
	for _, e := range all {
		if strings.EqualFold(name, string(e)) {
			return e, nil
		}
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnknownEmotion, s)
}

// Valid reports whether e is one of the seven recognized emotions.
func (e Emotion) Valid() bool {
	_, ok := emojis[e]
	return ok
}

// Emoji returns the button emoji for e, or an empty string for Unknown.
func (e Emotion) Emoji() string {
	return emojis[e]
}

// String implements fmt.Stringer.
func (e Emotion) String() string {
	if e == Unknown {
		return "Unknown"
	}
	return string(e)
}

// Announcement is the phrase spoken when the mood changes.
func Announcement(e Emotion) string {
	if !e.Valid() {
		return ""
	}
	return fmt.Sprintf("Playing %s songs.", e)
}
