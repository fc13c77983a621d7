package mood

import "fmt"

// Source supplies uniform random numbers in [0, 1).
// *math/rand/v2.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Gradient describes a two-stop linear background gradient.
type Gradient struct {
	Angle int    `json:"angle"` // degrees
	From  string `json:"from"`  // start color, hex
	To    string `json:"to"`    // end color, hex
}

// CSS renders the gradient as a CSS linear-gradient value.
func (g Gradient) CSS() string {
	return fmt.Sprintf("linear-gradient(%ddeg, %s 0%%, %s 100%%)", g.Angle, g.From, g.To)
}

const gradientAngle = 135

// DefaultGradient is used for Unknown and any unrecognized emotion.
var DefaultGradient = Gradient{Angle: gradientAngle, From: "#000000", To: "#434343"}

var gradients = map[Emotion]Gradient{
	Happy:     {Angle: gradientAngle, From: "#fceabb", To: "#f8b500"}, // yellow
	Sad:       {Angle: gradientAngle, From: "#89f7fe", To: "#66a6ff"}, // blue
	Surprised: {Angle: gradientAngle, From: "#ffecd2", To: "#fcb69f"}, // orange
	Fearful:   {Angle: gradientAngle, From: "#cbbacc", To: "#2580b3"}, // purple
	Angry:     {Angle: gradientAngle, From: "#ff0844", To: "#ffb199"}, // red
	Disgusted: {Angle: gradientAngle, From: "#76b852", To: "#8dc26f"}, // green
	Neutral:   {Angle: gradientAngle, From: "#e0eafc", To: "#cfdef3"}, // gray
}

// ColorFor returns the background gradient for e. It never fails: anything
// outside the seven recognized emotions gets DefaultGradient.
func ColorFor(e Emotion) Gradient {
	if g, ok := gradients[e]; ok {
		return g
	}
	return DefaultGradient
}

var quotes = map[Emotion][]string{
	Happy: {
		"Happiness is not something ready-made. It comes from your own actions.",
		"The purpose of our lives is to be happy.",
		"Happiness is a direction, not a place.",
	},
	Sad: {
		"Tears come from the heart and not from the brain.",
		"Every man has his secret sorrows which the world knows not.",
		"Sadness is but a wall between two gardens.",
	},
	Surprised: {
		"Surprise is the greatest gift which life can grant us.",
		"The unexpected is what makes life interesting.",
		"Sometimes you have to take a leap of faith.",
	},
	Fearful: {
		"The only thing we have to fear is fear itself.",
		"Do one thing every day that scares you.",
		"Fear is only as deep as the mind allows.",
	},
	Angry: {
		"For every minute you are angry you lose sixty seconds of happiness.",
		"Anger is a fuel that can take you anywhere.",
		"Holding onto anger is like drinking poison and expecting the other person to die.",
	},
	Disgusted: {
		"Disgust is the feeling of a disconnected mind and body.",
		"Disgust is the mother of morality.",
		"To be disgusted is to be human.",
	},
	Neutral: {
		"Sometimes, the most productive thing you can do is relax.",
		"Keep calm and carry on.",
		"Life is not about waiting for the storm to pass but learning to dance in the rain.",
	},
}

// Quotes returns a copy of the quote pool for e. Unknown emotions have none.
func Quotes(e Emotion) []string {
	pool := quotes[e]
	out := make([]string, len(pool))
	copy(out, pool)
	return out
}

// QuoteFor picks a uniformly random quote from the pool for e.
// An emotion without a pool yields "" rather than an error.
func QuoteFor(e Emotion, rng Source) string {
	pool := quotes[e]
	if len(pool) == 0 {
		return ""
	}
	i := int(rng.Float64() * float64(len(pool)))
	if i >= len(pool) {
		i = len(pool) - 1
	}
	return pool[i]
}

// Bundle is the presentation derived from the current mood.
type Bundle struct {
	Gradient Gradient `json:"gradient"`
	Quote    string   `json:"quote"`
}

// BundleFor derives the gradient and a random quote for e.
func BundleFor(e Emotion, rng Source) Bundle {
	return Bundle{
		Gradient: ColorFor(e),
		Quote:    QuoteFor(e, rng),
	}
}
