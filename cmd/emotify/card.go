package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/vedikaaneesh/emotify/internal/session"
)

// renderCard draws a recommendation as a bordered card. Each line is tinted
// a step further along the mood gradient.
func renderCard(v session.View) string {
	lines := []string{
		fmt.Sprintf("%s %s · %s", v.Emotion.Emoji(), v.Emotion, v.Weather),
		"",
	}
	for i, t := range v.Tracks {
		line := fmt.Sprintf("%d. %s - %s", i+1, t.Title, t.Artist)
		if t.URL != "" {
			line += "  " + t.URL
		}
		lines = append(lines, line)
	}
	if v.Quote != "" {
		lines = append(lines, "", "“"+v.Quote+"”")
	}

	shades := blend(v.Gradient.From, v.Gradient.To, len(lines))
	styled := make([]string, len(lines))
	for i, line := range lines {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(shades[i]))
		if i == 0 {
			style = style.Bold(true)
		}
		if strings.HasPrefix(line, "“") {
			style = style.Italic(true)
		}
		styled[i] = style.Render(line)
	}

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(v.Gradient.To)).
		Padding(1, 2)
	return card.Render(lipgloss.JoinVertical(lipgloss.Left, styled...))
}

// blend returns n hex colors evenly spaced from one color to another.
// Unparseable colors fall back to the start color unchanged.
func blend(from, to string, n int) []string {
	out := make([]string, n)
	start, err1 := colorful.Hex(from)
	end, err2 := colorful.Hex(to)
	for i := range out {
		if err1 != nil || err2 != nil || n == 1 {
			out[i] = from
			continue
		}
		out[i] = start.BlendLab(end, float64(i)/float64(n-1)).Hex()
	}
	return out
}
