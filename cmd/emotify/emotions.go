package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vedikaaneesh/emotify/internal/mood"
)

func newEmotionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "emotions",
		Short: "List the recognized moods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			label := lipgloss.NewStyle().Width(10)
			for _, e := range mood.All() {
				g := mood.ColorFor(e)
				swatch := lipgloss.NewStyle().
					Foreground(lipgloss.Color(g.From)).
					Render(g.From + " → " + g.To)
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", e.Emoji(), label.Render(string(e)), swatch)
			}
			return nil
		},
	}
}

func emotionList() string {
	names := make([]string, 0, len(mood.All()))
	for _, e := range mood.All() {
		names = append(names, strings.ToLower(string(e)))
	}
	return strings.Join(names, ", ")
}
