// Package clistyle holds the terminal styles shared by the voiceagent
// client commands.
package clistyle

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Label is used for the left-hand column of key/value output.
	Label = lipgloss.NewStyle().Bold(true).Width(9)

	User      = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	Assistant = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	Muted     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Field renders "label  value" with the label padded to a fixed width.
func Field(label, value string) string {
	return Label.Render(label) + value
}

// Role styles a transcript role label.
func Role(role string) string {
	switch role {
	case "user":
		return User.Render("User")
	case "assistant":
		return Assistant.Render("Assistant")
	default:
		return role
	}
}
