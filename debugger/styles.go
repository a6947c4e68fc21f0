package debugger

import "github.com/charmbracelet/lipgloss"

type styles struct {
	instruction lipgloss.Style
	cpu         lipgloss.Style
	err         lipgloss.Style
	breakpoint  lipgloss.Style
}

func newStyles() styles {
	return styles{
		instruction: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(3)),
		cpu:         lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(4)),
		err:         lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(7)).Background(lipgloss.ANSIColor(1)),
		breakpoint:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(7)).Background(lipgloss.ANSIColor(4)),
	}
}
