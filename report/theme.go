package report

import "github.com/charmbracelet/lipgloss"

// Theme defines the colours used for pretty output.
type Theme struct {
	Primary lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Muted   lipgloss.Color
}

func DefaultTheme() Theme {
	return Theme{
		Primary: lipgloss.Color("#8A2BE2"), // BlueViolet
		Success: lipgloss.Color("#32CD32"), // LimeGreen
		Warning: lipgloss.Color("#FFD700"), // Gold
		Error:   lipgloss.Color("#FF6347"), // Tomato
		Muted:   lipgloss.Color("#808080"), // Gray
	}
}
