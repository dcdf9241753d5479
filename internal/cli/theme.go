package cli

import "github.com/charmbracelet/lipgloss"

var (
	Pink      = lipgloss.Color("#FF5FAF")
	Cyan      = lipgloss.Color("#00D4AA")
	Amber     = lipgloss.Color("#FFB000")
	Red       = lipgloss.Color("#FF5555")
	LightGray = lipgloss.Color("#aaaaaa")
	White     = lipgloss.Color("#e0e0e0")

	BannerStyle = lipgloss.NewStyle().
			Foreground(Pink).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Pink).
			Padding(0, 2)

	UserLabelStyle = lipgloss.NewStyle().
			Foreground(Cyan).
			Bold(true)

	AssistantLabelStyle = lipgloss.NewStyle().
				Foreground(Pink).
				Bold(true)

	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	ContentStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false).
			BorderForeground(LightGray).
			Padding(0, 1)

	HashtagStyle = lipgloss.NewStyle().
			Foreground(Cyan)

	DimStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	WarnStyle = lipgloss.NewStyle().
			Foreground(Amber)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)
)
