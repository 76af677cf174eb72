package tui

import "github.com/charmbracelet/lipgloss"

var (
	mineColor   = lipgloss.Color("75")
	otherColor  = lipgloss.Color("213")
	metaColor   = lipgloss.Color("242")
	statusColor = lipgloss.Color("241")
	noticeColor = lipgloss.Color("203")
	inputBg     = lipgloss.Color("236")

	mineNameStyle  = lipgloss.NewStyle().Foreground(mineColor).Bold(true)
	otherNameStyle = lipgloss.NewStyle().Foreground(otherColor).Bold(true)
	metaStyle      = lipgloss.NewStyle().Foreground(metaColor)
	quoteStyle     = lipgloss.NewStyle().Foreground(metaColor).Italic(true)
	attachStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("186"))
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(statusColor)
	noticeStyle    = lipgloss.NewStyle().
			Foreground(noticeColor).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(noticeColor).
			Padding(0, 1)
	inputStyle = lipgloss.NewStyle().Background(inputBg)
)
