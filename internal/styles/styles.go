// Package styles holds the lipgloss palette and the shared styles built on
// it.
package styles

import "github.com/charmbracelet/lipgloss"

// Color palette, dark theme.
var (
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#3B82F6") // Blue
	Accent    = lipgloss.Color("#F59E0B") // Amber

	Success = lipgloss.Color("#10B981") // Green
	Warning = lipgloss.Color("#F59E0B") // Amber
	Error   = lipgloss.Color("#EF4444") // Red

	TextPrimary   = lipgloss.Color("#F9FAFB")
	TextSecondary = lipgloss.Color("#9CA3AF")
	TextMuted     = lipgloss.Color("#6B7280")

	BgSecondary = lipgloss.Color("#1F2937")
	BgTertiary  = lipgloss.Color("#374151")

	BorderNormal = lipgloss.Color("#374151")
	BorderActive = lipgloss.Color("#7C3AED")

	DiffAddFg    = lipgloss.Color("#10B981")
	DiffRemoveFg = lipgloss.Color("#EF4444")
)

// Panel styles
var (
	PanelActive = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderActive)

	PanelInactive = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderNormal)

	PanelTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextPrimary)
)

// Text styles
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary)

	Body = lipgloss.NewStyle().
		Foreground(TextPrimary)

	Muted = lipgloss.NewStyle().
		Foreground(TextMuted)

	ErrorText = lipgloss.NewStyle().
			Foreground(Error)

	Hash = lipgloss.NewStyle().
		Foreground(Accent)

	TagLabel = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	Spinner = lipgloss.NewStyle().
		Foreground(Primary)
)

// Status indicator styles
var (
	StatusStaged = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	StatusModified = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	StatusUntracked = lipgloss.NewStyle().
			Foreground(TextSecondary)

	StatusDeleted = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// List item styles
var (
	ListItemNormal = lipgloss.NewStyle().
			Foreground(TextPrimary)

	ListItemSelected = lipgloss.NewStyle().
				Foreground(TextPrimary).
				Background(BgTertiary)

	ListCursor = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)
)

// Diff line styles
var (
	DiffAdd = lipgloss.NewStyle().
		Foreground(DiffAddFg)

	DiffRemove = lipgloss.NewStyle().
			Foreground(DiffRemoveFg)

	DiffContext = lipgloss.NewStyle().
			Foreground(TextSecondary)

	DiffHunk = lipgloss.NewStyle().
			Foreground(Secondary)

	DiffHeader = lipgloss.NewStyle().
			Foreground(TextMuted).
			Bold(true)

	LineNumber = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// Header and footer bars
var (
	Header = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(BgSecondary)

	Footer = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(BgSecondary)

	BarText = lipgloss.NewStyle().
		Foreground(TextSecondary)
)

// Toast styles
var (
	ToastSuccess = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(Success).
			Padding(0, 1)

	ToastError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(Error).
			Padding(0, 1)
)

var (
	tabActive = lipgloss.NewStyle().
			Foreground(TextPrimary).
			Background(Primary).
			Bold(true).
			Padding(0, 1)

	tabInactive = lipgloss.NewStyle().
			Foreground(TextMuted).
			Background(BgTertiary).
			Padding(0, 1)
)

// RenderTab renders a tab label.
func RenderTab(label string, active bool) string {
	if active {
		return tabActive.Render(label)
	}
	return tabInactive.Render(label)
}

// StatusStyle returns the style for a one-letter git status code.
func StatusStyle(code string, staged bool) lipgloss.Style {
	switch {
	case code == "?":
		return StatusUntracked
	case code == "D":
		return StatusDeleted
	case staged:
		return StatusStaged
	default:
		return StatusModified
	}
}
