// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette shared by every command's output.
const (
	// ColorPrimary is purple, for titles and module names.
	ColorPrimary = lipgloss.Color("#7C3AED")
	// ColorMuted is gray, for subtitles and skipped operations.
	ColorMuted = lipgloss.Color("#6B7280")
	// ColorSuccess is green, for applied operations.
	ColorSuccess = lipgloss.Color("#10B981")
	// ColorError is red, for failed operations.
	ColorError = lipgloss.Color("#EF4444")
	// ColorWarning is amber, for cancellations and warnings.
	ColorWarning = lipgloss.Color("#F59E0B")
	// ColorHighlight is blue, for paths, keys and commands.
	ColorHighlight = lipgloss.Color("#3B82F6")
	// ColorVerbose is light gray, for verbose details.
	ColorVerbose = lipgloss.Color("#9CA3AF")
)

var (
	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	SubtitleStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	SuccessStyle  = lipgloss.NewStyle().Foreground(ColorSuccess)
	ErrorStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorError)
	WarningStyle  = lipgloss.NewStyle().Foreground(ColorWarning)
	CmdStyle      = lipgloss.NewStyle().Foreground(ColorHighlight)
	VerboseStyle  = lipgloss.NewStyle().Foreground(ColorVerbose)

	// promptStyle renders dependency questions in the console session.
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorHighlight)
)
