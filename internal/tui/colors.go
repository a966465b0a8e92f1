package tui

// Palette for the tally screens
const (
	ColorBorder = "#3A3F55" // Grey-blue

	// Text
	ColorPrimaryText   = "#E6EAF2"
	ColorSecondaryText = "#B1B8C7"
	ColorDisabledText  = "#6D7383"
	ColorHelpText      = "240" // ANSI dark grey

	// Accents
	ColorAccentMain   = "#0EA5E9" // Logo, selected row, clock digits
	ColorAccentBright = "#38BDF8" // Headers, highlighted values

	// State
	ColorError   = "#EF4444"
	ColorSuccess = "#22C55E" // Running
	ColorWarning = "#F59E0B" // Paused, prompts
)
