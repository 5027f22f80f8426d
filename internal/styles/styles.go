package styles

import "github.com/charmbracelet/lipgloss"

var (
	colorPurple    = lipgloss.Color("#a1a9f5") // Charple
	colorText      = lipgloss.Color("#b8c5d6") // Ash
	colorMuted     = lipgloss.Color("#5f6f7f") // Squid
	colorSubtle    = lipgloss.Color("#a8a9a9") // Oyster
	colorBorder    = lipgloss.Color("#3d4d5c") // Charcoal
	colorHighlight = lipgloss.Color("#e3b7ff") // Dolly
	colorGreen     = lipgloss.Color("#76b639")
	colorBgDark    = lipgloss.Color("#000000")
	colorCross     = lipgloss.Color("205")
	colorCircle    = lipgloss.Color("39")

	errColor     = lipgloss.AdaptiveColor{Light: "#F25D94", Dark: "#F55385"}
	specialColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
)

var (
	// --- Base Text ---
	Base   = lipgloss.NewStyle().Foreground(colorText)
	Subtle = lipgloss.NewStyle().Foreground(colorSubtle)
	Muted  = lipgloss.NewStyle().Foreground(colorMuted)
	Err    = lipgloss.NewStyle().Foreground(errColor)
	Accent = lipgloss.NewStyle().Foreground(colorHighlight).Bold(true)

	// --- Section / Headers ---
	SectionTitle    = lipgloss.NewStyle().Foreground(colorText)
	SectionLine     = lipgloss.NewStyle().Foreground(colorBorder)
	ItemBlurred     = lipgloss.NewStyle().Padding(0, 1).Foreground(colorText)
	ItemFocused     = lipgloss.NewStyle().Padding(0, 1).Background(colorPurple).Foreground(colorBgDark)
	InfoTextBlurred = lipgloss.NewStyle().Foreground(colorSubtle)
	InfoTextFocused = lipgloss.NewStyle().Foreground(colorBgDark) // Dark text on purple bg

	Title = lipgloss.NewStyle().
		Foreground(colorGreen).Bold(true).
		Background(lipgloss.Color("235")).
		Padding(0, 7).
		MarginBottom(1)

	ListContainer = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPurple).
			Padding(0, 1).
			Width(60)

	// Search bar with NO border (just text style)
	SearchBar = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true)

	// --- Game Board ---
	Cell = lipgloss.NewStyle().Width(3).Align(lipgloss.Center)

	CellSelected = Cell.Copy().Background(colorPurple).Foreground(colorBgDark)

	CellWin = Cell.Copy().Background(lipgloss.Color("22"))

	Grid = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(colorBorder)

	GridActive = Grid.Copy().
			Border(lipgloss.ThickBorder()).
			BorderForeground(colorPurple)

	GridWonCross  = Grid.Copy().BorderForeground(colorCross)
	GridWonCircle = Grid.Copy().BorderForeground(colorCircle)

	XStyle     = lipgloss.NewStyle().Foreground(colorCross).Bold(true)
	OStyle     = lipgloss.NewStyle().Foreground(colorCircle).Bold(true)
	DimXStyle  = lipgloss.NewStyle().Foreground(colorCross).Faint(true)
	DimOStyle  = lipgloss.NewStyle().Foreground(colorCircle).Faint(true)
	EmptyStyle = lipgloss.NewStyle().Foreground(colorMuted)

	YourTurn = lipgloss.NewStyle().
			Background(specialColor).
			Foreground(lipgloss.Color("235")).
			Bold(true).
			Padding(0, 1)

	PopupBox = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("#F25D94")).
			Padding(1, 2).
			Align(lipgloss.Center, lipgloss.Center)

	ResultBox = PopupBox.Copy().BorderForeground(colorGreen)
)
