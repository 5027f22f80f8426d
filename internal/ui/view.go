package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"ultimate-tictactoe/internal/directory"
	"ultimate-tictactoe/internal/game"
	"ultimate-tictactoe/internal/styles"
)

func (m Model) View() string {
	// Blocking notices first
	if m.ConnLost {
		msg := "Connection closed"
		if m.Err != nil {
			msg += "\n" + styles.Subtle.Render(truncate.StringWithTail(m.Err.Error(), 50, "..."))
		}
		box := styles.PopupBox.Render(fmt.Sprintf("%s\n\n[Enter] Menu    [Q] Quit", msg))
		return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, box)
	}
	if m.PopupActive {
		box := styles.PopupBox.Render("Leave this match?\n\n[Y] Yes    [N] No")
		return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, box)
	}

	var content string
	var helpText string

	switch m.State {
	case StateLogin:
		content = renderLogin(m)
		helpText = "Tab: Next field • Enter: Submit • Ctrl+R: Switch login/register"

	case StateMenu:
		var renderedOpts []string
		for i, opt := range menuOptions(m) {
			if i == m.MenuIndex {
				renderedOpts = append(renderedOpts, styles.ItemFocused.Render(" "+opt+" "))
			} else {
				renderedOpts = append(renderedOpts, styles.ItemBlurred.Render(" "+opt+" "))
			}
		}
		greeting := ""
		if m.MyName != "" {
			greeting = styles.Subtle.Render("Signed in as " + m.MyName)
		}
		content = lipgloss.JoinVertical(lipgloss.Center,
			styles.Title.Render("ULTIMATE TIC-TAC-TOE"),
			greeting,
			lipgloss.JoinVertical(lipgloss.Left, renderedOpts...),
			renderErr(m),
		)
		helpText = "↑/↓: Navigate • Enter: Select"

	case StateMatchInput:
		content = lipgloss.JoinVertical(lipgloss.Center,
			styles.Title.Render("JOIN MATCH"),
			styles.ListContainer.Width(36).Render(
				styles.SearchBar.Render("> ")+m.TextInput.View(),
			),
			renderErr(m),
		)
		helpText = "Enter: Join • Esc: Back"

	case StateOpenMatches:
		content = lipgloss.JoinVertical(lipgloss.Center, renderOpenMatches(m), renderErr(m))
		helpText = "↑/↓: Navigate • Enter: Join • Type: Filter • Ctrl+R: Refresh • Esc: Back"

	case StateConnecting:
		content = lipgloss.JoinVertical(lipgloss.Center,
			styles.Title.Render("CONNECTING"),
			fmt.Sprintf("Match %s", styles.Accent.Render(m.MatchID)),
		)
		helpText = "Esc: Cancel"

	case StateWaiting:
		parts := []string{
			styles.Title.Render("WAITING"),
			fmt.Sprintf("MATCH: %s", styles.Accent.Render(m.MatchID)),
			"\nWaiting...",
		}
		if m.ShareQR != "" {
			parts = append(parts, styles.Subtle.Render("Share this match"), m.ShareQR)
		}
		content = lipgloss.JoinVertical(lipgloss.Center, parts...)
		helpText = "Esc: Leave"

	case StateGame:
		content = renderGame(m)
		helpText = "Arrows: Move • Tab: Active grid • Space: Place • Q: Leave"
	}

	// Combine Content + Help Footer
	finalView := lipgloss.JoinVertical(lipgloss.Center,
		content,
		"\n",
		styles.Subtle.Render(helpText),
	)

	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, finalView)
}

func renderErr(m Model) string {
	if m.Err == nil {
		return ""
	}
	return styles.Err.Render("\n" + m.Err.Error())
}

// --- Login ---

func renderLogin(m Model) string {
	title := "LOG IN"
	if m.Login.Registering {
		title = "REGISTER"
	}
	var fields []string
	for _, in := range m.Login.Inputs {
		fields = append(fields, styles.SearchBar.Render("> ")+in.View())
	}
	return lipgloss.JoinVertical(lipgloss.Center,
		styles.Title.Render(title),
		styles.ListContainer.Width(44).Render(lipgloss.JoinVertical(lipgloss.Left, fields...)),
		renderErr(m),
	)
}

// --- Open match list ---

func renderOpenMatches(m Model) string {
	listWidth := 58 // slightly less than container width (60)

	var listContent []string
	listContent = append(listContent, styles.SearchBar.Render("> ")+m.SearchInput.View())
	listContent = append(listContent, "")

	list := visibleMatches(m)
	listContent = append(listContent, renderSectionHeader(" Open Matches ", listWidth, fmt.Sprintf("%d found", len(list))))
	if len(list) == 0 {
		listContent = append(listContent, styles.Subtle.Render("  No open matches"))
	}
	for i, l := range list {
		listContent = append(listContent, renderListingItem(l, i == m.ListSelectedRow, listWidth))
	}

	inner := lipgloss.JoinVertical(lipgloss.Left, listContent...)
	return lipgloss.JoinVertical(lipgloss.Center,
		styles.Title.Render("OPEN MATCHES"),
		styles.ListContainer.Render(inner),
	)
}

func renderSectionHeader(text string, width int, info string) string {
	infoRendered := ""
	if info != "" {
		infoRendered = " " + styles.Subtle.Render(info)
	}
	titleRendered := styles.SectionTitle.Render(text)

	remaining := max(0, width-lipgloss.Width(titleRendered)-lipgloss.Width(infoRendered))
	line := styles.SectionLine.Render(strings.Repeat("─", remaining))
	return titleRendered + " " + line + infoRendered
}

func renderListingItem(l directory.Listing, focused bool, width int) string {
	name := l.MatchID
	if l.HostName != "" {
		name = fmt.Sprintf("%s's match", l.HostName)
	}

	style := styles.ItemBlurred
	infoStyle := styles.InfoTextBlurred
	if focused {
		style = styles.ItemFocused
		infoStyle = styles.InfoTextFocused
	}

	right := " " + l.MatchID + " "
	if !l.CreatedAt.IsZero() {
		right = fmt.Sprintf(" %s · %s ", l.MatchID, time.Since(l.CreatedAt).Round(time.Minute))
	}
	rightRendered := infoStyle.Render(right)
	rightWidth := lipgloss.Width(rightRendered)

	available := max(0, width-rightWidth-2)
	name = truncate.StringWithTail(name, uint(available), "...")

	gap := strings.Repeat(" ", max(0, width-lipgloss.Width(name)-rightWidth))
	return style.Render(name + gap + rightRendered)
}

// --- Game ---

func renderGame(m Model) string {
	s := m.Match

	header := fmt.Sprintf("You are %s", markStyle(s.Mark, false).Render(s.Mark.String()))

	turn := fmt.Sprintf("Player: %s", markStyle(s.Turn, false).Render(s.Turn.String()))
	if s.MyTurn() {
		turn = styles.YourTurn.Render(fmt.Sprintf(" Player: %s (You) ", s.Turn))
	}

	parts := []string{
		styles.Title.Render("ULTIMATE TIC-TAC-TOE"),
		header,
		"",
		renderBoard(m),
		"",
		turn,
	}
	if r, ok := s.Outcome(); ok {
		parts = append(parts, "", styles.ResultBox.Render(fmt.Sprintf("%s\n%s\n\n[Enter] OK", r, styles.Muted.Render(gridLabel(r.Grid)))))
	}
	if m.Err != nil {
		parts = append(parts, renderErr(m))
	}
	return lipgloss.JoinVertical(lipgloss.Center, parts...)
}

func gridLabel(grid int) string {
	c := game.CoordOf(grid)
	return fmt.Sprintf("grid %d (row %d, column %d)", grid, c.Y+1, c.X+1)
}

// renderBoard draws the nine sub-grids. The active one gets a thick
// border; the others are drawn faint and are not selectable.
func renderBoard(m Model) string {
	s := m.Match
	curGrid, curCell := m.cursor()

	var rows []string
	for gy := 0; gy < 3; gy++ {
		var cols []string
		for gx := 0; gx < 3; gx++ {
			grid := game.Coord{X: gx, Y: gy}.Index()
			active := s.IsActive(grid)

			var lines []string
			for cy := 0; cy < 3; cy++ {
				var cells []string
				for cx := 0; cx < 3; cx++ {
					cell := game.Coord{X: cx, Y: cy}
					style := styles.Cell
					if s.Annotations.OnLine(grid, cell.Index()) {
						style = styles.CellWin
					}
					if grid == curGrid && cell == curCell {
						style = styles.CellSelected
					}
					cells = append(cells, style.Render(renderMark(s.Board.Cell(grid, cell), !active)))
				}
				lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
			}

			box := styles.Grid
			switch r := s.Annotations.Grids[grid]; {
			case active:
				box = styles.GridActive
			case r.Outcome == game.Won && r.Mark == game.Cross:
				box = styles.GridWonCross
			case r.Outcome == game.Won && r.Mark == game.Circle:
				box = styles.GridWonCircle
			}
			cols = append(cols, box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderMark(v game.Mark, dim bool) string {
	switch v {
	case game.Cross:
		return markStyle(v, dim).Render("X")
	case game.Circle:
		return markStyle(v, dim).Render("O")
	}
	return styles.EmptyStyle.Render("·")
}

func markStyle(v game.Mark, dim bool) lipgloss.Style {
	switch {
	case v == game.Cross && dim:
		return styles.DimXStyle
	case v == game.Cross:
		return styles.XStyle
	case v == game.Circle && dim:
		return styles.DimOStyle
	case v == game.Circle:
		return styles.OStyle
	}
	return styles.Base
}
