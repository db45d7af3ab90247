package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/satishbabariya/dbal/query/lexer"
)

var (
	// Colors
	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	SecondaryColor = lipgloss.Color("#6C757D")

	// Styles
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)
)

// Status lines go to stdout; errors to stderr.
func PrintSuccess(format string, args ...any) {
	fmt.Println(SuccessStyle.Render("✓ " + fmt.Sprintf(format, args...)))
}

func PrintError(format string, args ...any) {
	fmt.Fprintln(os.Stderr, ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

func PrintWarning(format string, args ...any) {
	fmt.Println(WarningStyle.Render("⚠ " + fmt.Sprintf(format, args...)))
}

func PrintInfo(format string, args ...any) {
	fmt.Println(InfoStyle.Render("ℹ " + fmt.Sprintf(format, args...)))
}

// PrintSection prints a dimmed section header underlined to the terminal
// width.
func PrintSection(w io.Writer, title string) {
	width := 80
	if tw := pterm.GetTerminalWidth(); tw > 0 {
		width = tw
	}
	section := lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(SecondaryColor).
		Render(title)
	fmt.Fprintln(w, section)
}

// PrintTable renders rows under headers.
func PrintTable(w io.Writer, headers []string, rows [][]string) error {
	data := pterm.TableData{headers}
	data = append(data, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// PrintMarkdown renders markdown content for the terminal.
func PrintMarkdown(w io.Writer, content string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(content)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}

var tokenColors = map[lexer.Kind]*color.Color{
	lexer.Comment:     color.New(color.FgHiBlack),
	lexer.String:      color.New(color.FgGreen),
	lexer.QuotedIdent: color.New(color.FgCyan),
	lexer.Param:       color.New(color.FgMagenta, color.Bold),
	lexer.Positional:  color.New(color.FgMagenta, color.Bold),
	lexer.Number:      color.New(color.FgYellow),
	lexer.Operator:    color.New(color.FgRed),
}

// Highlight colors SQL tokens by kind. Colors are dropped when stdout is
// not a terminal.
func Highlight(tokens []lexer.Token) string {
	keyword := color.New(color.FgBlue, color.Bold)
	var b strings.Builder
	for _, t := range tokens {
		switch c, ok := tokenColors[t.Kind]; {
		case ok:
			b.WriteString(c.Sprint(t.Text))
		case t.Kind == lexer.Word && isKeyword(t.Text):
			b.WriteString(keyword.Sprint(t.Text))
		default:
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// TokenColor returns the printer used for a token kind.
func TokenColor(k lexer.Kind) *color.Color {
	if c, ok := tokenColors[k]; ok {
		return c
	}
	return color.New(color.Reset)
}
