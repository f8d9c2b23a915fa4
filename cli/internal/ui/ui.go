// Package ui renders pulse output: status lines, result tables and compiled
// statements with their bound parameters.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

// Out and Err receive all output; tests swap them for buffers.
var (
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr
)

var (
	accent = lipgloss.Color("#00D9FF")
	muted  = lipgloss.Color("#6C757D")

	titleStyle   = lipgloss.NewStyle().Foreground(accent).Bold(true).MarginBottom(1)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF88")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB800")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(accent)

	paramName  = color.New(color.FgCyan)
	paramValue = color.New(color.FgYellow)
)

// Param is one bound statement parameter as shown to the user.
type Param struct {
	Name  string
	Value any
}

func width() int {
	if w := pterm.GetTerminalWidth(); w > 0 {
		return w
	}
	return 80
}

// Banner prints a boxed title, used by interactive commands.
func Banner(title, subtitle string) {
	box := lipgloss.NewStyle().
		Width(width()).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Center, titleStyle.Render(title), mutedStyle.Render(subtitle)))
	fmt.Fprintln(Out, box)
	fmt.Fprintln(Out)
}

func status(w io.Writer, style lipgloss.Style, mark, format string, args []any) {
	fmt.Fprintln(w, style.Render(mark+" "+fmt.Sprintf(format, args...)))
}

// Success reports a completed step.
func Success(format string, args ...any) { status(Out, successStyle, "✓", format, args) }

// Error reports a failure on Err.
func Error(format string, args ...any) { status(Err, errorStyle, "✗", format, args) }

// Warning reports something the user should look at.
func Warning(format string, args ...any) { status(Out, warningStyle, "⚠", format, args) }

// Info prints a neutral note.
func Info(format string, args ...any) { status(Out, infoStyle, "ℹ", format, args) }

// Table prints rows under headers.
func Table(headers []string, rows [][]string) error {
	data := append(pterm.TableData{headers}, rows...)
	return pterm.DefaultTable.WithHasHeader().WithWriter(Out).WithData(data).Render()
}

// Markdown renders a markdown document for the terminal.
func Markdown(doc string) error {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width()))
	if err != nil {
		return err
	}
	out, err := r.Render(doc)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(Out, out)
	return err
}

// Heading prints an underlined heading.
func Heading(title string) {
	fmt.Fprintln(Out, lipgloss.NewStyle().
		Width(width()).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(muted).
		Render(title))
}

// Statement prints one compiled statement in a box, then its parameters in
// binding order.
func Statement(title, sql string, params []Param) {
	fmt.Fprintln(Out, mutedStyle.Render("-- "+title))
	fmt.Fprintln(Out, lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(muted).
		Padding(0, 1).
		Width(width()-2).
		Render(sql))
	for _, p := range params {
		fmt.Fprintf(Out, "  %s = %s\n", paramName.Sprint(p.Name), paramValue.Sprintf("%#v", p.Value))
	}
}

// Steps prints a numbered list under title.
func Steps(title string, steps ...string) {
	fmt.Fprintln(Out)
	fmt.Fprintln(Out, titleStyle.UnsetMarginBottom().Render(title))
	for i, s := range steps {
		fmt.Fprintf(Out, "%d. %s\n", i+1, s)
	}
}
