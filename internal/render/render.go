// Package render formats analysis results for a terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/njchilds90/golimits/limits"
)

// Theme is passed to every renderer explicitly; nothing here reads global state.
type Theme struct {
	Title    lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Emphasis lipgloss.Style
	Error    lipgloss.Style
	Muted    lipgloss.Style
}

// DefaultTheme is the colored theme.
func DefaultTheme() Theme {
	return Theme{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Value:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Emphasis: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Muted:    lipgloss.NewStyle().Faint(true),
	}
}

// PlainTheme renders text without any styling.
func PlainTheme() Theme {
	s := lipgloss.NewStyle()
	return Theme{Title: s, Label: s, Value: s, Emphasis: s, Error: s, Muted: s}
}

func NewTheme(noColor bool) Theme {
	if noColor {
		return PlainTheme()
	}
	return DefaultTheme()
}

// Steps renders a numbered worked solution.
func Steps(th Theme, steps []limits.Step) string {
	var b strings.Builder
	for i, s := range steps {
		line := s.Text
		switch {
		case s.Error:
			line = th.Error.Render(s.String())
		case s.Result != "":
			style := th.Value
			if s.Emphasis {
				style = th.Emphasis
			}
			line = th.Label.Render(s.Text+" =") + " " + style.Render(s.Result)
		}
		fmt.Fprintf(&b, "%2d. %s\n", i+1, line)
	}
	return b.String()
}

// Continuity renders a continuity report as a small table.
func Continuity(th Theme, rep limits.ContinuityReport) string {
	var b strings.Builder
	row := func(label string, v limits.Value) {
		b.WriteString(th.Label.Render(fmt.Sprintf("  %-16s", label)))
		b.WriteString(th.Value.Render(v.Display))
		b.WriteByte('\n')
	}
	b.WriteString(th.Title.Render("Continuity at x = "+rep.Point.String()) + "\n")
	if !rep.Point.IsInfinite() {
		row("f("+rep.Point.String()+")", rep.FunctionValue)
	}
	row("left limit", rep.Left)
	row("right limit", rep.Right)
	row("two-sided limit", rep.TwoSided)
	verdict := th.Emphasis
	if !rep.Continuous {
		verdict = th.Error
	}
	b.WriteString(th.Label.Render(fmt.Sprintf("  %-16s", "verdict")) + verdict.Render(string(rep.Kind)) + "\n")
	return b.String()
}

// Analysis renders every expression of a.
func Analysis(th Theme, a *limits.Analysis) string {
	var b strings.Builder
	for i, r := range a.Results {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(th.Title.Render(fmt.Sprintf("f(x) = %s", r.Display)) + "\n")
		b.WriteString(th.Muted.Render("canonical: "+string(r.Canonical)) + "\n")
		b.WriteString(Steps(th, r.Steps))
		b.WriteString(Continuity(th, r.Continuity))
	}
	return b.String()
}

// Examples renders the catalog as an aligned list.
func Examples(th Theme, examples []limits.Example) string {
	var b strings.Builder
	for _, e := range examples {
		fmt.Fprintf(&b, "%s %s %s\n",
			th.Title.Render(fmt.Sprintf("%-18s", e.Name)),
			th.Value.Render(fmt.Sprintf("lim x→%-8s %s", e.Point, e.Expression)),
			th.Muted.Render(e.Description))
	}
	return b.String()
}
