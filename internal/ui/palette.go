// Package ui renders terminal output: colors, aligned tables, and step
// progress for workflows.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ColorMode selects when output is colored.
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// ParseColorMode parses auto, always, or never.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return 0, fmt.Errorf("invalid color mode %q (must be auto, always, or never)", s)
	}
}

func (m ColorMode) String() string {
	switch m {
	case ColorAlways:
		return "always"
	case ColorNever:
		return "never"
	default:
		return "auto"
	}
}

var (
	colorAccent = lipgloss.Color("#20B9B4")
	colorOK     = lipgloss.Color("#2CD7C7")
	colorWarn   = lipgloss.Color("#F4D03F")
	colorError  = lipgloss.Color("#E74C3C")
	colorMuted  = lipgloss.Color("#5C7A84")
)

// Palette styles text for one output stream. A disabled palette returns its
// input unchanged.
type Palette struct {
	enabled bool

	header lipgloss.Style
	name   lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	err    lipgloss.Style
	muted  lipgloss.Style
}

// NewPalette builds a palette for w. In auto mode color is used only when w
// is a terminal and NO_COLOR is unset.
func NewPalette(w io.Writer, mode ColorMode) *Palette {
	enabled := false
	switch mode {
	case ColorAlways:
		enabled = true
	case ColorAuto:
		enabled = IsTerminal(w) && os.Getenv("NO_COLOR") == ""
	}

	r := lipgloss.NewRenderer(w)
	if enabled {
		r.SetColorProfile(termenv.TrueColor)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Palette{
		enabled: enabled,
		header:  r.NewStyle().Bold(true).Foreground(colorAccent),
		name:    r.NewStyle().Bold(true),
		ok:      r.NewStyle().Foreground(colorOK),
		warn:    r.NewStyle().Foreground(colorWarn),
		err:     r.NewStyle().Foreground(colorError).Bold(true),
		muted:   r.NewStyle().Foreground(colorMuted),
	}
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w any) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

// Enabled reports whether the palette emits escape sequences.
func (p *Palette) Enabled() bool { return p.enabled }

func (p *Palette) render(s lipgloss.Style, text string) string {
	if !p.enabled {
		return text
	}
	return s.Render(text)
}

// Header styles table headers and section titles.
func (p *Palette) Header(s string) string { return p.render(p.header, s) }

// Name styles package and feature names.
func (p *Palette) Name(s string) string { return p.render(p.name, s) }

// OK styles success messages.
func (p *Palette) OK(s string) string { return p.render(p.ok, s) }

// Warn styles findings.
func (p *Palette) Warn(s string) string { return p.render(p.warn, s) }

// Error styles failures.
func (p *Palette) Error(s string) string { return p.render(p.err, s) }

// Muted styles secondary detail such as timings and paths.
func (p *Palette) Muted(s string) string { return p.render(p.muted, s) }
