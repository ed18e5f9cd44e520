package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/moody/internal/theme"
)

const (
	okColor   = "#04B575"
	errColor  = "#FF0000"
	warnColor = "#FFA500"
	helpColor = "#626262"
)

// Palette is a simple stylesheet built with named [lipgloss.Style] fields.
type Palette struct {
	title  lipgloss.Style
	accent lipgloss.Style
	fresh  lipgloss.Style
	muted  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
}

// NewPalette derives a stylesheet from a profile theme. Status colors are fixed.
func NewPalette(t theme.Theme) *Palette {
	return &Palette{
		title:  NewBold(t.Primary.Hex()).MarginBottom(1),
		accent: NewStyle(t.Secondary.Hex()),
		fresh:  NewBold(t.ButtonPrimary.Hex()),
		muted:  NewStyle(t.Muted.Hex()),
		ok:     NewBold(okColor),
		err:    NewBold(errColor),
		warn:   NewStyle(warnColor),
		help:   NewEm(helpColor),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
