package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/profile"
)

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	var helpKeys []key.Binding
	switch m.view {
	case SearchView:
		body = m.renderSearch()
		helpKeys = []key.Binding{m.keys.up, m.keys.down, m.keys.source, m.keys.enter, m.keys.next, m.keys.quit}
	case ProfileView:
		body = m.renderProfile()
		helpKeys = []key.Binding{m.keys.up, m.keys.down, m.keys.save, m.keys.reset, m.keys.next, m.keys.quit}
	default:
		body = m.renderGallery()
		helpKeys = []key.Binding{m.keys.enter, m.keys.next, m.keys.quit}
	}

	return fmt.Sprintf("%s\n%s\n%s\n\n%s", m.renderTabs(), body, m.renderStatus(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderTabs() string {
	tabs := make([]string, 0, viewCount)
	for v := GalleryView; v < viewCount; v++ {
		if v == m.view {
			tabs = append(tabs, m.palette.title.Render(v.String()))
		} else {
			tabs = append(tabs, m.palette.muted.Render(v.String()))
		}
	}
	return strings.Join(tabs, m.palette.muted.Render("  │  "))
}

func (m *Model) renderStatus() string {
	switch {
	case m.err != nil:
		return m.palette.err.Render("Error: " + m.err.Error())
	case m.status != "":
		return m.palette.ok.Render(m.status)
	}
	return ""
}

func (m *Model) renderGallery() string {
	var b strings.Builder
	b.WriteString(m.moodInput.View())
	b.WriteString("\n\n")

	entries := m.gallery.Entries()
	if len(entries) == 0 {
		b.WriteString(m.palette.help.Render("No moods yet. Type one and press enter."))
		return b.String()
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %s", e.CreatedAt.Format("15:04:05"), e.Mood)
		if m.gallery.IsNew(e.ID) {
			b.WriteString(m.palette.fresh.Render(freshMark + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderSearch() string {
	box := m.boxes[m.source]
	var b strings.Builder
	b.WriteString(m.queryInput.View())
	if box.Pending() {
		b.WriteString(m.palette.muted.Render("  searching..."))
	}
	b.WriteString("\n\n")

	if err := box.Err(); err != nil {
		b.WriteString(m.palette.warn.Render("search failed: " + err.Error()))
		b.WriteString("\n")
	}
	if len(m.results.Items()) == 0 && strings.TrimSpace(box.Query()) != "" && !box.Pending() {
		b.WriteString(m.palette.help.Render("No matches."))
		return b.String()
	}
	b.WriteString(m.results.View())
	return b.String()
}

func (m *Model) renderProfile() string {
	if m.draft == nil {
		return m.palette.help.Render("Loading profile...")
	}

	var b strings.Builder
	for i, in := range m.inputs {
		line := in.View()
		if editable[i] == profile.FieldColor {
			line += "  " + m.palette.accent.Render("██")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	favorites := m.draft.Favorites()
	fmt.Fprintf(&b, "\nFavorites (%d/%d): ", favorites.Len(), models.MaxFavorites)
	if favorites.Len() == 0 {
		b.WriteString(m.palette.help.Render("pick artists in the search view"))
	} else {
		b.WriteString(strings.Join(favorites.Items(), ", "))
	}
	b.WriteString("\n")

	if m.draft.Dirty() {
		b.WriteString(m.palette.warn.Render("● unsaved changes"))
	} else {
		b.WriteString(m.palette.muted.Render("all changes saved"))
	}
	return b.String()
}
