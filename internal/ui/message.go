package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/moody/internal/gallery"
	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/profile"
	"github.com/desertthunder/moody/internal/search"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProfileLoaded MsgKind = iota
	MsgMoodGenerated
	MsgSearchCompleted
	MsgProfileSaved
	MsgRefresh
)

type profileLoaded struct {
	profile *models.ProfileResponse
	err     error
}

type moodGenerated struct {
	entry gallery.Entry
	err   error
}

type searchCompleted struct {
	source  Source
	ticket  search.Ticket
	results []search.Result
	err     error
}

type profileSaved struct {
	report profile.Report
	err    error
}

// profileLoadedMsg is the constructor for [MsgProfileLoaded]
func profileLoadedMsg(p *models.ProfileResponse, err error) Msg {
	return Msg{kind: MsgProfileLoaded, data: profileLoaded{p, err}}
}

// moodGeneratedMsg is the constructor for [MsgMoodGenerated]
func moodGeneratedMsg(entry gallery.Entry, err error) Msg {
	return Msg{kind: MsgMoodGenerated, data: moodGenerated{entry, err}}
}

// searchCompletedMsg is the constructor for [MsgSearchCompleted]
func searchCompletedMsg(src Source, t search.Ticket, results []search.Result, err error) Msg {
	return Msg{kind: MsgSearchCompleted, data: searchCompleted{src, t, results, err}}
}

// profileSavedMsg is the constructor for [MsgProfileSaved]
func profileSavedMsg(report profile.Report, err error) Msg {
	return Msg{kind: MsgProfileSaved, data: profileSaved{report, err}}
}

// refreshMsg is the constructor for [MsgRefresh]
func refreshMsg() Msg {
	return Msg{kind: MsgRefresh}
}
