package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/moody/internal/gallery"
	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/profile"
	"github.com/desertthunder/moody/internal/search"
	"github.com/desertthunder/moody/internal/theme"
)

// refreshInterval is how often the screen is redrawn while a marker is live.
const refreshInterval = 100 * time.Millisecond

// ViewState represents the current view in the TUI.
type ViewState int

const (
	GalleryView ViewState = iota
	SearchView
	ProfileView
	viewCount
)

func (v ViewState) String() string {
	switch v {
	case SearchView:
		return "Search"
	case ProfileView:
		return "Profile"
	default:
		return "Moods"
	}
}

// Source selects what the search view looks up.
type Source int

const (
	ProfileSource Source = iota
	ArtistSource
)

func (s Source) String() string {
	if s == ArtistSource {
		return "artists"
	}
	return "profiles"
}

// Backend is the subset of the API client used by the TUI.
type Backend interface {
	profile.API
	Profile(ctx context.Context) (*models.ProfileResponse, error)
	GenerateMood(ctx context.Context, mood string) error
	ProfileSearcher() search.Searcher
}

// editable lists the profile fields in display order.
var editable = []profile.Field{
	profile.FieldUsername,
	profile.FieldBio,
	profile.FieldColor,
	profile.FieldFirstName,
	profile.FieldLastName,
	profile.FieldPassword,
	profile.FieldConfirm,
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	backend Backend
	view    ViewState
	width   int
	height  int
	palette *Palette
	help    help.Model
	keys    keyMap

	gallery    *gallery.Gallery
	moodInput  textinput.Model
	generating bool

	boxes      [2]*search.Box
	searchers  [2]search.Searcher
	source     Source
	queryInput textinput.Model
	results    list.Model

	draft   *profile.Draft
	saver   *profile.Saver
	inputs  []textinput.Model
	focus   int
	saving  bool
	onColor func(theme.Color)

	ticking bool
	status  string
	err     error
}

type config struct {
	theme       theme.Theme
	strategy    profile.Strategy
	artists     search.Searcher
	galleryOpts []gallery.Option
	boxOpts     []search.BoxOption
	onColor     func(theme.Color)
}

// Option configures a [Model].
type Option func(*config)

// WithTheme sets the initial palette theme.
func WithTheme(t theme.Theme) Option {
	return func(c *config) { c.theme = t }
}

// WithStrategy selects how profile changes are saved.
func WithStrategy(s profile.Strategy) Option {
	return func(c *config) { c.strategy = s }
}

// WithArtists replaces the artist searcher. The default looks up [search.DefaultArtists].
func WithArtists(s search.Searcher) Option {
	return func(c *config) { c.artists = s }
}

// WithGalleryOptions passes options to the mood gallery.
func WithGalleryOptions(opts ...gallery.Option) Option {
	return func(c *config) { c.galleryOpts = append(c.galleryOpts, opts...) }
}

// WithBoxOptions passes options to both search boxes.
func WithBoxOptions(opts ...search.BoxOption) Option {
	return func(c *config) { c.boxOpts = append(c.boxOpts, opts...) }
}

// WithColorHook runs fn after a save changes the theme color.
func WithColorHook(fn func(theme.Color)) Option {
	return func(c *config) { c.onColor = fn }
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, backend Backend, opts ...Option) *Model {
	cfg := config{theme: theme.Derive(""), strategy: profile.Composite}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.artists == nil {
		cfg.artists = search.NewLocalSearcher(search.DefaultArtists...)
	}

	m := &Model{
		ctx:       ctx,
		backend:   backend,
		view:      GalleryView,
		palette:   NewPalette(cfg.theme),
		help:      help.New(),
		keys:      newKeyMap(),
		gallery:   gallery.New(cfg.galleryOpts...),
		searchers: [2]search.Searcher{backend.ProfileSearcher(), cfg.artists},
		saver:     profile.NewSaver(backend, cfg.strategy),
		onColor:   cfg.onColor,
	}
	for i, s := range m.searchers {
		m.boxes[i] = search.NewBox(s, cfg.boxOpts...)
	}

	m.moodInput = textinput.New()
	m.moodInput.Placeholder = "how are you feeling?"
	m.moodInput.CharLimit = 64
	m.moodInput.Focus()

	m.queryInput = textinput.New()
	m.queryInput.Placeholder = "search"
	m.queryInput.CharLimit = 64

	m.results = list.New(nil, list.NewDefaultDelegate(), 60, 14)
	m.results.Title = "Results"
	m.results.SetFilteringEnabled(false)
	m.results.SetShowHelp(false)
	m.results.SetShowStatusBar(false)
	return m
}

// Close cancels every pending marker timer.
func (m *Model) Close() {
	m.gallery.Close()
	for _, b := range m.boxes {
		b.Close()
	}
}

// Init starts the cursor blink and loads the profile.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadProfile())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.results.SetSize(max(msg.Width-4, 20), max(msg.Height-10, 4))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case Msg:
		return m.handleMsg(msg)
	}
	return m.updateInputs(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProfileLoaded:
		data := msg.data.(profileLoaded)
		if data.err != nil {
			m.err = fmt.Errorf("load profile: %w", data.err)
			return m, nil
		}
		m.draft = profile.NewDraft(profile.SnapshotFrom(*data.profile))
		m.palette = NewPalette(theme.Derive(m.draft.Get(profile.FieldColor)))
		m.buildInputs()
		return m, nil

	case MsgMoodGenerated:
		data := msg.data.(moodGenerated)
		m.generating = false
		if data.err != nil {
			m.err, m.status = data.err, ""
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("generated a playlist for %q", data.entry.Mood)
		m.moodInput.Reset()
		return m, m.startRefresh()

	case MsgSearchCompleted:
		data := msg.data.(searchCompleted)
		if !m.boxes[data.source].Complete(data.ticket, data.results, data.err) {
			return m, nil
		}
		if data.source == m.source {
			m.syncResults()
			m.results.Select(0)
		}
		return m, m.startRefresh()

	case MsgProfileSaved:
		return m.handleSaved(msg.data.(profileSaved))

	case MsgRefresh:
		m.syncResults()
		if m.hasFresh() {
			return m, m.refresh()
		}
		m.ticking = false
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.next):
		m.switchView((m.view + 1) % viewCount)
		return m, nil
	case key.Matches(msg, m.keys.prev):
		m.switchView((m.view + viewCount - 1) % viewCount)
		return m, nil
	case key.Matches(msg, m.keys.clear):
		m.status, m.err = "", nil
		return m, nil
	}

	switch m.view {
	case SearchView:
		return m.handleSearchKeys(msg)
	case ProfileView:
		return m.handleProfileKeys(msg)
	default:
		return m.handleGalleryKeys(msg)
	}
}

func (m *Model) handleGalleryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.enter) {
		if m.generating {
			return m, nil
		}
		m.generating = true
		m.status = "generating..."
		return m, m.generate(m.moodInput.Value())
	}

	var cmd tea.Cmd
	m.moodInput, cmd = m.moodInput.Update(msg)
	return m, cmd
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.up), key.Matches(msg, m.keys.down):
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	case key.Matches(msg, m.keys.source):
		m.source = 1 - m.source
		m.syncResults()
		return m, m.lookup(m.queryInput.Value())
	case key.Matches(msg, m.keys.enter):
		m.toggleFavorite()
		return m, nil
	}

	before := m.queryInput.Value()
	var cmd tea.Cmd
	m.queryInput, cmd = m.queryInput.Update(msg)
	if m.queryInput.Value() == before {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.lookup(m.queryInput.Value()))
}

func (m *Model) handleProfileKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.draft == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.up):
		m.focusField(m.focus - 1)
		return m, nil
	case key.Matches(msg, m.keys.down), key.Matches(msg, m.keys.enter):
		m.focusField(m.focus + 1)
		return m, nil
	case key.Matches(msg, m.keys.reset):
		m.draft.Reset()
		m.buildInputs()
		m.status, m.err = "changes discarded", nil
		return m, nil
	case key.Matches(msg, m.keys.save):
		if m.saving {
			return m, nil
		}
		m.saving = true
		m.status = "saving..."
		return m, m.save()
	}

	field := editable[m.focus]
	before := m.inputs[m.focus].Value()
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if value := m.inputs[m.focus].Value(); value != before {
		// Partial hex values are expected while typing.
		if err := m.draft.Set(field, value); err != nil && field != profile.FieldColor {
			m.err = err
		}
	}
	return m, cmd
}

func (m *Model) handleSaved(data profileSaved) (tea.Model, tea.Cmd) {
	m.saving = false
	switch {
	case data.err != nil:
		m.err = data.err
		m.status = ""
		return m, nil
	case data.report.Seq == 0:
		m.status = "nothing to save"
		return m, nil
	case data.report.Stale:
		m.status = "superseded by a newer save"
		return m, nil
	}

	m.err = nil
	m.status = fmt.Sprintf("saved (%s)", data.report.Strategy)
	for _, g := range data.report.Applied {
		if g == profile.GroupColor {
			m.applyColor()
		}
	}
	m.buildInputs()
	return m, nil
}

func (m *Model) applyColor() {
	c, err := theme.ParseHex(m.draft.Get(profile.FieldColor))
	if err != nil {
		return
	}
	m.palette = NewPalette(theme.Derive(c.Hex()))
	if m.onColor != nil {
		m.onColor(c)
	}
}

func (m *Model) switchView(v ViewState) {
	m.view = v
	m.moodInput.Blur()
	m.queryInput.Blur()
	for i := range m.inputs {
		m.inputs[i].Blur()
	}

	switch v {
	case GalleryView:
		m.moodInput.Focus()
	case SearchView:
		m.queryInput.Focus()
		m.syncResults()
	case ProfileView:
		m.focusField(m.focus)
	}
}

func (m *Model) focusField(i int) {
	if len(m.inputs) == 0 {
		return
	}
	i = (i + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[i].Focus()
}

// buildInputs loads the draft values into fresh text inputs.
func (m *Model) buildInputs() {
	m.inputs = make([]textinput.Model, len(editable))
	for i, f := range editable {
		in := textinput.New()
		in.Prompt = fmt.Sprintf("%-10s ", f.String())
		in.CharLimit = 256
		if f == profile.FieldPassword || f == profile.FieldConfirm {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		in.SetValue(m.draft.Get(f))
		in.CursorEnd()
		m.inputs[i] = in
	}
	if m.view == ProfileView {
		m.inputs[m.focus].Focus()
	}
}

// toggleFavorite adds or removes the selected artist from the draft favorites.
func (m *Model) toggleFavorite() {
	if m.source != ArtistSource {
		return
	}
	if m.draft == nil {
		m.err = errors.New("profile is still loading")
		return
	}
	item, ok := m.results.SelectedItem().(resultItem)
	if !ok {
		return
	}

	added, err := m.draft.Favorites().Toggle(item.result.Name)
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	if added {
		m.status = fmt.Sprintf("added %s to favorites", item.result.Name)
	} else {
		m.status = fmt.Sprintf("removed %s from favorites", item.result.Name)
	}
	m.syncResults()
}

// syncResults rebuilds the list items from the active box.
func (m *Model) syncResults() {
	box := m.boxes[m.source]
	results := box.Results()
	items := make([]list.Item, len(results))
	for i, r := range results {
		items[i] = resultItem{
			result:   r,
			fresh:    box.IsNew(r.ID),
			favorite: m.source == ArtistSource && m.draft != nil && m.draft.Favorites().Contains(r.Name),
		}
	}
	m.results.SetItems(items)
	m.results.Title = fmt.Sprintf("Results (%s)", m.source)
}

func (m *Model) hasFresh() bool {
	if e, ok := m.gallery.Newest(); ok && m.gallery.IsNew(e.ID) {
		return true
	}
	for _, b := range m.boxes {
		for _, r := range b.Results() {
			if b.IsNew(r.ID) {
				return true
			}
		}
	}
	return false
}

// startRefresh begins the redraw loop unless one is already running.
func (m *Model) startRefresh() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	return m.refresh()
}

func (m *Model) refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return refreshMsg() })
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case GalleryView:
		m.moodInput, cmd = m.moodInput.Update(msg)
	case SearchView:
		m.queryInput, cmd = m.queryInput.Update(msg)
	case ProfileView:
		if len(m.inputs) > 0 {
			m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		}
	}
	return m, cmd
}

func (m *Model) loadProfile() tea.Cmd {
	return func() tea.Msg {
		p, err := m.backend.Profile(m.ctx)
		return profileLoadedMsg(p, err)
	}
}

func (m *Model) generate(mood string) tea.Cmd {
	return func() tea.Msg {
		entry, err := m.gallery.Submit(m.ctx, mood, m.backend.GenerateMood)
		return moodGeneratedMsg(entry, err)
	}
}

// lookup issues query on the active box. Blank queries clear the results without a command.
func (m *Model) lookup(query string) tea.Cmd {
	src := m.source
	box := m.boxes[src]
	t := box.Begin(query)
	if t.Empty {
		m.syncResults()
		return nil
	}
	searcher := m.searchers[src]
	return func() tea.Msg {
		results, err := searcher.Lookup(m.ctx, t.Query)
		return searchCompletedMsg(src, t, results, err)
	}
}

func (m *Model) save() tea.Cmd {
	draft := m.draft
	return func() tea.Msg {
		report, err := m.saver.Save(m.ctx, draft)
		return profileSavedMsg(report, err)
	}
}
