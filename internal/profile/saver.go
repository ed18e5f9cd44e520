package profile

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/theme"
)

// Group is a set of fields saved by one legacy request.
type Group int

const (
	GroupNone Group = iota
	GroupUsername
	GroupBio
	GroupColor
	GroupAccount
	GroupFavorites
)

func (g Group) String() string {
	switch g {
	case GroupUsername:
		return "username"
	case GroupBio:
		return "bio"
	case GroupColor:
		return "color"
	case GroupAccount:
		return "account"
	case GroupFavorites:
		return "favorites"
	default:
		return "none"
	}
}

// Changes holds the draft values that differ from the synced snapshot. Nil fields are unchanged.
type Changes struct {
	Username  *string
	Bio       *string
	Color     *theme.Color
	FirstName *string
	LastName  *string
	Password  *string
	Favorites *[]string
}

// Changes collects the pending edits of d.
func (d *Draft) Changes() Changes {
	d.mu.Lock()
	defer d.mu.Unlock()

	var c Changes
	if v := d.current.Username; v != d.synced.Username {
		c.Username = &v
	}
	if v := d.current.Bio; v != d.synced.Bio {
		c.Bio = &v
	}
	if v := d.current.Color; v != d.synced.Color {
		c.Color = &v
	}
	if v := d.current.FirstName; v != d.synced.FirstName {
		c.FirstName = &v
	}
	if v := d.current.LastName; v != d.synced.LastName {
		c.LastName = &v
	}
	if v := d.password; v != "" {
		c.Password = &v
	}
	if v := d.favorites.Items(); !slices.Equal(v, d.synced.Favorites) {
		if v == nil {
			v = []string{}
		}
		c.Favorites = &v
	}
	return c
}

// Empty reports whether there is nothing to save.
func (c Changes) Empty() bool {
	return len(c.Groups()) == 0
}

// Groups lists the legacy request groups in the order they are sent.
func (c Changes) Groups() []Group {
	var out []Group
	if c.Username != nil {
		out = append(out, GroupUsername)
	}
	if c.Bio != nil {
		out = append(out, GroupBio)
	}
	if c.Color != nil {
		out = append(out, GroupColor)
	}
	if c.FirstName != nil || c.LastName != nil || c.Password != nil {
		out = append(out, GroupAccount)
	}
	if c.Favorites != nil {
		out = append(out, GroupFavorites)
	}
	return out
}

// Account returns the account group as a request body.
func (c Changes) Account() models.AccountUpdate {
	return models.AccountUpdate{FirstName: c.FirstName, LastName: c.LastName, Password: c.Password}
}

// Patch returns every change as one composite request body.
func (c Changes) Patch() models.ProfilePatch {
	p := models.ProfilePatch{
		Username:  c.Username,
		Bio:       c.Bio,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Password:  c.Password,
		Favorites: c.Favorites,
	}
	if c.Color != nil {
		n := c.Color.Int()
		p.Color = &n
	}
	return p
}

// stored returns the changes as the snapshot a server keeping them verbatim would hold.
// Unchanged fields are zero.
func (c Changes) stored() Snapshot {
	var s Snapshot
	if c.Username != nil {
		s.Username = *c.Username
	}
	if c.Bio != nil {
		s.Bio = *c.Bio
	}
	if c.Color != nil {
		s.Color = *c.Color
	}
	if c.FirstName != nil {
		s.FirstName = *c.FirstName
	}
	if c.LastName != nil {
		s.LastName = *c.LastName
	}
	if c.Favorites != nil {
		s.Favorites = slices.Clone(*c.Favorites)
	}
	return s
}

// API is the subset of the backend used to save a profile.
type API interface {
	UpdateUsername(ctx context.Context, username string) error
	UpdateBio(ctx context.Context, bio string) error
	UpdateColor(ctx context.Context, color int) error
	UpdateAccount(ctx context.Context, update models.AccountUpdate) error
	UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.ProfileResponse, error)
}

// Strategy selects how a [Saver] pushes changes.
type Strategy int

const (
	// Composite sends every change in one request applied atomically by the server.
	Composite Strategy = iota
	// Sequential sends one request per [Group] and stops at the first failure.
	// Groups saved before the failure stay saved.
	Sequential
)

func (s Strategy) String() string {
	if s == Sequential {
		return "sequential"
	}
	return "composite"
}

// Report describes the outcome of one save.
type Report struct {
	Seq      uint64
	Strategy Strategy
	Applied  []Group
	// Failed is the group that aborted a sequential save.
	Failed Group
	// Stale is set when a newer save was issued before this one completed.
	// Stale completions are not reconciled into the draft.
	Stale bool
}

// Saver pushes draft changes to the backend.
type Saver struct {
	api      API
	strategy Strategy

	mu     sync.Mutex
	issued uint64
}

// NewSaver creates a [Saver] using strategy.
func NewSaver(api API, strategy Strategy) *Saver {
	return &Saver{api: api, strategy: strategy}
}

// Strategy returns the configured strategy.
func (s *Saver) Strategy() Strategy { return s.strategy }

func (s *Saver) next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

func (s *Saver) current(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq == s.issued
}

// Save validates d and pushes its changes. A draft without changes sends nothing.
func (s *Saver) Save(ctx context.Context, d *Draft) (Report, error) {
	report := Report{Strategy: s.strategy}
	if err := d.Validate(); err != nil {
		return report, err
	}

	changes := d.Changes()
	if changes.Empty() {
		return report, nil
	}
	report.Seq = s.next()

	if s.strategy == Sequential {
		return s.saveSequential(ctx, d, changes, report)
	}
	return s.saveComposite(ctx, d, changes, report)
}

func (s *Saver) saveSequential(ctx context.Context, d *Draft, changes Changes, report Report) (Report, error) {
	for _, g := range changes.Groups() {
		if err := s.send(ctx, g, changes); err != nil {
			report.Failed = g
			return report, fmt.Errorf("update %s: %w", g, err)
		}
		report.Applied = append(report.Applied, g)
		if !s.current(report.Seq) {
			report.Stale = true
			continue
		}
		d.reconcile(g, changes, changes.stored())
	}
	return report, nil
}

func (s *Saver) send(ctx context.Context, g Group, c Changes) error {
	switch g {
	case GroupUsername:
		return s.api.UpdateUsername(ctx, *c.Username)
	case GroupBio:
		return s.api.UpdateBio(ctx, *c.Bio)
	case GroupColor:
		return s.api.UpdateColor(ctx, c.Color.Int())
	case GroupAccount:
		return s.api.UpdateAccount(ctx, c.Account())
	case GroupFavorites:
		_, err := s.api.UpdateProfile(ctx, models.ProfilePatch{Favorites: c.Favorites})
		return err
	}
	return nil
}

func (s *Saver) saveComposite(ctx context.Context, d *Draft, changes Changes, report Report) (Report, error) {
	groups := changes.Groups()
	resp, err := s.api.UpdateProfile(ctx, changes.Patch())
	if err != nil {
		return report, fmt.Errorf("update profile: %w", err)
	}
	stored := changes.stored()
	if resp != nil {
		stored = SnapshotFrom(*resp)
	}
	report.Applied = groups
	if !s.current(report.Seq) {
		report.Stale = true
		return report, nil
	}
	for _, g := range groups {
		d.reconcile(g, changes, stored)
	}
	return report, nil
}
