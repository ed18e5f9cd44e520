// Package profile reconciles an editable profile draft against server state.
//
// A [Draft] starts as a verbatim copy of the last fetched [Snapshot]. Edits touch
// only the draft; a [Saver] pushes the changes and folds each acknowledged field
// group back into the synced snapshot.
package profile

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/shared"
	"github.com/desertthunder/moody/internal/theme"
)

// Field names one editable draft field.
type Field int

const (
	FieldUsername Field = iota
	FieldBio
	FieldColor
	FieldFirstName
	FieldLastName
	FieldPassword
	FieldConfirm
)

func (f Field) String() string {
	switch f {
	case FieldUsername:
		return "username"
	case FieldBio:
		return "bio"
	case FieldColor:
		return "color"
	case FieldFirstName:
		return "firstName"
	case FieldLastName:
		return "lastName"
	case FieldPassword:
		return "password"
	case FieldConfirm:
		return "confirm"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// ParseField maps a field name to a [Field].
func ParseField(s string) (Field, error) {
	for f := FieldUsername; f <= FieldConfirm; f++ {
		if strings.EqualFold(s, f.String()) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown profile field %q", shared.ErrInvalidArgument, s)
}

// Snapshot is the server-held part of a profile.
type Snapshot struct {
	Username  string
	Bio       string
	Color     theme.Color
	FirstName string
	LastName  string
	Favorites []string
}

// SnapshotFrom converts a profile response. Out of range colors become the default profile color.
func SnapshotFrom(p models.ProfileResponse) Snapshot {
	c, err := theme.FromInt(p.Color)
	if err != nil {
		c = theme.DefaultProfile
	}
	return Snapshot{
		Username:  p.Username,
		Bio:       p.Bio,
		Color:     c,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Favorites: slices.Clone(p.Favorites),
	}
}

func (s Snapshot) clone() Snapshot {
	s.Favorites = slices.Clone(s.Favorites)
	return s
}

// Draft is the locally edited copy of a profile.
type Draft struct {
	mu        sync.Mutex
	synced    Snapshot
	current   Snapshot
	favorites *Favorites
	password  string
	confirm   string
}

// NewDraft initializes a draft verbatim from snap.
func NewDraft(snap Snapshot) *Draft {
	d := &Draft{}
	d.load(snap)
	return d
}

func (d *Draft) load(snap Snapshot) {
	d.synced = snap.clone()
	d.current = snap.clone()
	d.favorites = NewFavorites(snap.Favorites...)
	d.password = ""
	d.confirm = ""
}

// Set edits one field. Color values are hex strings and are rejected when malformed.
func (d *Draft) Set(field Field, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch field {
	case FieldUsername:
		d.current.Username = value
	case FieldBio:
		d.current.Bio = value
	case FieldColor:
		c, err := theme.ParseHex(value)
		if err != nil {
			return err
		}
		d.current.Color = c
	case FieldFirstName:
		d.current.FirstName = value
	case FieldLastName:
		d.current.LastName = value
	case FieldPassword:
		d.password = value
	case FieldConfirm:
		d.confirm = value
	default:
		return fmt.Errorf("%w: unknown profile field %d", shared.ErrInvalidArgument, int(field))
	}
	return nil
}

// SetColor edits the theme color.
func (d *Draft) SetColor(c theme.Color) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current.Color = c
}

// Get returns the draft value of field. Colors are returned in hex form.
func (d *Draft) Get(field Field) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch field {
	case FieldUsername:
		return d.current.Username
	case FieldBio:
		return d.current.Bio
	case FieldColor:
		return d.current.Color.Hex()
	case FieldFirstName:
		return d.current.FirstName
	case FieldLastName:
		return d.current.LastName
	case FieldPassword:
		return d.password
	case FieldConfirm:
		return d.confirm
	}
	return ""
}

// Favorites returns the favorites being edited.
func (d *Draft) Favorites() *Favorites {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.favorites
}

// Current returns the edited snapshot.
func (d *Draft) Current() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.current.clone()
	s.Favorites = d.favorites.Items()
	return s
}

// Synced returns the last snapshot known to match the server.
func (d *Draft) Synced() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.synced.clone()
}

// Dirty reports whether any field or the favorites differ from the synced values.
// A pending password always counts as a change.
func (d *Draft) Dirty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.changed()) > 0 || d.favoritesChanged()
}

// Changed lists the fields that differ from the synced snapshot, in field order.
func (d *Draft) Changed() []Field {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.changed()
}

func (d *Draft) changed() []Field {
	var out []Field
	if d.current.Username != d.synced.Username {
		out = append(out, FieldUsername)
	}
	if d.current.Bio != d.synced.Bio {
		out = append(out, FieldBio)
	}
	if d.current.Color != d.synced.Color {
		out = append(out, FieldColor)
	}
	if d.current.FirstName != d.synced.FirstName {
		out = append(out, FieldFirstName)
	}
	if d.current.LastName != d.synced.LastName {
		out = append(out, FieldLastName)
	}
	if d.password != "" {
		out = append(out, FieldPassword)
	}
	return out
}

// FavoritesChanged reports whether the favorites differ from the synced list.
func (d *Draft) FavoritesChanged() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.favoritesChanged()
}

func (d *Draft) favoritesChanged() bool {
	return !slices.Equal(d.favorites.Items(), d.synced.Favorites)
}

// Validate checks the draft before it is saved. Errors wrap [shared.ErrInvalidInput].
func (d *Draft) Validate() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if strings.TrimSpace(d.current.Username) == "" {
		return fmt.Errorf("%w: username is required", shared.ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(d.current.Username); n > models.MaxUsernameLength {
		return fmt.Errorf("%w: username must be at most %d characters", shared.ErrInvalidInput, models.MaxUsernameLength)
	}
	if utf8.RuneCountInString(d.current.Bio) > models.MaxBioLength {
		return fmt.Errorf("%w: bio must be at most %d characters", shared.ErrInvalidInput, models.MaxBioLength)
	}
	if d.password != d.confirm {
		return fmt.Errorf("%w: Passwords do not match", shared.ErrInvalidInput)
	}
	return nil
}

// Reset discards every edit.
func (d *Draft) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.load(d.synced)
}

// SyncFrom replaces both the synced snapshot and the draft with snap.
func (d *Draft) SyncFrom(snap Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.load(snap)
}

// reconcile folds an acknowledged group into the synced snapshot using the values
// the server stored. Draft values still equal to what was sent take the stored
// value as well. Draft values edited after the save began are left alone.
func (d *Draft) reconcile(g Group, sent Changes, stored Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch g {
	case GroupUsername:
		if d.current.Username == *sent.Username {
			d.current.Username = stored.Username
		}
		d.synced.Username = stored.Username
	case GroupBio:
		if d.current.Bio == *sent.Bio {
			d.current.Bio = stored.Bio
		}
		d.synced.Bio = stored.Bio
	case GroupColor:
		if d.current.Color == *sent.Color {
			d.current.Color = stored.Color
		}
		d.synced.Color = stored.Color
	case GroupAccount:
		if sent.FirstName != nil {
			if d.current.FirstName == *sent.FirstName {
				d.current.FirstName = stored.FirstName
			}
			d.synced.FirstName = stored.FirstName
		}
		if sent.LastName != nil {
			if d.current.LastName == *sent.LastName {
				d.current.LastName = stored.LastName
			}
			d.synced.LastName = stored.LastName
		}
		if sent.Password != nil && d.password == *sent.Password {
			d.password = ""
			d.confirm = ""
		}
	case GroupFavorites:
		if slices.Equal(d.favorites.Items(), *sent.Favorites) {
			d.favorites = NewFavorites(stored.Favorites...)
		}
		d.synced.Favorites = slices.Clone(stored.Favorites)
	}
}
