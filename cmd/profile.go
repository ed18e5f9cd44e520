package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/profile"
	"github.com/desertthunder/moody/internal/search"
	"github.com/desertthunder/moody/internal/shared"
	"github.com/desertthunder/moody/internal/theme"
)

// editFlags maps profile edit flags to draft fields.
var editFlags = []struct {
	flag  string
	field profile.Field
}{
	{"username", profile.FieldUsername},
	{"bio", profile.FieldBio},
	{"color", profile.FieldColor},
	{"first-name", profile.FieldFirstName},
	{"last-name", profile.FieldLastName},
	{"password", profile.FieldPassword},
	{"confirm", profile.FieldConfirm},
}

// ProfileShow prints the caller's profile.
func (r *Runner) ProfileShow(ctx context.Context, cmd *cli.Command) error {
	c, _, err := r.authenticated()
	if err != nil {
		return err
	}
	p, err := c.Profile(ctx)
	if err != nil {
		return err
	}
	return r.emit(cmd, p, func() error { return r.printProfile(p) })
}

// ProfileEdit applies the given flags to a draft of the profile and saves the changes.
func (r *Runner) ProfileEdit(ctx context.Context, cmd *cli.Command) error {
	c, s, err := r.authenticated()
	if err != nil {
		return err
	}
	p, err := c.Profile(ctx)
	if err != nil {
		return err
	}

	draft := profile.NewDraft(profile.SnapshotFrom(*p))
	for _, ef := range editFlags {
		if !cmd.IsSet(ef.flag) {
			continue
		}
		if err := draft.Set(ef.field, cmd.String(ef.flag)); err != nil {
			return fmt.Errorf("--%s: %w", ef.flag, err)
		}
	}
	if cmd.IsSet("favorite") {
		favorites := draft.Favorites()
		for _, name := range favorites.Items() {
			favorites.Remove(name)
		}
		for _, name := range cmd.StringSlice("favorite") {
			if err := favorites.Add(name); err != nil {
				return err
			}
		}
	}

	strategy := profile.Composite
	if cmd.Bool("sequential") {
		strategy = profile.Sequential
	}
	changed, favChanged := draft.Changed(), draft.FavoritesChanged()
	report, err := profile.NewSaver(c, strategy).Save(ctx, draft)
	if err != nil {
		if len(report.Applied) > 0 {
			r.logger.Warn("profile partially saved", "applied", report.Applied, "failed", report.Failed)
		}
		return err
	}

	for _, g := range report.Applied {
		if g != profile.GroupColor {
			continue
		}
		if color, err := theme.ParseHex(draft.Get(profile.FieldColor)); err == nil {
			s.SetColor(color)
			if err := r.store.Save(s); err != nil {
				return err
			}
		}
	}

	applied := make([]string, len(report.Applied))
	for i, g := range report.Applied {
		applied[i] = g.String()
	}
	view := map[string]any{"seq": report.Seq, "strategy": report.Strategy.String(), "applied": applied}

	return r.emit(cmd, view, func() error {
		if report.Seq == 0 {
			return r.writePlain("Nothing to save\n")
		}
		names := make([]string, 0, len(changed)+1)
		for _, f := range changed {
			if f != profile.FieldConfirm {
				names = append(names, f.String())
			}
		}
		if favChanged {
			names = append(names, "favorites")
		}
		return r.writePlain("✓ Saved %s (%s)\n", strings.Join(names, ", "), report.Strategy)
	})
}

// ProfilePicture uploads a picture file and makes it the profile picture.
func (r *Runner) ProfilePicture(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, "file")
	if err != nil {
		return err
	}
	data, err := afero.ReadFile(r.fs, shared.ExpandPath(path))
	if err != nil {
		return fmt.Errorf("failed to read picture: %w", err)
	}

	c, _, err := r.authenticated()
	if err != nil {
		return err
	}
	resp, err := c.UploadPicture(ctx, data)
	if err != nil {
		return err
	}
	return r.emit(cmd, resp, func() error {
		return r.writePlain("✓ Profile picture updated\n%s\n", resp.ProfileImageURL)
	})
}

// SearchProfiles searches other users.
func (r *Runner) SearchProfiles(ctx context.Context, cmd *cli.Command) error {
	query, err := requireArg(cmd, "query")
	if err != nil {
		return err
	}
	c, _, err := r.authenticated()
	if err != nil {
		return err
	}
	return r.runSearch(ctx, cmd, c.ProfileSearcher(), query)
}

// SearchArtists searches the built-in artist list offline, or the Spotify catalog
// with --spotify.
func (r *Runner) SearchArtists(ctx context.Context, cmd *cli.Command) error {
	query, err := requireArg(cmd, "query")
	if err != nil {
		return err
	}
	if !cmd.Bool("spotify") {
		return r.runSearch(ctx, cmd, search.NewLocalSearcher(search.DefaultArtists...), query)
	}
	c, _, err := r.authenticated()
	if err != nil {
		return err
	}
	return r.runSearch(ctx, cmd, c.ArtistSearcher(), query)
}

func (r *Runner) runSearch(ctx context.Context, cmd *cli.Command, searcher search.Searcher, query string) error {
	box := search.NewBox(searcher)
	defer box.Close()

	if err := box.Search(ctx, query); err != nil {
		return err
	}
	results := box.Results()
	return r.emit(cmd, results, func() error {
		if len(results) == 0 {
			return r.writePlain("No matches for %q\n", query)
		}
		for _, res := range results {
			line := res.Name
			if res.Text != "" {
				line += " • " + res.Text
			}
			if res.Online {
				line += " (online)"
			}
			r.writePlain("%s\n", line)
		}
		return nil
	})
}

// FriendsList lists accepted friends.
func (r *Runner) FriendsList(ctx context.Context, cmd *cli.Command) error {
	c, _, err := r.authenticated()
	if err != nil {
		return err
	}
	friends, err := c.Friends(ctx)
	if err != nil {
		return err
	}
	return r.emit(cmd, friends, func() error {
		r.writePlainHeader(fmt.Sprintf("Friends (%d)", len(friends)))
		return r.printSummaries(friends)
	})
}

// FriendsRequests lists pending incoming requests.
func (r *Runner) FriendsRequests(ctx context.Context, cmd *cli.Command) error {
	c, _, err := r.authenticated()
	if err != nil {
		return err
	}
	requests, err := c.FriendRequests(ctx)
	if err != nil {
		return err
	}
	return r.emit(cmd, requests, func() error {
		if len(requests) == 0 {
			return r.writePlain("No pending requests\n")
		}
		for _, req := range requests {
			r.writePlain("%s  from %s (%s)\n", req.ID, req.From.Username, req.CreatedAt.Format("2006-01-02"))
		}
		return r.writePlainln("Accept with 'moody friends accept <id>'")
	})
}

// FriendsAdd sends a friend request.
func (r *Runner) FriendsAdd(ctx context.Context, cmd *cli.Command) error {
	username, err := requireArg(cmd, "username")
	if err != nil {
		return err
	}
	c, _, err := r.authenticated()
	if err != nil {
		return err
	}
	if err := c.SendFriendRequest(ctx, username); err != nil {
		return err
	}
	return r.writePlain("✓ Friend request sent to %s\n", username)
}

// FriendsAccept accepts a pending request.
func (r *Runner) FriendsAccept(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	c, _, err := r.authenticated()
	if err != nil {
		return err
	}
	if err := c.AcceptFriendRequest(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Friend request accepted\n")
}

// FriendsRemove ends a friendship.
func (r *Runner) FriendsRemove(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "user-id")
	if err != nil {
		return err
	}
	c, _, err := r.authenticated()
	if err != nil {
		return err
	}
	if err := c.RemoveFriend(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Friend removed\n")
}

// printProfile renders p with its own theme color.
func (r *Runner) printProfile(p *models.ProfileResponse) error {
	t := theme.Derive(colorHex(p.Color))
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(t.Primary.Hex()))
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(t.Secondary.Hex()))

	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	r.writePlain("%s\n", title.Render(p.Username))
	rows := []struct{ k, v string }{
		{"name", name},
		{"email", p.Email},
		{"bio", p.Bio},
		{"color", colorHex(p.Color)},
		{"favorites", strings.Join(p.Favorites, ", ")},
		{"picture", p.ProfileImageURL},
		{"verified", yesNo(p.Verified)},
		{"spotify", yesNo(p.SpotifyLinked)},
	}
	for _, row := range rows {
		if row.v == "" {
			continue
		}
		r.writePlain("%s %s\n", label.Render(fmt.Sprintf("%-10s", row.k)), row.v)
	}
	return nil
}

func (r *Runner) printSummaries(users []models.ProfileSummary) error {
	for _, u := range users {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(colorHex(u.Color))).Render("●")
		line := fmt.Sprintf("%s %s", dot, u.Username)
		if u.Name != "" {
			line += " (" + u.Name + ")"
		}
		if u.Online {
			line += " • online"
		}
		r.writePlain("%s  %s\n", line, u.ID)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// colorHex formats a stored profile color. Out of range values become the default.
func colorHex(n int) string {
	c, err := theme.FromInt(n)
	if err != nil {
		return theme.DefaultProfile.Hex()
	}
	return c.Hex()
}
