package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/moody/internal/formatter"
	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/shared"
	"github.com/desertthunder/moody/internal/theme"
)

// MoodList prints the supported moods.
func (r *Runner) MoodList(ctx context.Context, cmd *cli.Command) error {
	c, _, err := r.authenticated()
	if err != nil {
		return err
	}
	moods, err := c.Moods(ctx)
	if err != nil {
		return err
	}
	return r.emit(cmd, moods, func() error {
		return r.writePlain("%s\n", strings.Join(moods, ", "))
	})
}

// MoodRecommend fetches a recommendation and prints or exports it.
func (r *Runner) MoodRecommend(ctx context.Context, cmd *cli.Command) error {
	mood, err := requireArg(cmd, "mood")
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	limit := cmd.Int("limit")
	if limit < 1 || limit > 100 {
		return fmt.Errorf("%w: --limit must be between 1 and 100", shared.ErrInvalidFlag)
	}

	c, _, err := r.authenticated()
	if err != nil {
		return err
	}
	r.logger.Info("fetching recommendation", "mood", mood, "limit", limit)
	rec, err := c.Recommend(ctx, mood, limit)
	if err != nil {
		return err
	}

	if cmd.IsSet("output") {
		path, err := formatter.WriteExport(r.fs, rec, format, cmd.String("output"))
		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported %d tracks to %s\n", len(rec.Tracks), path)
	}

	data, err := formatter.Export(rec, format)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// MoodPlaylist creates a Spotify playlist for a mood.
func (r *Runner) MoodPlaylist(ctx context.Context, cmd *cli.Command) error {
	mood, err := requireArg(cmd, "mood")
	if err != nil {
		return err
	}
	c, _, err := r.authenticated()
	if err != nil {
		return err
	}

	r.logger.Info("creating playlist", "mood", mood)
	pl, err := c.PlaylistFromMood(ctx, models.PlaylistFromMoodRequest{
		Mood:  mood,
		Name:  cmd.String("name"),
		Limit: cmd.Int("limit"),
	})
	if err != nil {
		return err
	}
	return r.emit(cmd, pl, func() error {
		r.writePlain("✓ Created %q with %d tracks\n", pl.Name, pl.TrackCount)
		if pl.URL != "" {
			r.writePlain("%s\n", pl.URL)
		}
		return nil
	})
}

// MoodHistory lists generated playlists.
func (r *Runner) MoodHistory(ctx context.Context, cmd *cli.Command) error {
	c, _, err := r.authenticated()
	if err != nil {
		return err
	}
	playlists, err := c.Playlists(ctx)
	if err != nil {
		return err
	}
	return r.emit(cmd, playlists, func() error {
		if len(playlists) == 0 {
			return r.writePlain("No playlists yet. Try 'moody mood playlist happy'.\n")
		}
		r.writePlainHeader(fmt.Sprintf("Playlists (%d)", len(playlists)))
		for _, p := range playlists {
			r.writePlain("%s  %-12s %3d tracks  %s\n", p.CreatedAt.Format("2006-01-02 15:04"), p.Mood, p.TrackCount, p.Name)
		}
		return nil
	})
}

// MoodCreate creates a Spotify playlist holding the given track URIs.
func (r *Runner) MoodCreate(ctx context.Context, cmd *cli.Command) error {
	c, _, err := r.authenticated()
	if err != nil {
		return err
	}
	uris := cmd.StringSlice("uri")
	r.logger.Info("creating playlist", "tracks", len(uris))
	resp, err := c.CreatePlaylist(ctx, cmd.String("name"), uris)
	if err != nil {
		return err
	}
	return r.emit(cmd, resp, func() error {
		r.writePlain("✓ Created %q with %d tracks\n", resp.Name, resp.TracksAdded)
		if resp.URL != "" {
			r.writePlain("%s\n", resp.URL)
		}
		return nil
	})
}

// MoodAdd appends track URIs to an existing Spotify playlist.
func (r *Runner) MoodAdd(ctx context.Context, cmd *cli.Command) error {
	c, _, err := r.authenticated()
	if err != nil {
		return err
	}
	resp, err := c.AddToPlaylist(ctx, cmd.String("playlist"), cmd.StringSlice("uri"))
	if err != nil {
		return err
	}
	return r.emit(cmd, resp, func() error {
		return r.writePlain("✓ Added %d tracks to %s\n", resp.TracksAdded, resp.PlaylistID)
	})
}

// MoodShow prints one generated playlist.
func (r *Runner) MoodShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	c, _, err := r.authenticated()
	if err != nil {
		return err
	}
	p, err := c.Playlist(ctx, id)
	if err != nil {
		return err
	}
	return r.emit(cmd, p, func() error {
		r.writePlainHeader(p.Name)
		r.writePlain("Mood:    %s\n", p.Mood)
		r.writePlain("Tracks:  %d\n", p.TrackCount)
		r.writePlain("Created: %s\n", p.CreatedAt.Format("2006-01-02 15:04"))
		if p.URL != "" {
			r.writePlain("%s\n", p.URL)
		}
		return nil
	})
}

// themeRoles lists theme roles in display order.
var themeRoles = []string{"primary", "secondary", "gradientStart", "gradientEnd", "buttonPrimary", "buttonSecondary", "text", "muted"}

// Theme prints the theme derived from a hex color with a swatch per role.
func (r *Runner) Theme(ctx context.Context, cmd *cli.Command) error {
	hex, err := requireArg(cmd, "hex")
	if err != nil {
		return err
	}
	base, err := theme.ParseHex(hex)
	if err != nil {
		return err
	}

	colors := theme.Derive(base.Hex()).Hex()
	return r.emit(cmd, colors, func() error {
		for _, role := range themeRoles {
			swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(colors[role])).Render("██")
			r.writePlain("%s %-16s %s\n", swatch, role, colors[role])
		}
		return nil
	})
}
