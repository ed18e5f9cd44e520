package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/moody/internal/shared"
)

// SpotifyConnect asks the backend for the authorization URL and opens it in a browser.
//
// The backend finishes the flow on its callback route and stores the token on the account,
// so nothing is saved locally.
func (r *Runner) SpotifyConnect(ctx context.Context, cmd *cli.Command) error {
	c, _, err := r.authenticated()
	if err != nil {
		return err
	}
	url, err := c.SpotifyAuthorizeURL(ctx)
	if err != nil {
		return err
	}

	r.writePlain("Open this URL to link Spotify:\n%s\n", url)
	if cmd.Bool("no-browser") {
		return nil
	}
	if err := r.openBrowser(url); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		return nil
	}
	return r.writePlainln("Finish linking in the browser, then check with 'moody profile show'.")
}

// SpotifyTop lists the user's most played artists.
func (r *Runner) SpotifyTop(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	if limit < 1 || limit > 50 {
		return fmt.Errorf("%w: --limit must be between 1 and 50", shared.ErrInvalidFlag)
	}
	c, _, err := r.authenticated()
	if err != nil {
		return err
	}
	top, err := c.TopArtists(ctx, cmd.String("time-range"), limit)
	if err != nil {
		return err
	}
	return r.emit(cmd, top, func() error {
		if len(top.TopArtists) == 0 {
			return r.writePlain("No listening history yet.\n")
		}
		r.writePlainHeader(fmt.Sprintf("Top artists (%d)", len(top.TopArtists)))
		for i, a := range top.TopArtists {
			r.writePlain("%2d. %s\n", i+1, a.Name)
		}
		return nil
	})
}
