package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/moody/internal/profile"
	"github.com/desertthunder/moody/internal/shared"
	"github.com/desertthunder/moody/internal/theme"
	"github.com/desertthunder/moody/internal/ui"
)

// TUI launches the interactive client for the logged in session.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	c, s, err := r.authenticated()
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logCfg := r.config.Log
	if logCfg.File == "" {
		logCfg.File = "~/.moody/tui.log"
	}
	fileLogger, closer := shared.NewFileLogger(logCfg)
	defer closer.Close()
	r.SetLogger(fileLogger)

	strategy := profile.Composite
	if cmd.Bool("sequential") {
		strategy = profile.Sequential
	}

	opts := []ui.Option{
		ui.WithTheme(s.Theme()),
		ui.WithStrategy(strategy),
		ui.WithColorHook(func(color theme.Color) {
			s.SetColor(color)
			if err := r.store.Save(s); err != nil {
				r.logger.Warn("failed to save session color", "error", err)
			}
		}),
	}
	if me, err := c.CurrentUser(ctx); err != nil {
		r.logger.Warn("failed to load account, using built-in artists", "error", err)
	} else if me.SpotifyLinked {
		opts = append(opts, ui.WithArtists(c.ArtistSearcher()))
	}

	model := ui.NewModel(ctx, c, opts...)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
