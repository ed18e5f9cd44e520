// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for the database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Revert the newest database migration",
				Action: r.SetupRollback,
			},
			{
				Name:  "config",
				Usage: "Write the example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path to write (defaults to the active config path)",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// serveCommand starts the backend.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.host:server.port)",
			},
		},
		Action: r.Serve,
	}
}

// authCommand handles account and session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your account and session",
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create an account and log in",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "Email address", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Password (8 to 72 characters)", Required: true},
					&cli.StringFlag{Name: "username", Usage: "Public username", Required: true},
					&cli.StringFlag{Name: "first-name", Usage: "First name"},
					&cli.StringFlag{Name: "last-name", Usage: "Last name"},
					jsonFlag(),
				},
				Action: r.AuthRegister,
			},
			{
				Name:  "login",
				Usage: "Log in and save the session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "Email address", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Password", Required: true},
					jsonFlag(),
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Revoke the session token and forget it",
				Action: r.AuthLogout,
			},
			{
				Name:      "verify",
				Usage:     "Verify your email with the mailed code",
				Arguments: []cli.Argument{&cli.StringArg{Name: "code"}},
				Action:    r.AuthVerify,
			},
			{
				Name:   "resend",
				Usage:  "Mail a new verification code",
				Action: r.AuthResend,
			},
			{
				Name:  "forgot",
				Usage: "Mail a password reset code",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "Email address", Required: true},
				},
				Action: r.AuthForgot,
			},
			{
				Name:  "reset",
				Usage: "Set a new password with a reset code",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "Email address", Required: true},
					&cli.StringFlag{Name: "code", Usage: "Mailed reset code", Required: true},
					&cli.StringFlag{Name: "password", Usage: "New password", Required: true},
				},
				Action: r.AuthReset,
			},
			{
				Name:   "whoami",
				Usage:  "Show the logged in user",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AuthWhoami,
			},
			{
				Name:   "online",
				Usage:  "List users who are online",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AuthOnline,
			},
		},
	}
}

// profileCommand handles profile operations
func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "View and edit your profile",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show your profile",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ProfileShow,
			},
			{
				Name:  "edit",
				Usage: "Edit profile fields and save them together",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Usage: "New username"},
					&cli.StringFlag{Name: "bio", Usage: "New bio"},
					&cli.StringFlag{Name: "color", Usage: "Theme color as #rrggbb"},
					&cli.StringFlag{Name: "first-name", Usage: "First name"},
					&cli.StringFlag{Name: "last-name", Usage: "Last name"},
					&cli.StringFlag{Name: "password", Usage: "New password"},
					&cli.StringFlag{Name: "confirm", Usage: "New password again"},
					&cli.StringSliceFlag{Name: "favorite", Usage: "Favorite artist (repeatable, replaces the list)"},
					&cli.BoolFlag{Name: "sequential", Usage: "Save with one request per field group"},
					jsonFlag(),
				},
				Action: r.ProfileEdit,
			},
			{
				Name:      "picture",
				Usage:     "Upload a profile picture (jpeg, png or webp)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "file"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.ProfilePicture,
			},
		},
	}
}

// searchCommand handles profile and artist searches
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search profiles or artists",
		Commands: []*cli.Command{
			{
				Name:      "profiles",
				Usage:     "Search profiles by username or name",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.SearchProfiles,
			},
			{
				Name:      "artists",
				Usage:     "Search the built-in artist list",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "spotify", Usage: "Search the Spotify catalog instead (needs a linked account)"},
					jsonFlag(),
				},
				Action: r.SearchArtists,
			},
		},
	}
}

// friendsCommand handles friend lists and requests
func friendsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "friends",
		Usage: "Manage friends",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List your friends",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.FriendsList,
			},
			{
				Name:   "requests",
				Usage:  "List pending friend requests",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.FriendsRequests,
			},
			{
				Name:      "add",
				Usage:     "Send a friend request",
				Arguments: []cli.Argument{&cli.StringArg{Name: "username"}},
				Action:    r.FriendsAdd,
			},
			{
				Name:      "accept",
				Usage:     "Accept a friend request",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.FriendsAccept,
			},
			{
				Name:      "remove",
				Usage:     "Remove a friend or withdraw a request",
				Arguments: []cli.Argument{&cli.StringArg{Name: "user-id"}},
				Action:    r.FriendsRemove,
			},
		},
	}
}

// moodCommand handles recommendations and generated playlists
func moodCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "mood",
		Usage: "Mood recommendations and playlists",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List the supported moods",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.MoodList,
			},
			{
				Name:      "recommend",
				Usage:     "Recommend tracks for a mood",
				Arguments: []cli.Argument{&cli.StringArg{Name: "mood"}},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Number of tracks (1 to 100)", Value: 20},
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "text, csv, markdown or json", Value: "text"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write the export to a file"},
				},
				Action: r.MoodRecommend,
			},
			{
				Name:      "playlist",
				Usage:     "Create a Spotify playlist for a mood",
				Arguments: []cli.Argument{&cli.StringArg{Name: "mood"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Playlist name (defaults to \"Mood • <mood>\")"},
					&cli.IntFlag{Name: "limit", Usage: "Number of tracks (1 to 100)"},
					jsonFlag(),
				},
				Action: r.MoodPlaylist,
			},
			{
				Name:  "create",
				Usage: "Create a private Spotify playlist from track URIs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Playlist name (defaults to \"My Mood Playlist\")"},
					&cli.StringSliceFlag{Name: "uri", Usage: "Track URI (repeatable)", Required: true},
					jsonFlag(),
				},
				Action: r.MoodCreate,
			},
			{
				Name:  "add",
				Usage: "Add track URIs to an existing Spotify playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "playlist", Usage: "Spotify playlist id", Required: true},
					&cli.StringSliceFlag{Name: "uri", Usage: "Track URI (repeatable)", Required: true},
					jsonFlag(),
				},
				Action: r.MoodAdd,
			},
			{
				Name:   "history",
				Usage:  "List playlists you generated",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.MoodHistory,
			},
			{
				Name:      "show",
				Usage:     "Show a generated playlist refreshed from Spotify",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.MoodShow,
			},
		},
	}
}

// themeCommand prints a derived color theme
func themeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "theme",
		Usage:     "Print the theme derived from a color",
		Arguments: []cli.Argument{&cli.StringArg{Name: "hex"}},
		Flags:     []cli.Flag{jsonFlag()},
		Action:    r.Theme,
	}
}

// spotifyCommand handles Spotify account linking
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify account operations",
		Commands: []*cli.Command{
			{
				Name:  "connect",
				Usage: "Link your Spotify account in the browser",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "no-browser", Usage: "Only print the authorization URL"},
				},
				Action: r.SpotifyConnect,
			},
			{
				Name:  "top",
				Usage: "List your most played artists",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "time-range", Usage: "short_term, medium_term or long_term", Value: "medium_term"},
					&cli.IntFlag{Name: "limit", Usage: "Number of artists (1 to 50)", Value: 50},
					jsonFlag(),
				},
				Action: r.SpotifyTop,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive client",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "sequential", Usage: "Save profile edits with one request per field group"},
		},
		Action: r.TUI,
	}
}
