package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/moody/internal/client"
	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/session"
	"github.com/desertthunder/moody/internal/shared"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	fs          afero.Fs
	store       *session.Store
	now         func() time.Time
	openBrowser func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	// Fs backs the session file and file exports. Defaults to the OS filesystem.
	Fs          afero.Fs
	Now         func() time.Time
	OpenBrowser func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = defaultConfigPath
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		fs:          opts.Fs,
		store:       session.NewStore(opts.Fs, opts.Config.Client.SessionPath),
		now:         opts.Now,
		openBrowser: opts.OpenBrowser,
	}
}

// SetLogger replaces the logger, e.g. to keep log lines out of the TUI.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, authCommand, profileCommand, searchCommand, friendsCommand,
		moodCommand, themeCommand, spotifyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// session loads the saved session. The base URL defaults to [shared.ClientConfig.BaseURL].
func (r *Runner) session() (*session.Session, error) {
	s, err := r.store.Load()
	if err != nil {
		return nil, err
	}
	if s.BaseURL == "" {
		s.BaseURL = r.config.Client.BaseURL
	}
	return s, nil
}

// anonymous returns a client without credentials along with the session it targets.
func (r *Runner) anonymous() (*client.Client, *session.Session, error) {
	s, err := r.session()
	if err != nil {
		return nil, nil, err
	}
	return client.New(s.BaseURL, r.httpClient), s, nil
}

// authenticated returns a client for the logged in session.
func (r *Runner) authenticated() (*client.Client, *session.Session, error) {
	s, err := r.session()
	if err != nil {
		return nil, nil, err
	}
	if !s.LoggedIn(r.now()) {
		return nil, nil, fmt.Errorf("%w: run 'moody auth login' first", shared.ErrNotAuthenticated)
	}
	return client.FromSession(s, r.httpClient), s, nil
}

// adopt stores the token and identity from an auth response in the session.
func (r *Runner) adopt(s *session.Session, resp *models.AuthResponse) error {
	s.Token = resp.Token
	s.ExpiresAt = resp.ExpiresAt
	s.Email = resp.User.Email
	s.Username = resp.User.Username
	s.Color = colorHex(resp.User.Color)
	if err := r.store.Save(s); err != nil {
		return err
	}
	r.logger.Debug("session saved", "path", r.store.Path())
	return nil
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}
}

// emit writes data as JSON when --json is set and calls plain otherwise.
func (r *Runner) emit(cmd *cli.Command, data any, plain func() error) error {
	if cmd.Bool("json") {
		return r.writeJSON(data, true)
	}
	return plain()
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// requireArg returns the named positional argument or an [shared.ErrMissingArgument] error.
func requireArg(cmd *cli.Command, name string) (string, error) {
	v := cmd.StringArg(name)
	if v == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return v, nil
}

