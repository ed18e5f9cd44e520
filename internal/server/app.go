package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/moody/internal/auth"
	"github.com/desertthunder/moody/internal/mail"
	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/repositories"
	"github.com/desertthunder/moody/internal/services"
	"github.com/desertthunder/moody/internal/shared"
	"github.com/desertthunder/moody/internal/storage"
	"github.com/desertthunder/moody/internal/tasks"
)

const (
	apiPrefix       = "/api/v1"
	shutdownTimeout = 10 * time.Second
	searchLimit     = 20
)

// Deps are the collaborators of the backend. Storage and Music may be nil, in which case
// the endpoints needing them answer 503.
type Deps struct {
	DB              *sql.DB
	Logger          *log.Logger
	Issuer          *auth.Issuer
	Revoker         auth.Revoker
	Mail            mail.Sender
	Storage         storage.Store
	Music           MusicProvider
	AllowedOrigins  []string
	VerificationTTL time.Duration
	Now             func() time.Time
	EngineOptions   []tasks.EngineOption
}

// App is the Moody backend: repositories, auth and the mounted handlers.
type App struct {
	users       *repositories.UserRepository
	friendships *repositories.FriendshipRepository
	playlists   *repositories.PlaylistRepository

	issuer          *auth.Issuer
	revoker         auth.Revoker
	mail            mail.Sender
	store           storage.Store
	music           MusicProvider
	logger          *log.Logger
	now             func() time.Time
	verificationTTL time.Duration
	engineOpts      []tasks.EngineOption

	router *BasicRouter
}

// NewApp wires the handlers onto a router.
func NewApp(deps Deps) *App {
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.VerificationTTL <= 0 {
		deps.VerificationTTL = 10 * time.Minute
	}
	if deps.Mail == nil {
		deps.Mail = mail.NewLogSender(deps.Logger)
	}

	app := &App{
		users:           repositories.NewUserRepository(deps.DB),
		friendships:     repositories.NewFriendshipRepository(deps.DB),
		playlists:       repositories.NewPlaylistRepository(deps.DB),
		issuer:          deps.Issuer,
		revoker:         deps.Revoker,
		mail:            deps.Mail,
		store:           deps.Storage,
		music:           deps.Music,
		logger:          deps.Logger,
		now:             deps.Now,
		verificationTTL: deps.VerificationTTL,
		engineOpts:      deps.EngineOptions,
	}

	router := NewBasicRouter(RequireAuth(deps.Issuer, deps.Revoker))
	router.Use(Recover(deps.Logger), Logging(deps.Logger))
	if len(deps.AllowedOrigins) > 0 {
		router.Use(CORS(deps.AllowedOrigins))
	}
	router.Mount(&AuthHandler{app: app})
	router.Mount(&ProfileHandler{app: app})
	router.Mount(&FriendsHandler{app: app})
	router.Mount(&MoodHandler{app: app})
	router.Mount(&SpotifyHandler{app: app})
	router.Handle(http.MethodGet, "/healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, "ok")
	}))
	app.router = router

	return app
}

// DepsFromConfig builds [Deps] from cfg. Optional services that are not configured are left nil.
func DepsFromConfig(ctx context.Context, cfg *shared.Config, db *sql.DB, logger *log.Logger) (Deps, error) {
	revoker, err := auth.NewRevoker(ctx, cfg.Redis, logger)
	if err != nil {
		return Deps{}, err
	}

	deps := Deps{
		DB:              db,
		Logger:          logger,
		Issuer:          auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL()),
		Revoker:         revoker,
		Mail:            mail.New(cfg.Mail, logger),
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		VerificationTTL: cfg.Auth.VerificationTTL(),
		EngineOptions:   []tasks.EngineOption{tasks.WithEngineLogger(logger)},
	}

	if cfg.Storage.Endpoint != "" {
		store, err := storage.NewMinioStore(cfg.Storage, logger)
		if err != nil {
			revoker.Close()
			return Deps{}, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			logger.Warn("object storage unavailable, picture uploads disabled", "error", err)
		} else {
			deps.Storage = store
		}
	} else {
		logger.Warn("storage.endpoint not set, picture uploads disabled")
	}

	spotify, err := services.NewSpotifyService(cfg.Credentials.Spotify.Map())
	if err != nil {
		logger.Warn("spotify not configured, mood playlists disabled", "error", err)
	} else {
		deps.Music = SpotifyProvider(spotify)
	}

	return deps, nil
}

// ServeHTTP implements [http.Handler].
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (a *App) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// Close releases the token blocklist.
func (a *App) Close() error {
	if a.revoker == nil {
		return nil
	}
	return a.revoker.Close()
}

func (a *App) currentUser(r *http.Request) (*models.User, error) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		return nil, shared.ErrNotAuthenticated
	}
	return a.users.Get(claims.UserID())
}

func (a *App) userID(r *http.Request) string {
	if claims, ok := ClaimsFrom(r.Context()); ok {
		return claims.UserID()
	}
	return ""
}

// imageURL presigns the user's picture. Failures are logged and yield "".
func (a *App) imageURL(ctx context.Context, u *models.User) string {
	if u.ImageKey() == "" || a.store == nil {
		return ""
	}
	link, err := a.store.PresignDownload(ctx, u.ImageKey())
	if err != nil {
		a.logger.Warn("failed to presign profile image", "user", u.ID(), "error", err)
		return ""
	}
	return link.String()
}

func (a *App) profileResponse(ctx context.Context, u *models.User) models.ProfileResponse {
	return models.ProfileResponse{
		ID:              u.ID(),
		Username:        u.Username(),
		FirstName:       u.FirstName(),
		LastName:        u.LastName(),
		Email:           u.Email(),
		Bio:             u.Bio(),
		Color:           u.Color(),
		Favorites:       u.Favorites(),
		ProfileImageURL: a.imageURL(ctx, u),
		Verified:        u.Verified(),
		Online:          u.Online(),
		SpotifyLinked:   u.Spotify().Linked(),
	}
}

func (a *App) summaries(ctx context.Context, users []*models.User) []models.ProfileSummary {
	out := make([]models.ProfileSummary, 0, len(users))
	for _, u := range users {
		out = append(out, models.ProfileSummary{
			ID:        u.ID(),
			Username:  u.Username(),
			Name:      u.Name(),
			AvatarURL: a.imageURL(ctx, u),
			Bio:       u.Bio(),
			Color:     u.Color(),
			Online:    u.Online(),
		})
	}
	return out
}

// fail writes err, logging the ones that surface as a 500.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	if statusFor(err) == http.StatusInternalServerError {
		a.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, err)
}
