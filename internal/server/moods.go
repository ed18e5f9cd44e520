package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/shared"
	"github.com/desertthunder/moody/internal/tasks"
)

// MoodHandler serves mood labels, recommendations and generated playlists.
type MoodHandler struct {
	app *App
}

func (h *MoodHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: apiPrefix + "/moods", Handler: h.moods, Auth: true},
		{Method: http.MethodGet, Path: apiPrefix + "/playlist", Handler: h.recommend, Auth: true},
		{Method: http.MethodPost, Path: apiPrefix + "/playlist", Handler: h.create, Auth: true},
		{Method: http.MethodPost, Path: apiPrefix + "/playlist/add", Handler: h.add, Auth: true},
		{Method: http.MethodPost, Path: apiPrefix + "/playlist/from-mood", Handler: h.fromMood, Auth: true},
		{Method: http.MethodGet, Path: apiPrefix + "/playlists", Handler: h.playlists, Auth: true},
		{Method: http.MethodGet, Path: apiPrefix + "/playlists/{id}", Handler: h.playlist, Auth: true},
	}
}

func (h *MoodHandler) moods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, tasks.Moods())
}

func (h *MoodHandler) recommend(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := limitParam(r, 0)
	if err != nil {
		h.app.fail(w, r, err)
		return
	}

	engine, err := h.engine(r.Context(), h.app.userID(r))
	if err != nil {
		h.app.fail(w, r, err)
		return
	}

	progress, done := h.trace(h.app.userID(r))
	rec, err := engine.Recommend(r.Context(), progress, query.Get("mood"), tasks.ClampLimit(limit))
	done()
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// fromMood creates a Spotify playlist for the mood and records it.
func (h *MoodHandler) fromMood(w http.ResponseWriter, r *http.Request) {
	var req models.PlaylistFromMoodRequest
	if err := decode(r, &req); err != nil {
		h.app.fail(w, r, err)
		return
	}

	userID := h.app.userID(r)
	engine, err := h.engine(r.Context(), userID)
	if err != nil {
		h.app.fail(w, r, err)
		return
	}

	progress, done := h.trace(userID)
	result, err := engine.BuildPlaylist(r.Context(), progress, req.Mood, strings.TrimSpace(req.Name), req.Limit)
	done()
	if err != nil {
		h.app.fail(w, r, err)
		return
	}

	pl := result.Playlist
	record := models.NewGeneratedPlaylist(userID, result.Recommendation.Mood.Bucket, pl.Name, pl.ID, pl.URL, pl.TrackCount)
	if err := h.app.playlists.Create(record); err != nil {
		h.app.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, playlistResponse(record))
}

// create makes a private Spotify playlist holding uris.
func (h *MoodHandler) create(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePlaylistRequest
	if err := decode(r, &req); err != nil {
		h.app.fail(w, r, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = models.DefaultPlaylistName
	}

	svc, err := h.app.musicFor(r.Context(), h.app.userID(r))
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	pl, err := svc.CreatePlaylist(r.Context(), name, "", false)
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	if err := svc.AddTracks(r.Context(), pl.ID, req.URIs); err != nil {
		h.app.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.TracksAddedResponse{
		PlaylistID:  pl.ID,
		Name:        pl.Name,
		TracksAdded: len(req.URIs),
		URL:         pl.URL,
	})
}

// add appends uris to an existing Spotify playlist. A matching generated playlist has
// its track count bumped.
func (h *MoodHandler) add(w http.ResponseWriter, r *http.Request) {
	var req models.AddTracksRequest
	if err := decode(r, &req); err != nil {
		h.app.fail(w, r, err)
		return
	}

	userID := h.app.userID(r)
	svc, err := h.app.musicFor(r.Context(), userID)
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	if err := svc.AddTracks(r.Context(), req.PlaylistID, req.URIs); err != nil {
		h.app.fail(w, r, err)
		return
	}

	records, err := h.app.playlists.List(map[string]any{"user_id": userID, "spotify_id": req.PlaylistID})
	if err != nil {
		h.app.logger.Warn("failed to look up generated playlist", "user", userID, "playlist", req.PlaylistID, "error", err)
	}
	for _, p := range records {
		p.SetTrackCount(p.TrackCount() + len(req.URIs))
		if err := h.app.playlists.Update(p); err != nil {
			h.app.logger.Warn("failed to update track count", "playlist", p.ID(), "error", err)
		}
	}
	writeJSON(w, http.StatusOK, models.TracksAddedResponse{PlaylistID: req.PlaylistID, TracksAdded: len(req.URIs)})
}

// playlist returns one generated playlist, refreshed from Spotify when it is reachable.
func (h *MoodHandler) playlist(w http.ResponseWriter, r *http.Request) {
	userID := h.app.userID(r)
	record, err := h.app.playlists.Get(r.PathValue("id"))
	if err == nil && record.UserID() != userID {
		err = fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, r.PathValue("id"))
	}
	if err != nil {
		h.app.fail(w, r, err)
		return
	}

	svc, err := h.app.musicFor(r.Context(), userID)
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	live, err := svc.Playlist(r.Context(), record.SpotifyID())
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	if live.Name != record.Name() || live.TrackCount != record.TrackCount() {
		record.SetName(live.Name)
		record.SetTrackCount(live.TrackCount)
		if err := h.app.playlists.Update(record); err != nil {
			h.app.fail(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, playlistResponse(record))
}

func (h *MoodHandler) playlists(w http.ResponseWriter, r *http.Request) {
	records, err := h.app.playlists.List(map[string]any{"user_id": h.app.userID(r)})
	if err != nil {
		h.app.fail(w, r, err)
		return
	}

	out := make([]models.PlaylistResponse, 0, len(records))
	for _, p := range records {
		out = append(out, playlistResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// engine builds a [tasks.MoodEngine] acting as userID on the music service.
func (h *MoodHandler) engine(ctx context.Context, userID string) (*tasks.MoodEngine, error) {
	svc, err := h.app.musicFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	opts := append([]tasks.EngineOption{tasks.WithEngineLogger(h.app.logger)}, h.app.engineOpts...)
	return tasks.NewMoodEngine(svc, opts...), nil
}

// trace drains engine progress into the debug log. done closes the channel and waits
// for the drain to finish.
func (h *MoodHandler) trace(userID string) (progress chan<- tasks.ProgressUpdate, done func()) {
	ch := make(chan tasks.ProgressUpdate, 16)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for u := range ch {
			h.app.logger.Debug(u.Message, "user", userID, "phase", u.Phase, "step", u.Step, "total", u.Total)
		}
	}()
	return ch, func() {
		close(ch)
		<-drained
	}
}

// limitParam reads an optional positive "limit" query parameter.
func limitParam(r *http.Request, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: limit must be an integer", shared.ErrInvalidInput)
	}
	return max(n, 1), nil
}

func playlistResponse(p *models.GeneratedPlaylist) models.PlaylistResponse {
	return models.PlaylistResponse{
		ID:         p.ID(),
		SpotifyID:  p.SpotifyID(),
		Name:       p.Name(),
		Mood:       p.Mood(),
		URL:        p.URL(),
		TrackCount: p.TrackCount(),
		CreatedAt:  p.CreatedAt(),
	}
}
