package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/shared"
)

// FriendsHandler serves friend lists and friend requests.
type FriendsHandler struct {
	app *App
}

func (h *FriendsHandler) Routes() []Route {
	p := apiPrefix + "/friends"
	return []Route{
		{Method: http.MethodGet, Path: p, Handler: h.list, Auth: true},
		{Method: http.MethodGet, Path: p + "/requests", Handler: h.requests, Auth: true},
		{Method: http.MethodPost, Path: p + "/requests", Handler: h.request, Auth: true},
		{Method: http.MethodPut, Path: p + "/requests/{id}/accept", Handler: h.accept, Auth: true},
		{Method: http.MethodDelete, Path: p + "/{id}", Handler: h.remove, Auth: true},
	}
}

func (h *FriendsHandler) list(w http.ResponseWriter, r *http.Request) {
	friends, err := h.app.friendships.Friends(h.app.userID(r))
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.app.summaries(r.Context(), friends))
}

// requests lists pending requests addressed to the caller, oldest first.
func (h *FriendsHandler) requests(w http.ResponseWriter, r *http.Request) {
	pending, err := h.app.friendships.List(map[string]any{
		"addressee": h.app.userID(r),
		"status":    models.FriendshipPending,
	})
	if err != nil {
		h.app.fail(w, r, err)
		return
	}

	views := make([]models.FriendRequestView, 0, len(pending))
	for _, f := range pending {
		from, err := h.app.users.Get(f.RequesterID())
		if errors.Is(err, shared.ErrNotFound) {
			continue
		} else if err != nil {
			h.app.fail(w, r, err)
			return
		}
		views = append(views, models.FriendRequestView{
			ID:        f.ID(),
			From:      h.app.summaries(r.Context(), []*models.User{from})[0],
			CreatedAt: f.CreatedAt(),
		})
	}
	writeJSON(w, http.StatusOK, views)
}

// request sends a friend request. When the other user already asked the caller, the
// pending request is accepted instead.
func (h *FriendsHandler) request(w http.ResponseWriter, r *http.Request) {
	var req models.FriendRequest
	if err := decode(r, &req); err != nil {
		h.app.fail(w, r, err)
		return
	}

	userID := h.app.userID(r)
	other, err := h.app.users.GetByUsername(req.Username)
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	if other.ID() == userID {
		h.app.fail(w, r, fmt.Errorf("%w: cannot befriend yourself", shared.ErrInvalidInput))
		return
	}

	existing, err := h.app.friendships.Between(userID, other.ID())
	switch {
	case err == nil && existing.Status() == models.FriendshipPending && existing.AddresseeID() == userID:
		if _, err := h.app.friendships.Accept(existing.ID(), userID); err != nil {
			h.app.fail(w, r, err)
			return
		}
		writeMessage(w, "friend request accepted")
		return
	case err == nil:
		h.app.fail(w, r, fmt.Errorf("%w: request already sent or already friends", shared.ErrConflict))
		return
	case !errors.Is(err, shared.ErrNotFound):
		h.app.fail(w, r, err)
		return
	}

	if err := h.app.friendships.Create(models.NewFriendship(userID, other.ID())); err != nil {
		h.app.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.MessageResponse{Message: "friend request sent"})
}

func (h *FriendsHandler) accept(w http.ResponseWriter, r *http.Request) {
	if _, err := h.app.friendships.Accept(r.PathValue("id"), h.app.userID(r)); err != nil {
		h.app.fail(w, r, err)
		return
	}
	writeMessage(w, "friend request accepted")
}

// remove ends the friendship, or withdraws the request, with the user in the path.
func (h *FriendsHandler) remove(w http.ResponseWriter, r *http.Request) {
	f, err := h.app.friendships.Between(h.app.userID(r), r.PathValue("id"))
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	if err := h.app.friendships.Delete(f.ID()); err != nil {
		h.app.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
