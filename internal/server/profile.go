package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/moody/internal/auth"
	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/shared"
	"github.com/desertthunder/moody/internal/storage"
)

const maxNameLength = 64

// ProfileHandler serves the caller's profile, profile search and picture uploads.
type ProfileHandler struct {
	app *App
}

func (h *ProfileHandler) Routes() []Route {
	p := apiPrefix + "/profile"
	return []Route{
		{Method: http.MethodGet, Path: p, Handler: h.show, Auth: true},
		{Method: http.MethodPatch, Path: p, Handler: h.patch, Auth: true},
		{Method: http.MethodPut, Path: p + "/username", Handler: h.field("username", setUsername), Auth: true},
		{Method: http.MethodPut, Path: p + "/bio", Handler: h.field("bio", setBio), Auth: true},
		{Method: http.MethodPut, Path: p + "/color", Handler: h.field("color", setColor), Auth: true},
		{Method: http.MethodPut, Path: p + "/fname", Handler: h.field("fname", setFirstName), Auth: true},
		{Method: http.MethodPut, Path: p + "/lname", Handler: h.field("lname", setLastName), Auth: true},
		{Method: http.MethodPut, Path: p + "/account", Handler: h.account, Auth: true},
		{Method: http.MethodGet, Path: p + "/search", Handler: h.search, Auth: true},
		{Method: http.MethodPost, Path: p + "/picture/upload-url", Handler: h.uploadURL, Auth: true},
		{Method: http.MethodPut, Path: p + "/picture", Handler: h.commitPicture, Auth: true},
	}
}

func (h *ProfileHandler) show(w http.ResponseWriter, r *http.Request) {
	user, err := h.app.currentUser(r)
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.app.profileResponse(r.Context(), user))
}

// mutate applies fn to the caller in one transaction and writes the stored profile.
func (h *ProfileHandler) mutate(w http.ResponseWriter, r *http.Request, fn func(*models.User) error) {
	user, err := h.app.users.Mutate(h.app.userID(r), fn)
	if err != nil {
		if errors.Is(err, shared.ErrConflict) {
			err = fmt.Errorf("%w: username is taken", shared.ErrConflict)
		}
		h.app.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.app.profileResponse(r.Context(), user))
}

type fieldSetter func(u *models.User, value string) error

// field serves a single-field update whose value arrives in the key query parameter.
func (h *ProfileHandler) field(key string, set fieldSetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if !query.Has(key) {
			h.app.fail(w, r, fmt.Errorf("%w: %s is required", shared.ErrMissingArgument, key))
			return
		}
		value := query.Get(key)
		h.mutate(w, r, func(u *models.User) error { return set(u, value) })
	}
}

func setUsername(u *models.User, value string) error {
	value = strings.TrimSpace(value)
	if n := utf8.RuneCountInString(value); n < 2 || n > models.MaxUsernameLength {
		return fmt.Errorf("%w: username must be 2 to %d characters", shared.ErrInvalidInput, models.MaxUsernameLength)
	}
	u.SetUsername(value)
	return nil
}

func setBio(u *models.User, value string) error {
	if utf8.RuneCountInString(value) > models.MaxBioLength {
		return fmt.Errorf("%w: bio must be at most %d characters", shared.ErrInvalidInput, models.MaxBioLength)
	}
	u.SetBio(value)
	return nil
}

func setColor(u *models.User, value string) error {
	color, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || color < 0 || color > models.MaxColor {
		return fmt.Errorf("%w: color must be an integer between 0 and %d", shared.ErrInvalidInput, models.MaxColor)
	}
	u.SetColor(color)
	return nil
}

func setFirstName(u *models.User, value string) error {
	if utf8.RuneCountInString(value) > maxNameLength {
		return fmt.Errorf("%w: first name must be at most %d characters", shared.ErrInvalidInput, maxNameLength)
	}
	u.SetFirstName(value)
	return nil
}

func setLastName(u *models.User, value string) error {
	if utf8.RuneCountInString(value) > maxNameLength {
		return fmt.Errorf("%w: last name must be at most %d characters", shared.ErrInvalidInput, maxNameLength)
	}
	u.SetLastName(value)
	return nil
}

func (h *ProfileHandler) account(w http.ResponseWriter, r *http.Request) {
	var req models.AccountUpdate
	if err := decode(r, &req); err != nil {
		h.app.fail(w, r, err)
		return
	}
	if req.Empty() {
		h.app.fail(w, r, fmt.Errorf("%w: nothing to update", shared.ErrInvalidInput))
		return
	}

	hash, err := hashIfSet(req.Password)
	if err != nil {
		h.app.fail(w, r, err)
		return
	}

	h.mutate(w, r, func(u *models.User) error {
		if req.FirstName != nil {
			u.SetFirstName(*req.FirstName)
		}
		if req.LastName != nil {
			u.SetLastName(*req.LastName)
		}
		if hash != "" {
			u.SetPasswordHash(hash)
		}
		return nil
	})
}

// patch applies every field of a [models.ProfilePatch] or none of them.
func (h *ProfileHandler) patch(w http.ResponseWriter, r *http.Request) {
	var req models.ProfilePatch
	if err := decode(r, &req); err != nil {
		h.app.fail(w, r, err)
		return
	}
	if req.Empty() {
		h.show(w, r)
		return
	}

	hash, err := hashIfSet(req.Password)
	if err != nil {
		h.app.fail(w, r, err)
		return
	}

	h.mutate(w, r, func(u *models.User) error {
		if req.Username != nil {
			if err := setUsername(u, *req.Username); err != nil {
				return err
			}
		}
		if req.Bio != nil {
			u.SetBio(*req.Bio)
		}
		if req.Color != nil {
			u.SetColor(*req.Color)
		}
		if req.FirstName != nil {
			u.SetFirstName(*req.FirstName)
		}
		if req.LastName != nil {
			u.SetLastName(*req.LastName)
		}
		if hash != "" {
			u.SetPasswordHash(hash)
		}
		if req.Favorites != nil {
			u.SetFavorites(*req.Favorites)
		}
		return nil
	})
}

func hashIfSet(pw *string) (string, error) {
	if pw == nil {
		return "", nil
	}
	return auth.HashPassword(*pw)
}

func (h *ProfileHandler) search(w http.ResponseWriter, r *http.Request) {
	users, err := h.app.users.Search(r.URL.Query().Get("q"), h.app.userID(r), searchLimit)
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.app.summaries(r.Context(), users))
}

func (h *ProfileHandler) uploadURL(w http.ResponseWriter, r *http.Request) {
	if h.app.store == nil {
		h.app.fail(w, r, fmt.Errorf("%w: object storage is not configured", shared.ErrServiceUnavailable))
		return
	}

	var req models.UploadURLRequest
	if err := decode(r, &req); err != nil {
		h.app.fail(w, r, err)
		return
	}
	if err := storage.ValidateUpload(req.ContentType, req.FileSize, h.app.store.MaxUploadBytes()); err != nil {
		h.app.fail(w, r, err)
		return
	}

	key, err := storage.ProfileImageKey(h.app.userID(r), req.ContentType)
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	link, err := h.app.store.PresignUpload(r.Context(), key)
	if err != nil {
		h.app.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.UploadURLResponse{
		UploadURL: link.String(),
		ObjectKey: key,
		ExpiresIn: int(h.app.store.UploadExpiry().Seconds()),
	})
}

// commitPicture verifies an uploaded object and stores its key on the caller.
func (h *ProfileHandler) commitPicture(w http.ResponseWriter, r *http.Request) {
	if h.app.store == nil {
		h.app.fail(w, r, fmt.Errorf("%w: object storage is not configured", shared.ErrServiceUnavailable))
		return
	}

	var req models.PictureCommit
	if err := decode(r, &req); err != nil {
		h.app.fail(w, r, err)
		return
	}

	userID := h.app.userID(r)
	if !storage.KeyOwnedBy(req.ObjectKey, userID) {
		h.app.fail(w, r, fmt.Errorf("%w: object key does not belong to you", shared.ErrForbidden))
		return
	}
	if _, err := h.app.store.Inspect(r.Context(), req.ObjectKey); err != nil {
		h.app.fail(w, r, err)
		return
	}

	user, err := h.app.users.Mutate(userID, func(u *models.User) error {
		u.SetImageKey(req.ObjectKey)
		return nil
	})
	if err != nil {
		h.app.fail(w, r, err)
		return
	}

	link, err := h.app.store.PresignDownload(r.Context(), user.ImageKey())
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.PictureResponse{ProfileImageURL: link.String()})
}
