package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/moody/internal/auth"
	"github.com/desertthunder/moody/internal/mail"
	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/shared"
)

// AuthHandler serves account creation, login and email verification.
type AuthHandler struct {
	app *App
}

func (h *AuthHandler) Routes() []Route {
	p := apiPrefix + "/authentication"
	return []Route{
		{Method: http.MethodPost, Path: p + "/register", Handler: h.register},
		{Method: http.MethodPost, Path: p + "/login", Handler: h.login},
		{Method: http.MethodPut, Path: p + "/logout", Handler: h.logout, Auth: true},
		{Method: http.MethodGet, Path: p + "/user", Handler: h.user, Auth: true},
		{Method: http.MethodGet, Path: p + "/online-users", Handler: h.onlineUsers, Auth: true},
		{Method: http.MethodPut, Path: p + "/validate-email-verification-token", Handler: h.verifyEmail, Auth: true},
		{Method: http.MethodPost, Path: p + "/resend-email-verification", Handler: h.resendVerification, Auth: true},
		{Method: http.MethodPut, Path: p + "/send-password-reset-token", Handler: h.sendPasswordReset},
		{Method: http.MethodPut, Path: p + "/reset-password", Handler: h.resetPassword},
	}
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decode(r, &req); err != nil {
		h.app.fail(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	code, codeHash, err := auth.NewCode()
	if err != nil {
		h.app.fail(w, r, err)
		return
	}

	user := models.NewUser(0, req.Email, req.Username, hash)
	user.SetFirstName(req.FirstName)
	user.SetLastName(req.LastName)
	expires := h.app.now().Add(h.app.verificationTTL)
	user.SetVerification(codeHash, &expires)

	if err := h.app.users.Create(user); err != nil {
		if errors.Is(err, shared.ErrConflict) {
			err = fmt.Errorf("%w: email or username is taken", shared.ErrConflict)
		}
		h.app.fail(w, r, err)
		return
	}
	h.sendMail(r.Context(), mail.VerificationMessage(user.Email(), code, h.app.verificationTTL))

	resp, err := h.signIn(r.Context(), user)
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decode(r, &req); err != nil {
		h.app.fail(w, r, err)
		return
	}

	user, err := h.app.users.GetByEmail(req.Email)
	if errors.Is(err, shared.ErrNotFound) {
		h.app.fail(w, r, fmt.Errorf("%w: wrong email or password", shared.ErrInvalidCredentials))
		return
	} else if err != nil {
		h.app.fail(w, r, err)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash(), req.Password); err != nil {
		h.app.fail(w, r, fmt.Errorf("%w: wrong email or password", shared.ErrInvalidCredentials))
		return
	}

	resp, err := h.signIn(r.Context(), user)
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// signIn marks user online and issues an access token.
func (h *AuthHandler) signIn(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	if err := h.app.users.SetOnline(user.ID(), true); err != nil {
		return nil, err
	}
	user.SetOnline(true)

	token, claims, err := h.app.issuer.Issue(user.ID(), user.Email())
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{
		Token:     token,
		ExpiresAt: claims.Expiry(),
		User:      h.app.profileResponse(ctx, user),
	}, nil
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		h.app.fail(w, r, shared.ErrNotAuthenticated)
		return
	}
	if err := h.app.revoker.Revoke(r.Context(), claims.ID, claims.Expiry()); err != nil {
		h.app.fail(w, r, err)
		return
	}
	if err := h.app.users.SetOnline(claims.UserID(), false); err != nil && !errors.Is(err, shared.ErrNotFound) {
		h.app.fail(w, r, err)
		return
	}
	writeMessage(w, "logged out")
}

func (h *AuthHandler) user(w http.ResponseWriter, r *http.Request) {
	user, err := h.app.currentUser(r)
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.app.profileResponse(r.Context(), user))
}

func (h *AuthHandler) onlineUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.app.users.List(map[string]any{"online": true})
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.app.summaries(r.Context(), users))
}

func (h *AuthHandler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("token"))
	if code == "" {
		h.app.fail(w, r, fmt.Errorf("%w: token is required", shared.ErrMissingArgument))
		return
	}

	// Wrong codes are still written so the attempt count persists.
	var codeErr error
	_, err := h.app.users.Mutate(h.app.userID(r), func(u *models.User) error {
		if u.Verified() {
			return nil
		}
		live := u.VerificationExpiresAt() != nil && h.app.now().Before(*u.VerificationExpiresAt())
		if codeErr = h.checkCode(u.VerificationHash(), live, code); codeErr != nil {
			u.FailVerification()
			return nil
		}
		u.SetVerified(true)
		u.SetVerification("", nil)
		return nil
	})
	if err == nil {
		err = codeErr
	}
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	writeMessage(w, "email verified")
}

func (h *AuthHandler) resendVerification(w http.ResponseWriter, r *http.Request) {
	code, codeHash, err := auth.NewCode()
	if err != nil {
		h.app.fail(w, r, err)
		return
	}

	user, err := h.app.users.Mutate(h.app.userID(r), func(u *models.User) error {
		if u.Verified() {
			return fmt.Errorf("%w: email already verified", shared.ErrConflict)
		}
		expires := h.app.now().Add(h.app.verificationTTL)
		u.SetVerification(codeHash, &expires)
		return nil
	})
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	h.sendMail(r.Context(), mail.VerificationMessage(user.Email(), code, h.app.verificationTTL))
	writeMessage(w, "verification code sent")
}

// sendPasswordReset answers 200 whether or not the address has an account.
func (h *AuthHandler) sendPasswordReset(w http.ResponseWriter, r *http.Request) {
	const reply = "if the address has an account, a reset code was sent"

	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		h.app.fail(w, r, fmt.Errorf("%w: email is required", shared.ErrMissingArgument))
		return
	}

	user, err := h.app.users.GetByEmail(email)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.app.logger.Error("password reset lookup failed", "error", err)
		}
		writeMessage(w, reply)
		return
	}

	code, codeHash, err := auth.NewCode()
	if err != nil {
		h.app.logger.Error("failed to generate reset code", "error", err)
		writeMessage(w, reply)
		return
	}
	_, err = h.app.users.Mutate(user.ID(), func(u *models.User) error {
		expires := h.app.now().Add(h.app.verificationTTL)
		u.SetReset(codeHash, &expires)
		return nil
	})
	if err != nil {
		h.app.logger.Error("failed to store reset code", "user", user.ID(), "error", err)
		writeMessage(w, reply)
		return
	}

	h.sendMail(r.Context(), mail.PasswordResetMessage(user.Email(), code, h.app.verificationTTL))
	writeMessage(w, reply)
}

func (h *AuthHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := decode(r, &req); err != nil {
		h.app.fail(w, r, err)
		return
	}

	invalid := fmt.Errorf("%w: invalid or expired reset code", shared.ErrInvalidInput)
	user, err := h.app.users.GetByEmail(req.Email)
	if errors.Is(err, shared.ErrNotFound) {
		h.app.fail(w, r, invalid)
		return
	} else if err != nil {
		h.app.fail(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.app.fail(w, r, err)
		return
	}

	var codeErr error
	_, err = h.app.users.Mutate(user.ID(), func(u *models.User) error {
		live := u.ResetExpiresAt() != nil && h.app.now().Before(*u.ResetExpiresAt())
		if err := h.checkCode(u.ResetHash(), live, req.Token); err != nil {
			codeErr = invalid
			u.FailReset()
			return nil
		}
		u.SetPasswordHash(hash)
		u.SetReset("", nil)
		return nil
	})
	if err == nil {
		err = codeErr
	}
	if err != nil {
		h.app.fail(w, r, err)
		return
	}
	writeMessage(w, "password updated")
}

// checkCode compares code against a stored hash that is still live.
func (h *AuthHandler) checkCode(hash string, live bool, code string) error {
	if hash == "" || !live {
		return fmt.Errorf("%w: code expired, request a new one", shared.ErrInvalidInput)
	}
	if err := auth.CheckPassword(hash, code); err != nil {
		return fmt.Errorf("%w: incorrect code", shared.ErrInvalidInput)
	}
	return nil
}

// sendMail delivers msg, logging failures. The request that triggered it still succeeds.
func (h *AuthHandler) sendMail(ctx context.Context, msg mail.Message) {
	if err := h.app.mail.Send(ctx, msg); err != nil {
		h.app.logger.Error("failed to send mail", "to", msg.To, "subject", msg.Subject, "error", err)
	}
}
