package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/shared"
)

// AuthRegister creates an account and saves the returned session.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	c, s, err := r.anonymous()
	if err != nil {
		return err
	}

	resp, err := c.Register(ctx, models.RegisterRequest{
		Email:     cmd.String("email"),
		Password:  cmd.String("password"),
		Username:  cmd.String("username"),
		FirstName: cmd.String("first-name"),
		LastName:  cmd.String("last-name"),
	})
	if err != nil {
		return err
	}
	if err := r.adopt(s, resp); err != nil {
		return err
	}

	return r.emit(cmd, resp.User, func() error {
		r.writePlain("✓ Registered as %s\n", resp.User.Username)
		return r.writePlain("A verification code was sent to %s. Run 'moody auth verify <code>'.\n", resp.User.Email)
	})
}

// AuthLogin logs in and saves the returned session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	c, s, err := r.anonymous()
	if err != nil {
		return err
	}

	resp, err := c.Login(ctx, cmd.String("email"), cmd.String("password"))
	if err != nil {
		return err
	}
	if err := r.adopt(s, resp); err != nil {
		return err
	}

	return r.emit(cmd, resp.User, func() error {
		return r.writePlain("✓ Logged in as %s\n", resp.User.Username)
	})
}

// AuthLogout revokes the token on the server and clears the local credentials.
//
// The local session is cleared even when the server rejects the token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	s, err := r.session()
	if err != nil {
		return err
	}
	if !s.LoggedIn(r.now()) {
		return r.writePlain("Not logged in\n")
	}

	c, _, err := r.authenticated()
	if err != nil {
		return err
	}
	if err := c.Logout(ctx); err != nil {
		if !errors.Is(err, shared.ErrUnauthorized) {
			return err
		}
		r.logger.Warn("server rejected the session token", "error", err)
	}

	s.Logout()
	if err := r.store.Save(s); err != nil {
		return err
	}
	return r.writePlain("✓ Logged out\n")
}

// AuthVerify submits the emailed verification code.
func (r *Runner) AuthVerify(ctx context.Context, cmd *cli.Command) error {
	code, err := requireArg(cmd, "code")
	if err != nil {
		return err
	}
	c, _, err := r.authenticated()
	if err != nil {
		return err
	}
	if err := c.VerifyEmail(ctx, code); err != nil {
		return err
	}
	return r.writePlain("✓ Email verified\n")
}

// AuthResend mails a new verification code.
func (r *Runner) AuthResend(ctx context.Context, cmd *cli.Command) error {
	c, s, err := r.authenticated()
	if err != nil {
		return err
	}
	if err := c.ResendVerification(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ A new code was sent to %s\n", s.Email)
}

// AuthForgot mails a password reset code.
func (r *Runner) AuthForgot(ctx context.Context, cmd *cli.Command) error {
	c, _, err := r.anonymous()
	if err != nil {
		return err
	}
	if err := c.SendPasswordReset(ctx, cmd.String("email")); err != nil {
		return err
	}
	return r.writePlain("If the address has an account, a reset code is on its way.\n")
}

// AuthReset sets a new password using a reset code.
func (r *Runner) AuthReset(ctx context.Context, cmd *cli.Command) error {
	c, _, err := r.anonymous()
	if err != nil {
		return err
	}
	err = c.ResetPassword(ctx, models.ResetPasswordRequest{
		Email:       cmd.String("email"),
		Token:       cmd.String("code"),
		NewPassword: cmd.String("password"),
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Password updated. Log in with 'moody auth login'.\n")
}

// AuthWhoami shows the logged in user.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	c, _, err := r.authenticated()
	if err != nil {
		return err
	}
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return err
	}
	return r.emit(cmd, user, func() error { return r.printProfile(user) })
}

// AuthOnline lists online users.
func (r *Runner) AuthOnline(ctx context.Context, cmd *cli.Command) error {
	c, _, err := r.authenticated()
	if err != nil {
		return err
	}
	users, err := c.OnlineUsers(ctx)
	if err != nil {
		return err
	}
	return r.emit(cmd, users, func() error {
		r.writePlainHeader(fmt.Sprintf("Online (%d)", len(users)))
		return r.printSummaries(users)
	})
}
