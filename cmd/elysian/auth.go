package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/elysian-app/elysian/internal/i18n"
	"github.com/elysian-app/elysian/internal/identity"
)

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return credentialRun(cmd, func(ctx context.Context, s *session, email, password string) (identity.Session, error) {
				return s.ids.SignIn(ctx, email, password)
			})
		},
	}
	addCredentialFlags(cmd)
	return cmd
}

func signupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return credentialRun(cmd, func(ctx context.Context, s *session, email, password string) (identity.Session, error) {
				return s.ids.SignUp(ctx, email, password)
			})
		},
	}
	addCredentialFlags(cmd)
	return cmd
}

func addCredentialFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("email", "e", "", "Account email (or set ELYSIAN_EMAIL)")
	f.StringP("password", "p", "", "Account password (or set ELYSIAN_PASSWORD)")
}

// credentialRun collects credentials, runs the provider call and stores
// the session it returns.
func credentialRun(cmd *cobra.Command, call func(ctx context.Context, s *session, email, password string) (identity.Session, error)) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	ctx := s.ctx()
	p := newPrompter()

	email, password, err := askCredentials(ctx, s, p)
	if err != nil {
		return err
	}
	sess, err := call(ctx, s, email, password)
	if err != nil {
		return err
	}
	if err := s.tokens.SetSession(sess); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	p.println(i18n.Td(ctx, "SignedInAs", map[string]any{"Email": sess.Email}))
	return nil
}

func askCredentials(ctx context.Context, s *session, p *prompter) (string, string, error) {
	email := s.cfg.String("email")
	if email == "" {
		var err error
		email, err = p.line(i18n.T(ctx, "EmailPrompt") + ": ")
		if err != nil {
			return "", "", err
		}
	}
	password := s.cfg.String("password")
	if password == "" {
		var err error
		password, err = p.line(i18n.T(ctx, "PasswordPrompt") + ": ")
		if err != nil {
			return "", "", err
		}
	}
	return email, password, nil
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			ctx := s.ctx()
			if err := s.tokens.Clear(); err != nil {
				return err
			}
			newPrompter().println(i18n.T(ctx, "SignedOut"))
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account and its progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			ctx := s.ctx()
			p := newPrompter()

			if !s.tokens.Authenticated() {
				p.println(i18n.T(ctx, "NotSignedIn"))
				return nil
			}
			sess, err := s.tokens.Session()
			if err != nil {
				return err
			}
			p.println(i18n.Td(ctx, "SignedInAs", map[string]any{"Email": sess.Email}))

			profile, err := s.api.Profile(ctx)
			if err != nil {
				slog.Debug("profile unavailable", "error", err)
				return nil
			}
			p.println(i18n.Td(ctx, "LevelLine", map[string]any{"Level": profile.PlayerLevel, "XP": profile.XP}))
			if profile.DailyStreak > 0 {
				p.println(i18n.Tp(ctx, "StreakDays", profile.DailyStreak))
			}
			return nil
		},
	}
}

func resetPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Send a password reset email",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			ctx := s.ctx()
			p := newPrompter()

			email := s.cfg.String("email")
			if email == "" {
				email, err = p.line(i18n.T(ctx, "EmailPrompt") + ": ")
				if err != nil {
					return err
				}
			}
			if err := s.ids.SendPasswordReset(ctx, email); err != nil {
				return err
			}
			p.println(i18n.Td(ctx, "PasswordResetSent", map[string]any{"Email": email}))
			return nil
		},
	}
	cmd.Flags().StringP("email", "e", "", "Account email (or set ELYSIAN_EMAIL)")
	return cmd
}

func deleteAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-account",
		Short: "Delete the signed-in account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			ctx := s.ctx()
			p := newPrompter()

			if !s.tokens.Authenticated() {
				p.println(i18n.T(ctx, "NotSignedIn"))
				return nil
			}
			// Refresh first so the provider sees a live token.
			if _, err := s.tokens.Token(); err != nil {
				return err
			}
			sess, err := s.tokens.Session()
			if err != nil {
				return err
			}

			if !s.cfg.Bool("yes") {
				p.println(i18n.T(ctx, "DeleteWarning"))
				ok, err := p.confirm(sess.Email)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}

			if err := s.ids.DeleteAccount(ctx, sess.IDToken); err != nil {
				return err
			}
			if err := s.tokens.Clear(); err != nil {
				return err
			}
			p.println(i18n.T(ctx, "AccountDeleted"))
			return nil
		},
	}
	cmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
	return cmd
}
