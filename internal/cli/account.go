package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSignupCmd(g *globals) *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: g.run(func(cmd *cobra.Command, args []string, s *session) error {
			var err error
			if name == "" {
				if name, err = s.console.Prompt("Full name"); err != nil {
					return err
				}
			}
			if email == "" {
				if email, err = s.console.Prompt("Email"); err != nil {
					return err
				}
			}
			password, err := s.console.Password("Password")
			if err != nil {
				return err
			}
			profile, err := s.app.Account.Signup(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s\n", profile.Email)
			return nil
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	return cmd
}

func newLoginCmd(g *globals) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: g.run(func(cmd *cobra.Command, args []string, s *session) error {
			var err error
			if email == "" {
				if email, err = s.console.Prompt("Email"); err != nil {
					return err
				}
			}
			password, err := s.console.Password("Password")
			if err != nil {
				return err
			}
			if err := s.app.Account.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			s.app.Account.Wait()
			return nil
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	return cmd
}

func newLogoutCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: g.run(func(cmd *cobra.Command, args []string, s *session) error {
			return s.app.Account.Logout(cmd.Context())
		}),
	}
}

func newMeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the profile",
		Args:  cobra.NoArgs,
		RunE: g.run(func(cmd *cobra.Command, args []string, s *session) error {
			s.app.Account.Attach(s.console.ProfileCard())
			_, err := s.app.Account.Profile(cmd.Context())
			return err
		}),
	}
}

func newDeleteAccountCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-account",
		Short: "Delete the account and every saved QR code",
		Args:  cobra.NoArgs,
		RunE: g.run(func(cmd *cobra.Command, args []string, s *session) error {
			return s.app.Account.DeleteAccount(cmd.Context())
		}),
	}
}

func newExportCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export saved QR codes as CSV",
		Args:  cobra.NoArgs,
		RunE: g.run(func(cmd *cobra.Command, args []string, s *session) error {
			path, err := s.app.Account.ExportCSV(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
			return nil
		}),
	}
}
