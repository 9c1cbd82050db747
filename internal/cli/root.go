// Package cli provides the qrforge command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danilovkiri/dk_go_qr_forge/internal/app"
	"github.com/danilovkiri/dk_go_qr_forge/internal/config"
	"github.com/danilovkiri/dk_go_qr_forge/internal/ui/terminal"
)

type globals struct {
	configPath string
	apiURL     string
}

// session is one command invocation's application graph and console.
type session struct {
	app     *app.App
	console *terminal.Console
}

// NewRootCmd builds the command tree.
func NewRootCmd(version, buildDate, buildCommit string) *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:          "qrforge",
		Short:        "QR Forge client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "JSON configuration file (env "+config.ConfigPathEnv+")")
	root.PersistentFlags().StringVar(&g.apiURL, "api", "", "Backend base URL, overrides API_BASE_URL")

	root.AddCommand(newVersionCmd(version, buildDate, buildCommit))
	root.AddCommand(newSignupCmd(g), newLoginCmd(g), newLogoutCmd(g), newMeCmd(g), newDeleteAccountCmd(g))
	root.AddCommand(newHistoryCmd(g), newDeleteCmd(g), newDownloadCmd(g), newExportCmd(g))
	root.AddCommand(newStudioCmd(g))
	return root
}

// open loads the configuration and builds the application for cmd.
// The caller must close the returned session.
func (g *globals) open(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.apiURL != "" {
		cfg.SetAPIBaseURL(g.apiURL)
	}
	console := terminal.NewConsole(cmd.InOrStdin(), cmd.OutOrStdout(), cfg.DownloadDir)
	a, err := app.InitApp(cmd.Context(), cfg, app.Options{
		Notifier:  console,
		Navigator: console,
		Confirmer: console,
		Saver:     console,
	})
	if err != nil {
		return nil, err
	}
	return &session{app: a, console: console}, nil
}

// run opens a session, runs fn and closes the session.
func (g *globals) run(fn func(cmd *cobra.Command, args []string, s *session) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		s, err := g.open(cmd)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := s.app.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()
		return fn(cmd, args, s)
	}
}

func newVersionCmd(version, buildDate, buildCommit string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Build version: %s\nBuild date: %s\nBuild commit: %s\n", version, buildDate, buildCommit)
		},
	}
}
