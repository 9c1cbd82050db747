package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danilovkiri/dk_go_qr_forge/internal/service/history"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/modelqr"
)

func newHistoryCmd(g *globals) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved QR codes, most recent first",
		Args:  cobra.NoArgs,
		RunE: g.run(func(cmd *cobra.Command, args []string, s *session) error {
			kind, title := history.ViewCompact, "Recent QR codes"
			if all {
				kind, title = history.ViewFull, "All QR codes"
			}
			s.app.History.Mount(kind, s.console.HistoryTable(title))
			_, err := s.app.History.Refresh(cmd.Context())
			return err
		}),
	}
	cmd.Flags().BoolVar(&all, "all", false, "List every saved QR code")
	return cmd
}

func newDeleteCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved QR code",
		Args:  cobra.ExactArgs(1),
		RunE: g.run(func(cmd *cobra.Command, args []string, s *session) error {
			// the listing provides the title shown in the confirmation
			if _, err := s.app.History.Refresh(cmd.Context()); err != nil {
				return err
			}
			return s.app.History.Delete(cmd.Context(), modelqr.ItemID(args[0]))
		}),
	}
}

func newDownloadCmd(g *globals) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download a saved QR code",
		Args:  cobra.ExactArgs(1),
		RunE: g.run(func(cmd *cobra.Command, args []string, s *session) error {
			f, err := modelqr.ParseFormat(format)
			if err != nil {
				return err
			}
			if _, err := s.app.History.Refresh(cmd.Context()); err != nil {
				return err
			}
			path, err := s.app.History.Download(cmd.Context(), modelqr.ItemID(args[0]), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(modelqr.FormatSVG), "Image format: svg or png")
	return cmd
}
