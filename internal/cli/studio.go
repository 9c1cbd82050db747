package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	serviceErrors "github.com/danilovkiri/dk_go_qr_forge/internal/service/errors"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/history"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/modelqr"
)

const studioHelp = `Commands:
  set <field> <value>   fields: title, url, fg, bg, size, padding, radius, transparent, overlay
  show                  print the current controls and state
  save                  save the previewed QR code
  download [svg|png]    download the current design
  help                  print this help
  quit                  leave the studio
`

func newStudioCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "studio",
		Short: "Design, preview and save a QR code interactively",
		Args:  cobra.NoArgs,
		RunE: g.run(func(cmd *cobra.Command, args []string, s *session) error {
			out := cmd.OutOrStdout()
			p := s.app.Preview
			p.Attach(s.console.PreviewPane())
			s.app.History.Mount(history.ViewCompact, s.console.HistoryTable("Recent QR codes"))
			fmt.Fprint(out, studioHelp)
			for {
				line, err := s.console.Prompt("studio")
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				fields := strings.Fields(line)
				if len(fields) == 0 {
					continue
				}
				switch fields[0] {
				case "set":
					if len(fields) < 2 {
						fmt.Fprintln(out, "usage: set <field> <value>")
						continue
					}
					rest := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
					value := strings.TrimSpace(strings.TrimPrefix(rest, fields[1]))
					if err := p.SetField(fields[1], value); err != nil {
						fmt.Fprintln(out, err)
						continue
					}
					// the console has no typing bursts to absorb
					p.Flush()
				case "show":
					f := p.Form()
					fmt.Fprintf(out, "state %s\ntitle %q url %q fg %s bg %s transparent %t size %d padding %d radius %d overlay %q\n",
						p.State(), f.Title, f.URL, f.ForegroundColor, f.BackgroundColor, f.Transparent, f.Size, f.Padding, f.BorderRadius, f.OverlayText)
				case "save":
					item, err := p.Save(cmd.Context())
					if err != nil {
						reportStudioError(out, err)
						continue
					}
					fmt.Fprintf(out, "Saved as %s\n", item.ID)
				case "download":
					format := modelqr.FormatSVG
					if len(fields) > 1 {
						if format, err = modelqr.ParseFormat(fields[1]); err != nil {
							fmt.Fprintln(out, err)
							continue
						}
					}
					path, err := p.Download(cmd.Context(), format)
					if err != nil {
						reportStudioError(out, err)
						continue
					}
					fmt.Fprintf(out, "Saved %s\n", path)
				case "help":
					fmt.Fprint(out, studioHelp)
				case "quit", "exit":
					return nil
				default:
					fmt.Fprintf(out, "unknown command %q, try help\n", fields[0])
				}
			}
		}),
	}
}

// reportStudioError prints errors the controllers have not already shown as notices.
func reportStudioError(w io.Writer, err error) {
	var stateErr *serviceErrors.InvalidStateError
	if errors.As(err, &stateErr) {
		fmt.Fprintln(w, err)
	}
}
