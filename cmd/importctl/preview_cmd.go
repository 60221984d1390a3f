package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/opsdesk/internal/core"
)

type previewOptions struct {
	offline bool
	asJSON  bool
	rows    int
}

func newPreviewCmd(a *app) *cobra.Command {
	var opts previewOptions

	cmd := &cobra.Command{
		Use:   "preview <entity> <file>",
		Short: "Parse a file and report what an import would do",
		Long: "Parse a file and report the first rows and every row issue.\n" +
			"References are checked against the database when DATABASE_URL is set.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, path := args[0], args[1]
			def, ok := core.Get(entity)
			if !ok {
				return withCode(exitUsage, fmt.Errorf("%w: %s", core.ErrUnknownEntity, entity))
			}

			var refs core.ReferenceSet
			if !opts.offline && a.cfg.Database.URL != "" {
				backend, closeDB, err := a.connect(cmd.Context())
				if err != nil {
					return err
				}
				defer closeDB()

				refs, err = core.LoadReferences(cmd.Context(), backend, def.RefKinds())
				if err != nil {
					return withCode(exitDB, err)
				}
			} else {
				a.log.Debug("previewing without reference checks", "entity", entity)
			}

			svc, err := a.newService(nil, func(c *core.Config) {
				if opts.rows > 0 {
					c.PreviewRows = opts.rows
				}
			})
			if err != nil {
				return err
			}

			f, err := os.Open(path)
			if err != nil {
				return withCode(exitUsage, err)
			}
			defer f.Close()

			preview, err := svc.PreviewFile(entity, filepath.Base(path), f, refs)
			if err != nil {
				return withCode(exitValidation, err)
			}

			if opts.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(preview); err != nil {
					return err
				}
			} else if err := printPreview(cmd.OutOrStdout(), def, preview); err != nil {
				return err
			}

			if len(preview.Issues) > 0 {
				return withCode(exitValidation, fmt.Errorf("%d row issue(s) found", len(preview.Issues)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Skip reference checks even when a database is configured")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the preview as JSON")
	cmd.Flags().IntVar(&opts.rows, "rows", 0, "Number of rows to show (default from IMPORT_PREVIEW_ROWS)")
	return cmd
}

func printPreview(w io.Writer, def core.EntityDefinition, p *core.Preview) error {
	fmt.Fprintf(w, "%s: %d row(s)\n\n", def.Info.Label, p.RowCount)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(p.Headers, "\t"))
	for _, row := range p.Rows {
		shown := core.DisplayRow(def, row)
		cells := make([]string, len(p.Headers))
		for i, h := range p.Headers {
			cells[i] = shown[h]
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(p.Issues) == 0 {
		fmt.Fprintln(w, "\nNo issues found.")
		return nil
	}
	fmt.Fprintf(w, "\n%d issue(s):\n", len(p.Issues))
	for _, is := range p.Issues {
		fmt.Fprintf(w, "  line %d, %s: %s\n", is.Line, is.Field, is.Message)
	}
	return nil
}
