package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/opsdesk/internal/core"
)

func newEntitiesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "entities",
		Short: "List importable entities and their columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defs := core.All()
			out := cmd.OutOrStdout()

			if asJSON {
				infos := make([]core.EntityInfo, len(defs))
				for i, def := range defs {
					infos[i] = def.Info
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ENTITY\tLABEL\tROLES\tCOLUMNS")
			for _, def := range defs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					def.Info.Key,
					def.Info.Label,
					strings.Join(def.Info.AllowedRoles, ","),
					strings.Join(def.Info.Columns, ","),
				)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}
