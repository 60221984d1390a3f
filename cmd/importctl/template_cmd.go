package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/opsdesk/internal/core"
)

type templateOptions struct {
	format string
	outDir string
	stdout bool
}

func newTemplateCmd() *cobra.Command {
	var opts templateOptions

	cmd := &cobra.Command{
		Use:   "template <entity>",
		Short: "Write the blank import template for an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				name string
				data []byte
				err  error
			)
			switch opts.format {
			case "csv":
				name, data, err = core.GenerateTemplate(args[0])
			case "xlsx":
				name, data, err = core.GenerateTemplateXLSX(args[0])
			default:
				return withCode(exitUsage, fmt.Errorf("invalid --format %q (csv or xlsx)", opts.format))
			}
			if err != nil {
				return withCode(exitUsage, err)
			}

			if opts.stdout {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}

			path := filepath.Join(opts.outDir, name)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write template: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "csv", "Template format: csv or xlsx")
	cmd.Flags().StringVar(&opts.outDir, "out", ".", "Directory to write the template to")
	cmd.Flags().BoolVar(&opts.stdout, "stdout", false, "Write the template to stdout instead of a file")
	return cmd
}
