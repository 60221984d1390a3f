package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/opsdesk/internal/core"
	"github.com/JonMunkholm/opsdesk/internal/logging"
)

type importOptions struct {
	userID    string
	strict    bool
	nonAtomic bool
	asJSON    bool
}

func newImportCmd(a *app) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <entity> <file>",
		Short: "Import a CSV or XLSX file on behalf of a user",
		Args:  cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(strings.TrimSpace(opts.userID))
			if err != nil {
				return withCode(exitUsage, fmt.Errorf("invalid --user: %w", err))
			}
			opts.userID = id.String()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), a, cmd.OutOrStdout(), args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVar(&opts.userID, "user", "", "UUID of the user the import runs as (required)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Block the import while any reference is unresolved")
	cmd.Flags().BoolVar(&opts.nonAtomic, "non-atomic", false, "Commit valid rows even when some rows fail")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runImport(ctx context.Context, a *app, out io.Writer, entity, path string, opts importOptions) error {
	if _, ok := core.Get(entity); !ok {
		return withCode(exitUsage, fmt.Errorf("%w: %s", core.ErrUnknownEntity, entity))
	}

	backend, closeDB, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	svc, err := a.newService(backend, func(c *core.Config) {
		if opts.strict {
			c.ReferenceMode = core.ReferenceStrict
		}
		if opts.nonAtomic {
			c.Atomic = false
		}
	})
	if err != nil {
		return err
	}
	defer svc.Shutdown(context.WithoutCancel(ctx))

	f, err := os.Open(path)
	if err != nil {
		return withCode(exitUsage, err)
	}
	defer f.Close()

	ctx = core.ContextWithCaller(ctx, opts.userID)
	log := logging.FromContext(ctx).With("entity", entity, "file", path)
	log.Info("import started")

	result, importErr := svc.Import(ctx, entity, opts.userID, filepath.Base(path), f)
	if result != nil {
		if err := printResult(out, result, opts.asJSON); err != nil {
			return err
		}
	}
	if importErr != nil {
		log.Warn("import failed", "error", importErr)
		return withCode(importExitCode(importErr), core.NewUserError(importErr))
	}

	log.Info("import finished", "inserted", result.Inserted, "failed", result.Failed)
	if result.Failed > 0 {
		return withCode(exitValidation, fmt.Errorf("%d row(s) failed", result.Failed))
	}
	return nil
}

func importExitCode(err error) int {
	var be *core.BackendError
	switch {
	case errors.As(err, &be):
		return exitDB
	case errors.Is(err, core.ErrPermissionDenied), errors.Is(err, core.ErrReferencesUnresolved),
		errors.Is(err, core.ErrEmptyFile), errors.Is(err, core.ErrUnsupportedFile), errors.Is(err, core.ErrFileTooLarge):
		return exitValidation
	default:
		return exitFailed
	}
}

func printResult(w io.Writer, r *core.ImportResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	fmt.Fprintf(w, "%s: submitted %d, inserted %d, failed %d (%s)\n",
		r.Entity, r.Submitted, r.Inserted, r.Failed, r.Duration.Round(time.Millisecond))
	for _, o := range r.Outcomes {
		if o.Status == core.OutcomeFailed {
			fmt.Fprintf(w, "  line %d: %s\n", o.Line, o.Error)
		}
	}
	for _, is := range r.Issues {
		fmt.Fprintf(w, "  line %d, %s: %s\n", is.Line, is.Field, is.Message)
	}
	return nil
}
