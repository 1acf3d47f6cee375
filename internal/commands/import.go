package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/foresight/internal/categorize"
	"github.com/cleared-dev/foresight/internal/importer"
	"github.com/cleared-dev/foresight/internal/log"
)

func newImportCommand(flags *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a bank CSV into the ledger",
		Long: "Import a bank CSV into the ledger. Without a file, every CSV waiting in\n" +
			"import/ is imported and moved to import/processed/.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := openProject(ctx, flags.repo)
			if err != nil {
				return err
			}
			defer p.Close()

			cat, err := categorize.Load(p.root)
			if err != nil {
				return err
			}
			svc := importer.NewService(p.root, p.ledger, importer.DefaultRegistry(), cat, p.logger)

			var results []importer.Result
			if len(args) == 1 {
				path, err := filepath.Abs(args[0])
				if err != nil {
					return fmt.Errorf("resolving path: %w", err)
				}
				res, err := svc.ImportFile(path, format)
				if err != nil {
					p.audit(log.OpImport, err, "")
					return err
				}
				results = append(results, res)
			} else {
				results, err = svc.ImportPending()
				if err != nil {
					p.audit(log.OpImport, err, "")
					return err
				}
			}

			added := 0
			var files []string
			for _, r := range results {
				added += r.Added
				files = append(files, r.File)
			}
			p.audit(log.OpImport, nil, fmt.Sprintf("%d entries from %s", added, strings.Join(files, " ")))
			if added > 0 {
				p.commit(ctx, fmt.Sprintf("import: %d entries from %s", added, strings.Join(files, ", ")))
			}

			if flags.json {
				return printJSON(cmd.OutOrStdout(), results)
			}
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No files waiting in import/.")
				return nil
			}
			for _, r := range results {
				fmt.Fprintf(out, "%s (%s): %d parsed, %d added, %d skipped\n",
					r.File, r.Format, r.Parsed, r.Added, r.Skipped)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "bank format (detected from the header when empty)")

	return cmd
}
