package main

import (
	"fmt"

	"github.com/mmcdole/verity/pkg/permit"
	"github.com/spf13/cobra"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List recorded authorization decisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ctx.config.AuditDBPath == "" {
				return fmt.Errorf("no audit database configured (set audit_db_path)")
			}

			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer ctx.close()

			entries, err := a.store.Entries(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No decisions recorded.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					permit.FormatTimestamp(e.At),
					string(e.Decision),
					e.Identity,
					e.Printer,
					e.PermitID,
					e.Reason,
					shortHash(e.FileHash),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Time", "Decision", "Identity", "Printer", "Permit", "Reason", "File hash"},
				rows, nil))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "show at most this many recent decisions (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print entries as JSON")

	return cmd
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
