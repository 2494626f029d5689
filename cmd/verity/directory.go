package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newDirectoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "directory",
		Short: "Show which identities may use which printers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer ctx.close()

			var grants [][]string
			for _, identity := range a.directory.Identities() {
				grants = append(grants, []string{identity, strings.Join(a.directory.Printers(identity), ", ")})
			}

			var printers [][]string
			for i, p := range a.registry.List() {
				printers = append(printers, []string{strconv.Itoa(i + 1), p})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Identity", "Printers"}, grants, nil))
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderTable([]string{"#", "Printer"}, printers, []columnAlignment{alignRight, alignLeft}))
			return nil
		},
	}
}
