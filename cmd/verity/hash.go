package main

import (
	"fmt"

	"github.com/mmcdole/verity/pkg/fingerprint"
	"github.com/spf13/cobra"
)

func newHashCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "hash FILE...",
		Short: "Print the fingerprint of design files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hasher, err := fingerprint.New(fingerprint.Algorithm(ctx.config.HashAlgorithm))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, path := range args {
				sum, err := hasher.SumFile(cmd.Context(), ctx.fs, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s  %s\n", sum, path)
			}
			return nil
		},
	}
}
