package main

import (
	"errors"
	"fmt"

	"github.com/mmcdole/verity/pkg/permit"
	"github.com/mmcdole/verity/pkg/workflow"
	"github.com/spf13/cobra"
)

// rejectionOutput is the JSON shape printed for a refused request
type rejectionOutput struct {
	Status  string `json:"status"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func newAuthorizeCommand(ctx *commandContext) *cobra.Command {
	var (
		file       string
		fp         string
		user       string
		printer    string
		jsonOutput bool
		noDelay    bool
	)

	cmd := &cobra.Command{
		Use:   "authorize",
		Short: "Request a print permit for a design file",
		Long: `Fingerprint a design file and request a permit for it.

The permit is printed when the user may use the printer. Otherwise the
reason is printed and the command exits with a non-zero status.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (file == "") == (fp == "") {
				return fmt.Errorf("exactly one of --file or --fingerprint is required")
			}

			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer ctx.close()

			delay := a.evaluationDelay()
			if noDelay {
				delay = 0
			}
			session, err := a.newSession(delay)
			if err != nil {
				return err
			}

			if fp != "" {
				if err := session.UseFingerprint("(precomputed)", fp); err != nil {
					return fmt.Errorf("invalid fingerprint: %w", err)
				}
			} else if _, err := session.OpenFile(cmd.Context(), file).Wait(cmd.Context()); err != nil {
				return err
			}

			if err := session.SelectPrinter(printer); err != nil {
				if errors.Is(err, workflow.ErrPrinterNotListed) {
					return fmt.Errorf("%w (available: %v)", err, a.registry.List())
				}
				return err
			}
			session.SetIdentity(user)

			if delay > 0 && !jsonOutput {
				fmt.Fprintln(cmd.ErrOrStderr(), "Evaluating authorization...")
			}
			p, err := session.Submit(cmd.Context()).Wait(cmd.Context())
			if err != nil {
				reason, ok := workflow.ReasonOf(err)
				if !ok {
					return err
				}
				if jsonOutput {
					if werr := writeJSON(cmd, rejectionOutput{
						Status:  "REJECTED",
						Reason:  string(reason),
						Message: workflow.Message(err),
					}); werr != nil {
						return werr
					}
				}
				return errors.New(workflow.Message(err))
			}

			if jsonOutput {
				return writeJSON(cmd, p)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPermit(p))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "design file to fingerprint")
	cmd.Flags().StringVar(&fp, "fingerprint", "", "precomputed fingerprint instead of --file")
	cmd.Flags().StringVarP(&user, "user", "u", "", "identity requesting the permit")
	cmd.Flags().StringVarP(&printer, "printer", "p", "", "printer to authorize")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the permit as JSON")
	cmd.Flags().BoolVar(&noDelay, "no-delay", false, "skip the simulated evaluation delay")

	return cmd
}

func renderPermit(p *permit.Permit) string {
	return renderTable(
		[]string{"Field", "Value"},
		[][]string{
			{"Permit ID", p.ID},
			{"Status", p.Status},
			{"User", p.User},
			{"Printer", p.Printer},
			{"File hash", p.FileHash},
			{"Issued", p.Timestamp},
		},
		nil,
	)
}
