package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ludex/internal/scanner"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Discover installed games across configured launchers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			scanners := scanner.FromConfig(cfg, logger)
			if len(scanners) == 0 {
				return fmt.Errorf("no scan sources enabled; check [sources] in the configuration")
			}
			results := scanner.All(cmd.Context(), scanners, logger)

			if jsonOut {
				return writeJSON(cmd, results)
			}

			rows := make([][]string, 0, len(results))
			for _, result := range results {
				rows = append(rows, []string{
					string(result.Source),
					result.Title,
					result.AppID,
					string(result.Status),
					result.InstallPath,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Source", "Title", "App ID", "Status", "Install Path"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "%d installed game(s) found\n", len(results))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit scan results as JSON")
	return cmd
}
