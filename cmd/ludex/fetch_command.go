package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ludex/internal/library"
	"ludex/internal/providers"
	"ludex/internal/scanner"
)

func providerHint(source, appID string) providers.Hint {
	return providers.Hint{Source: source, AppID: appID}
}

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Scan launchers, resolve metadata, and persist the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			coordinator, err := ctx.newCoordinator()
			if err != nil {
				return err
			}
			defer coordinator.Stop()

			service, err := ctx.newMetadataService(coordinator)
			if err != nil {
				return err
			}
			store, err := ctx.openLibrary()
			if err != nil {
				return err
			}
			defer store.Close()

			scanners := scanner.FromConfig(cfg, logger)
			if len(scanners) == 0 {
				return fmt.Errorf("no scan sources enabled; check [sources] in the configuration")
			}
			results := scanner.All(cmd.Context(), scanners, logger)

			var records []*library.GameRecord
			for _, scanned := range results {
				if scanned.Status == scanner.StatusError {
					continue
				}
				record, err := service.Resolve(cmd.Context(), scanned)
				if err != nil {
					return err
				}
				if err := store.Upsert(cmd.Context(), record); err != nil {
					return err
				}
				records = append(records, record)
			}

			if jsonOut {
				return writeJSON(cmd, records)
			}

			resolved := 0
			rows := make([][]string, 0, len(records))
			for _, record := range records {
				if record.Status == scanner.StatusReady {
					resolved++
				}
				rows = append(rows, []string{
					record.Title,
					string(record.Source),
					record.Provider,
					fmt.Sprintf("%.2f", record.Confidence),
					string(record.Status),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Title", "Source", "Provider", "Confidence", "Status"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "resolved %d of %d scanned game(s)\n", resolved, len(records))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit resolved records as JSON")
	return cmd
}
