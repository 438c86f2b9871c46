package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ludex/internal/config"
	"ludex/internal/match"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var source string
	var appID string

	cmd := &cobra.Command{
		Use:   "match <title>",
		Short: "Search the catalogs for a title and show the scored ranking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			coordinator, err := ctx.newCoordinator()
			if err != nil {
				return err
			}
			defer coordinator.Stop()

			provs, err := ctx.buildProviders(coordinator)
			if err != nil {
				return err
			}
			if len(provs) == 0 {
				return fmt.Errorf("no catalog providers configured; add credentials under [providers]")
			}

			title := args[0]
			input := match.Input{Title: title, Source: source, ExternalID: appID}
			hint := providerHint(source, appID)

			var candidates []match.Candidate
			for _, provider := range provs {
				results, err := provider.Search(cmd.Context(), title, hint)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: search failed: %v\n", provider.Name(), err)
					continue
				}
				for _, result := range results {
					candidate := match.Candidate{
						ID:     result.ID,
						Title:  result.Title,
						Source: result.Provider,
					}
					if result.Provider == config.ServiceSteamStore {
						candidate.ExternalID = result.ID
						candidate.TrustedID = true
					}
					candidates = append(candidates, candidate)
				}
			}

			ranked, accepted := match.Rank(input, candidates, cfg.Matching.AcceptThreshold)
			if jsonOut {
				return writeJSON(cmd, struct {
					Accepted bool           `json:"accepted"`
					Results  []match.Result `json:"results"`
				}{accepted, ranked})
			}

			rows := make([][]string, 0, len(ranked))
			for _, result := range ranked {
				rows = append(rows, []string{
					result.Candidate.Source,
					result.Candidate.Title,
					result.Candidate.ID,
					fmt.Sprintf("%.2f", result.Confidence),
					strings.Join(result.Reasons, "; "),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Provider", "Candidate", "ID", "Confidence", "Reasons"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			if accepted {
				fmt.Fprintf(out, "accepted: %s (%s) at %.2f\n", ranked[0].Candidate.Title, ranked[0].Candidate.Source, ranked[0].Confidence)
			} else {
				fmt.Fprintf(out, "no candidate cleared the %.2f acceptance threshold\n", cfg.Matching.AcceptThreshold)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the ranking as JSON")
	cmd.Flags().StringVar(&source, "source", "", "Launcher source to attribute the title to")
	cmd.Flags().StringVar(&appID, "app-id", "", "Launcher-native app id to corroborate against")
	return cmd
}
