package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"volunteermatch/config"
	"volunteermatch/internal/domain"
	"volunteermatch/internal/matching"
)

func scoreCmd() *cobra.Command {
	var volunteerPath, eventPath, weightsPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one volunteer against one event from JSON files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			weights, err := config.LoadScoringWeights(weightsPath)
			if err != nil {
				return err
			}
			var v domain.Volunteer
			if err := readJSON(volunteerPath, &v); err != nil {
				return fmt.Errorf("read volunteer: %w", err)
			}
			var e domain.Event
			if err := readJSON(eventPath, &e); err != nil {
				return fmt.Errorf("read event: %w", err)
			}
			v.Skills = matching.NormalizeSkills(v.Skills)
			e.RequiredSkills = matching.NormalizeSkills(e.RequiredSkills)

			score := matching.ComputeMatchScore(&v, &e, weights)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(score)
			}
			printScore(cmd.OutOrStdout(), &v, &e, score)
			return nil
		},
	}

	cmd.Flags().StringVar(&volunteerPath, "volunteer", "", "Path to a volunteer JSON file")
	cmd.Flags().StringVar(&eventPath, "event", "", "Path to an event JSON file")
	cmd.Flags().StringVar(&weightsPath, "weights", "", "Optional YAML scoring weights file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the score as JSON")
	_ = cmd.MarkFlagRequired("volunteer")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}

func readJSON(path string, dest any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(dest)
}

func printScore(w io.Writer, v *domain.Volunteer, e *domain.Event, s domain.MatchScore) {
	fmt.Fprintf(w, "%s for %s: %d (%s)\n", v.Name, e.Name, s.Score, s.Tier)
	for _, r := range s.Reasons() {
		fmt.Fprintf(w, "  %s\n", r)
	}
}
