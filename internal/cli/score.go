package cli

import (
	"context"
	"fmt"

	"marketplace-compat/internal/common/logger"
	"marketplace-compat/internal/common/validation"
	"marketplace-compat/internal/marketplace"

	"github.com/spf13/cobra"
)

var (
	scoreCategory string
	profileFile   string
	listingFile   string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one listing against one profile",
	Example: `  compatctl score --category jobs --profile profile.yaml --listing listing.yaml
  compatctl score -c rentals -p me.json -l flat.json --compact`,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreCategory, "category", "c", "", "marketplace category (jobs, services, rentals)")
	scoreCmd.Flags().StringVarP(&profileFile, "profile", "p", "", "preference profile document")
	scoreCmd.Flags().StringVarP(&listingFile, "listing", "l", "", "listing document")
	_ = scoreCmd.MarkFlagRequired("category")
	_ = scoreCmd.MarkFlagRequired("profile")
	_ = scoreCmd.MarkFlagRequired("listing")
}

func runScore(cmd *cobra.Command, _ []string) error {
	profile, err := readDocument(profileFile)
	if err != nil {
		return err
	}
	listing, err := readDocument(listingFile)
	if err != nil {
		return err
	}

	var req marketplace.ScoreRequest
	parts := map[string]interface{}{"profile": profile, "listing": listing}
	if err := buildRequest(parts, validation.ValidateScoreRequest, &req); err != nil {
		return err
	}

	svc, err := newLocalService()
	if err != nil {
		return err
	}

	resp, err := svc.Score(context.Background(), scoreCategory, req)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), resp.Result)
}

// newLocalService builds a service with no stores, so every input is inline.
func newLocalService() (*marketplace.Service, error) {
	engine, err := newEngine()
	if err != nil {
		return nil, fmt.Errorf("load engine config: %w", err)
	}
	return marketplace.NewService(marketplace.ServiceOptions{
		Engine: engine,
		Logger: logger.NewNoOpLogger(),
	}), nil
}
