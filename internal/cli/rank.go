package cli

import (
	"context"

	"marketplace-compat/internal/common/validation"
	"marketplace-compat/internal/marketplace"

	"github.com/spf13/cobra"
)

var (
	rankCategory string
	rankProfile  string
	listingsFile string
	rankMaxItems int
	rankMinScore int
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank a set of listings for one profile",
	Long: `Rank scores every listing in the listings document (a list) against the
profile and prints them best first.`,
	Example: `  compatctl rank --category services --profile me.yaml --listings offers.yaml --max-items 5`,
	RunE:    runRank,
}

func init() {
	rankCmd.Flags().StringVarP(&rankCategory, "category", "c", "", "marketplace category (jobs, services, rentals)")
	rankCmd.Flags().StringVarP(&rankProfile, "profile", "p", "", "preference profile document")
	rankCmd.Flags().StringVarP(&listingsFile, "listings", "l", "", "document holding a list of listings")
	rankCmd.Flags().IntVar(&rankMaxItems, "max-items", 0, "maximum number of ranked listings (0 uses the configured default)")
	rankCmd.Flags().IntVar(&rankMinScore, "min-score", 0, "drop listings scoring below this")
	_ = rankCmd.MarkFlagRequired("category")
	_ = rankCmd.MarkFlagRequired("profile")
	_ = rankCmd.MarkFlagRequired("listings")
}

func runRank(cmd *cobra.Command, _ []string) error {
	profile, err := readDocument(rankProfile)
	if err != nil {
		return err
	}
	listings, err := readDocument(listingsFile)
	if err != nil {
		return err
	}

	parts := map[string]interface{}{"profile": profile, "listings": listings}
	if rankMaxItems > 0 {
		parts["maxItems"] = rankMaxItems
	}
	if rankMinScore > 0 {
		parts["minScore"] = rankMinScore
	}

	var req marketplace.RankRequest
	if err := buildRequest(parts, validation.ValidateRankRequest, &req); err != nil {
		return err
	}

	svc, err := newLocalService()
	if err != nil {
		return err
	}

	resp, err := svc.Rank(context.Background(), rankCategory, req)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), resp)
}
