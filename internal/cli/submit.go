package cli

import (
	"context"
	"fmt"
	"time"

	"marketplace-compat/internal/common/camunda"
	"marketplace-compat/internal/common/config"
	"marketplace-compat/internal/compatibility"

	"github.com/spf13/cobra"
)

// DefaultProcessID is the BPMN process that scores a user against listings.
const DefaultProcessID = "marketplace-compatibility"

var (
	submitProcessID  string
	submitCategory   string
	submitUserID     string
	submitListingIDs []string
	submitQuery      string
	submitTimeout    time.Duration
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Start a compatibility workflow on the Zeebe broker",
	Example: `  compatctl submit --category jobs --user-id user-42 --listing-id job-1
  compatctl submit --category rentals --user-id user-7 --query "two bedroom" --config configs/config.yaml`,
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitProcessID, "process-id", DefaultProcessID, "BPMN process id")
	submitCmd.Flags().StringVarP(&submitCategory, "category", "c", "", "marketplace category (jobs, services, rentals)")
	submitCmd.Flags().StringVar(&submitUserID, "user-id", "", "requester whose stored profile is scored")
	submitCmd.Flags().StringSliceVar(&submitListingIDs, "listing-id", nil, "listing to score; repeat for ranking")
	submitCmd.Flags().StringVar(&submitQuery, "query", "", "search text used when no listing ids are given")
	submitCmd.Flags().DurationVar(&submitTimeout, "timeout", 30*time.Second, "broker request timeout")
	_ = submitCmd.MarkFlagRequired("category")
	_ = submitCmd.MarkFlagRequired("user-id")
}

// processVariables builds the variables a workflow instance starts with.
func processVariables(category compatibility.Category, userID string, listingIDs []string, query string) map[string]interface{} {
	vars := map[string]interface{}{
		"category": string(category),
		"userId":   userID,
	}
	switch {
	case len(listingIDs) == 1:
		vars["listingId"] = listingIDs[0]
	case len(listingIDs) > 1:
		vars["listingIds"] = listingIDs
	}
	if query != "" {
		vars["query"] = query
	}
	return vars
}

func runSubmit(cmd *cobra.Command, _ []string) error {
	category, err := compatibility.ParseCategory(submitCategory)
	if err != nil {
		return err
	}

	var cfg *config.Config
	if cfgFile != "" {
		cfg, err = config.LoadFromFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	client, err := camunda.NewClient(cfg.Camunda)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	key, err := client.StartProcess(ctx, submitProcessID, processVariables(category, submitUserID, submitListingIDs, submitQuery))
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), map[string]interface{}{
		"processId":          submitProcessID,
		"processInstanceKey": key,
	})
}
