package cli

import (
	"marketplace-compat/internal/compatibility"

	"github.com/spf13/cobra"
)

var weightsCategory string

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Print the weight tables the engine scores with",
	RunE:  runWeights,
}

func init() {
	weightsCmd.Flags().StringVarP(&weightsCategory, "category", "c", "", "only this category")
}

func runWeights(cmd *cobra.Command, _ []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}

	categories := compatibility.Categories()
	if weightsCategory != "" {
		category, err := compatibility.ParseCategory(weightsCategory)
		if err != nil {
			return err
		}
		categories = []compatibility.Category{category}
	}

	tables := make(map[compatibility.Category][]compatibility.KindWeight, len(categories))
	for _, category := range categories {
		if table, ok := engine.Weights(category); ok {
			tables[category] = table.SortedWeights()
		}
	}
	return printJSON(cmd.OutOrStdout(), tables)
}
