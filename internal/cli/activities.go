package cli

import (
	"fmt"
	"time"

	"marketplace-compat/internal/common/config"
	"marketplace-compat/pkg/registry"

	"github.com/spf13/cobra"
)

var (
	activitiesOut   string
	activitiesCheck string
)

var activitiesCmd = &cobra.Command{
	Use:   "activities",
	Short: "Describe the job types the worker manager serves",
	Example: `  compatctl activities --config configs/config.yaml
  compatctl activities --out configs/activity-registry.json
  compatctl activities --check configs/activity-registry.json`,
	RunE: runActivities,
}

func init() {
	activitiesCmd.Flags().StringVarP(&activitiesOut, "out", "o", "", "write the registry to this file instead of stdout")
	activitiesCmd.Flags().StringVar(&activitiesCheck, "check", "", "validate an existing registry file")
}

func runActivities(cmd *cobra.Command, _ []string) error {
	if activitiesCheck != "" {
		reg, err := registry.LoadRegistry(activitiesCheck)
		if err != nil {
			return err
		}
		if err := registry.Validate(reg); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d activities ok\n", activitiesCheck, len(reg.Activities))
		return err
	}

	cfg := &config.Config{}
	if cfgFile != "" {
		loaded, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	reg, err := registry.Build(cfg, time.Now())
	if err != nil {
		return err
	}
	if activitiesOut != "" {
		return reg.Save(activitiesOut)
	}
	return printJSON(cmd.OutOrStdout(), reg)
}
