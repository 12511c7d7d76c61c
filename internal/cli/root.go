// Package cli provides the compatctl command-line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"marketplace-compat/internal/common/config"
	"marketplace-compat/internal/compatibility"

	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "1.0.0"

	// Global flags
	cfgFile string
	compact bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "compatctl",
	Short: "Score marketplace listings against preference profiles",
	Long: `compatctl runs the compatibility engine locally against profile and
listing documents (YAML or JSON), prints the configured weight tables and
starts scoring workflows on the Zeebe broker.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file with a compatibility section (default: built-in tables)")
	rootCmd.PersistentFlags().BoolVar(&compact, "compact", false, "print single-line JSON")

	rootCmd.AddCommand(scoreCmd, rankCmd, weightsCmd, submitCmd, activitiesCmd)
}

func newEngine() (*compatibility.Engine, error) {
	engineCfg, err := config.LoadEngineConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	return compatibility.NewEngine(engineCfg), nil
}

func printJSON(w io.Writer, v interface{}) error {
	var (
		out []byte
		err error
	)
	if compact {
		out, err = json.Marshal(v)
	} else {
		out, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
