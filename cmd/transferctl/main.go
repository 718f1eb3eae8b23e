package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"transfer-status-backend/config"
	"transfer-status-backend/internal/utils"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "transferctl",
		Short:         "Inspect, normalize and watch transfer statuses",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			utils.SetOutput(cmd.ErrOrStderr())
		},
	}
	rootCmd.PersistentFlags().StringP("config", "c", os.Getenv("TRANSFERSTATUS_CONFIG"), "path to a YAML config file")

	rootCmd.AddCommand(normalizeCmd())
	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(watchCmd())
	return rootCmd
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
