package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"transfer-status-backend/internal/format"
	"transfer-status-backend/internal/models"
	"transfer-status-backend/internal/normalize"
)

func normalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [file]",
		Short: "Normalize a raw transfer payload read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			raw, err := io.ReadAll(in)
			if err != nil {
				return err
			}

			summary := normalize.New().Normalize(raw)
			return printJSON(cmd.OutOrStdout(), struct {
				Summary models.TransferSummary `json:"summary"`
				Display format.Display         `json:"display"`
			}{summary, format.DisplayOf(summary)})
		},
	}
}
