package main

import (
	"net/url"

	"github.com/spf13/cobra"

	"transfer-status-backend/core"
	"transfer-status-backend/internal/resolver"
)

func resolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [ref]",
		Short: "Resolve a transfer through the backend, cache, query and placeholder chain",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app := core.NewApp(cfg)
			defer app.Stop()

			req := resolver.Request{}
			if len(args) == 1 {
				req.Ref = args[0]
			}
			req.Session, _ = cmd.Flags().GetString("session")
			query, _ := cmd.Flags().GetString("query")
			if query != "" {
				if req.Query, err = url.ParseQuery(query); err != nil {
					return err
				}
			}

			return printJSON(cmd.OutOrStdout(), app.Resolver.Load(cmd.Context(), req))
		},
	}
	cmd.Flags().StringP("session", "s", "", "session whose last_transfer entry to consult")
	cmd.Flags().StringP("query", "q", "", "fallback query string, e.g. 'amount=10&ccy=EUR'")
	return cmd
}
