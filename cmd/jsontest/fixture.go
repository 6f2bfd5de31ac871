package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/jsontest/pkg/fixture"
)

func newFixtureCmd() *cobra.Command {
	var (
		addr    string
		routes  string
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "fixture",
		Short: "Serve canned JSON responses for trying out tests",
		Long: `Serve a table of canned responses keyed by path. Without --routes the
built-in table is used (/login_success, /login_fail, /ok, /empty, /missing,
/not_json, /teapot). Unknown paths answer 404 with a JSON body.

A routes file maps paths to responses:

  /users/1:
    status: 200
    json: {id: 1, name: alice}
  /broken:
    raw: "<html>"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			table := fixture.DefaultRoutes()
			if routes != "" {
				var err error
				if table, err = fixture.LoadRoutes(routes); err != nil {
					return err
				}
			}
			logger := newLogger(cmd.ErrOrStderr(), slog.LevelInfo, verbose)
			return fixture.Serve(cmd.Context(), addr, fixture.NewHandler(table, logger), logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8000", "Listen address")
	cmd.Flags().StringVar(&routes, "routes", "", "YAML route table (default: built-in routes)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every request")
	return cmd
}
