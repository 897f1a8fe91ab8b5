package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

type versionReport struct {
	Version       string `json:"version"`
	Commit        string `json:"commit"`
	Host          string `json:"host,omitempty"`
	Server        string `json:"server,omitempty"`
	SchemaVersion int    `json:"schema_version,omitempty"`
	Table         string `json:"table,omitempty"`
}

func newVersionCmd(client *Client, info BuildInfo) *cobra.Command {
	var checkServer bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Long:  "Print the CLI version. With --server, also report whether the hub answers and which schema generation it serves.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report := versionReport{Version: info.Version, Commit: info.Commit}
			if checkServer {
				report.Host = client.BaseURL
				var health struct {
					Status string `json:"status"`
				}
				if err := client.Do(cmd.Context(), http.MethodGet, "/healthz", nil, nil, &health); err != nil {
					return fmt.Errorf("check %s: %w", client.BaseURL, err)
				}
				report.Server = health.Status
				var doc schemaDoc
				if err := client.Do(cmd.Context(), http.MethodGet, "/v1/schema", nil, nil, &doc); err != nil {
					return fmt.Errorf("read schema from %s: %w", client.BaseURL, err)
				}
				report.SchemaVersion, report.Table = doc.Version, doc.Table
			}

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), report)
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "scout version %s (commit: %s)\n", report.Version, report.Commit)
			if checkServer {
				_, _ = fmt.Fprintf(out, "server %s: %s, table %s at schema version %d\n",
					report.Host, report.Server, report.Table, report.SchemaVersion)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkServer, "server", false, "Also query the hub's health and schema version")
	return cmd
}
