package cli

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

type auditEntry struct {
	ID         string         `json:"id"`
	ReceivedAt time.Time      `json:"received_at"`
	Source     string         `json:"source"`
	Record     map[string]any `json:"record"`
	CSVStatus  string         `json:"csv_status"`
	DBStatus   string         `json:"db_status"`
}

type recordsPage struct {
	Records []auditEntry `json:"records"`
	Count   int          `json:"count"`
}

func newRecordsCmd(client *Client) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List recently accepted submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			var page recordsPage
			if err := client.Do(cmd.Context(), http.MethodGet, "/v1/records", q, nil, &page); err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), page)
			}
			rows := make([][]string, len(page.Records))
			for i, e := range page.Records {
				rows[i] = []string{
					e.ID,
					e.ReceivedAt.Format(time.RFC3339),
					e.Source,
					formatCell(e.Record["team"]),
					formatCell(e.Record["match_number"]),
					e.CSVStatus,
					e.DBStatus,
				}
			}
			PrintTable(cmd.OutOrStdout(), []string{"id", "received", "source", "team", "match", "csv", "db"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of most recent records to show (0 for all)")
	return cmd
}
