package cli

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

type askAnswer struct {
	Question  string           `json:"question"`
	Query     string           `json:"query"`
	Columns   []string         `json:"columns"`
	Data      []map[string]any `json:"data"`
	Truncated bool             `json:"truncated"`
	Fixups    []string         `json:"fixups,omitempty"`
	Summary   string           `json:"summary"`
}

func newAskCmd(client *Client) *cobra.Command {
	var showQuery bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a natural-language question about the scouting data",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			var ans askAnswer
			err := client.Do(cmd.Context(), http.MethodPost, "/v1/ask", nil, map[string]string{"question": question}, &ans)
			if err != nil {
				var apiErr *APIError
				if errors.As(err, &apiErr) && apiErr.Query != "" && getOutputFormat(cmd) != "json" {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Query: %s\n", apiErr.Query)
				}
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), ans)
			}
			out := cmd.OutOrStdout()
			if showQuery {
				_, _ = fmt.Fprintf(out, "Query: %s\n", ans.Query)
				for _, f := range ans.Fixups {
					_, _ = fmt.Fprintf(out, "Fixup: %s\n", f)
				}
				_, _ = fmt.Fprintln(out)
			}
			if len(ans.Columns) > 0 && len(ans.Data) > 0 {
				rows := make([][]string, len(ans.Data))
				for i, row := range ans.Data {
					cells := make([]string, len(ans.Columns))
					for j, c := range ans.Columns {
						cells[j] = formatCell(row[c])
					}
					rows[i] = cells
				}
				PrintTable(out, ans.Columns, rows)
				if ans.Truncated {
					_, _ = fmt.Fprintf(out, "(showing first %d rows)\n", len(ans.Data))
				}
				_, _ = fmt.Fprintln(out)
			}
			_, _ = fmt.Fprintln(out, ans.Summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showQuery, "show-query", false, "Print the executed SQL and any applied fixups")
	return cmd
}
