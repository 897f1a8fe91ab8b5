package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type submitResult struct {
	ID        string         `json:"id"`
	CSVStatus string         `json:"csv_status"`
	DBStatus  string         `json:"db_status"`
	Record    map[string]any `json:"record"`
}

func newSubmitCmd(client *Client) *cobra.Command {
	var scan bool

	cmd := &cobra.Command{
		Use:   "submit <file>",
		Short: "Submit one scouting record",
		Long: "Submits a scouting record read from a file (or - for stdin). JSON objects go to " +
			"/v1/submit; anything else, or any input with --scan, is sent as a scanned payload.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			var res submitResult
			if !scan && looksLikeObject(data) {
				err = client.Do(cmd.Context(), http.MethodPost, "/v1/submit", nil, data, &res)
			} else {
				body := map[string]string{"payload": strings.TrimSpace(string(data))}
				err = client.Do(cmd.Context(), http.MethodPost, "/v1/scan", nil, body, &res)
			}
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), res)
			}
			PrintTable(cmd.OutOrStdout(), []string{"id", "team", "match", "csv", "db"}, [][]string{{
				res.ID,
				formatCell(res.Record["team"]),
				formatCell(res.Record["match_number"]),
				res.CSVStatus,
				res.DBStatus,
			}})
			return nil
		},
	}

	cmd.Flags().BoolVar(&scan, "scan", false, "Treat the input as a scanned payload (JSON, base64, or gzip+base64)")
	return cmd
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func looksLikeObject(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	return json.Valid(trimmed)
}
