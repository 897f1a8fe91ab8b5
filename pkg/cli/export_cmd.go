package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func newExportCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Upload a snapshot of the CSV file to object storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var res struct {
				Bucket string `json:"bucket"`
				Key    string `json:"key"`
			}
			if err := client.Do(cmd.Context(), http.MethodPost, "/v1/export", nil, nil, &res); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), res)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported to s3://%s/%s\n", res.Bucket, res.Key)
			return nil
		},
	}
}
