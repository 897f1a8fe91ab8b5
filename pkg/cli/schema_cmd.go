package cli

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

type schemaColumn struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Required bool    `json:"required,omitempty"`
	Points   float64 `json:"points,omitempty"`
	Derived  bool    `json:"derived,omitempty"`
	Enum     []struct {
		Value  string  `json:"value"`
		Points float64 `json:"points,omitempty"`
	} `json:"enum,omitempty"`
}

type schemaDoc struct {
	Version int            `json:"version"`
	Table   string         `json:"table"`
	Columns []schemaColumn `json:"columns"`
	Prompt  string         `json:"prompt"`
}

func newSchemaCmd(client *Client) *cobra.Command {
	var prompt bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the scouting schema the server is using",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var doc schemaDoc
			if err := client.Do(cmd.Context(), http.MethodGet, "/v1/schema", nil, nil, &doc); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(out, doc)
			}
			if prompt {
				_, _ = fmt.Fprintln(out, doc.Prompt)
				return nil
			}
			_, _ = fmt.Fprintf(out, "Table %s (schema version %d)\n\n", doc.Table, doc.Version)
			rows := make([][]string, len(doc.Columns))
			for i, c := range doc.Columns {
				rows[i] = []string{c.Name, c.Type, yesNo(c.Required), columnPoints(c)}
			}
			PrintTable(out, []string{"column", "type", "required", "points"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&prompt, "prompt", false, "Print the schema text given to the query generator")
	return cmd
}

func columnPoints(c schemaColumn) string {
	if c.Derived {
		return "derived"
	}
	if len(c.Enum) > 0 {
		parts := make([]string, 0, len(c.Enum))
		for _, e := range c.Enum {
			if e.Points != 0 {
				parts = append(parts, e.Value+"="+strconv.FormatFloat(e.Points, 'f', -1, 64))
			}
		}
		return strings.Join(parts, " ")
	}
	if c.Points == 0 {
		return ""
	}
	return strconv.FormatFloat(c.Points, 'f', -1, 64)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
