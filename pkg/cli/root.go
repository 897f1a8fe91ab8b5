// Package cli implements the scout command-line client for the scouthub API.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// BuildInfo identifies the binary. Empty fields read as "dev" and "none".
type BuildInfo struct {
	Version string
	Commit  string
}

// Execute runs the CLI and returns the process exit code.
func Execute(info BuildInfo) int {
	rootCmd := newRootCmd(info)
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]any{
				"error": err.Error(),
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				errObj["http_status"] = apiErr.HTTPStatus
				if apiErr.Query != "" {
					errObj["query"] = apiErr.Query
				}
				if apiErr.Stage != "" {
					errObj["stage"] = apiErr.Stage
				}
			}
			_ = PrintJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(info BuildInfo) *cobra.Command {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	var host string
	output := outputFormat("table")

	client := NewClient(defaultHost)

	rootCmd := &cobra.Command{
		Use:           "scout",
		Short:         "Scouting hub CLI",
		Long:          "Command-line interface for submitting match scouting data and asking questions about it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("output") {
				if v := os.Getenv("SCOUT_OUTPUT"); v != "" {
					if err := output.Set(v); err != nil {
						return fmt.Errorf("SCOUT_OUTPUT: %w", err)
					}
				}
			}
			resolved, err := resolveHost(host, cmd.Flags().Changed("host"), os.Getenv)
			if err != nil {
				return err
			}
			client.BaseURL = resolved
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&host, "host", defaultHost, "API host URL")
	rootCmd.PersistentFlags().VarP(&output, "output", "o", "Output format (table, json)")

	rootCmd.AddCommand(newSubmitCmd(client))
	rootCmd.AddCommand(newAskCmd(client))
	rootCmd.AddCommand(newRecordsCmd(client))
	rootCmd.AddCommand(newSchemaCmd(client))
	rootCmd.AddCommand(newExportCmd(client))
	rootCmd.AddCommand(newVersionCmd(client, info))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
