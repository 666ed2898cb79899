package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// HealthResponse is the body of /health
type HealthResponse struct {
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the server is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(apiURL, "")
		data, err := client.Request(cmd.Context(), "GET", "/health", nil)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if output == "json" {
			return printJSON(out, data)
		}

		var resp HealthResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		fmt.Fprintf(out, "%s (environment: %s, at %s)\n", resp.Message, resp.Environment, resp.Timestamp)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
