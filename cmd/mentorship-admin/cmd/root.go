// Package cmd contains all CLI commands for mentorship-admin.
package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	apiURL   string
	apiToken string
	output   string
)

// Client wraps HTTP client for API calls
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new API client. token is sent as a bearer token when set.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Request makes an HTTP request to the API
func (c *Client) Request(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string   `json:"message"`
			Errors  []string `json:"errors"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Message != "" {
			if len(errResp.Errors) > 0 {
				return nil, fmt.Errorf("API error (%d): %s: %s", resp.StatusCode, errResp.Message, strings.Join(errResp.Errors, "; "))
			}
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, errResp.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// requireToken fails early for commands that call admin routes
func requireToken() error {
	if apiToken == "" {
		return fmt.Errorf("an admin token is required (--token or MENTORSHIP_ADMIN_TOKEN)")
	}
	return nil
}

// printJSON formats and prints JSON output
func printJSON(w io.Writer, data []byte) error {
	var formatted bytes.Buffer
	if err := json.Indent(&formatted, data, "", "  "); err != nil {
		// If it's not valid JSON, just print as-is
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	_, err := fmt.Fprintln(w, formatted.String())
	return err
}

// printTable prints data in a simple table format
func printTable(w io.Writer, headers []string, rows [][]string) {
	// Calculate column widths
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for i, h := range headers {
		fmt.Fprintf(w, "%-*s  ", widths[i], h)
	}
	fmt.Fprintln(w)

	for i := range headers {
		fmt.Fprintf(w, "%s  ", strings.Repeat("-", widths[i]))
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				fmt.Fprintf(w, "%-*s  ", widths[i], cell)
			}
		}
		fmt.Fprintln(w)
	}
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mentorship-admin",
	Short: "CLI tool for administering the mentorship backend",
	Long: `mentorship-admin is a command-line tool for administering the
mentorship backend through its admin API.

It provides commands for:
  - Users: list accounts and change their role
  - Health: check that the server is up

Examples:
  # List all users
  mentorship-admin user list

  # Promote a user to mentor
  mentorship-admin user set-role --id 3f0c... --role mentor

Environment Variables:
  MENTORSHIP_API_URL      Base URL of the API (default: http://localhost:5000)
  MENTORSHIP_ADMIN_TOKEN  Bearer token of an admin account`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if output != "table" && output != "json" {
			return fmt.Errorf("invalid --output %q (must be table or json)", output)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&apiURL, "url", "u", getEnvOrDefault("MENTORSHIP_API_URL", "http://localhost:5000"), "API base URL")
	rootCmd.PersistentFlags().StringVarP(&apiToken, "token", "t", os.Getenv("MENTORSHIP_ADMIN_TOKEN"), "Admin bearer token")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format: table, json")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
