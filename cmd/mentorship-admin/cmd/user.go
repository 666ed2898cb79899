package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// User is the admin view of an account
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserListResponse represents the list users response
type UserListResponse struct {
	Users []User `json:"users"`
}

// UserResponse wraps a single user
type UserResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
	Long:  `Commands for listing users and changing their role.`,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}

		client := NewClient(apiURL, apiToken)
		data, err := client.Request(cmd.Context(), "GET", "/api/admin/users", nil)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if output == "json" {
			return printJSON(out, data)
		}

		var resp UserListResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}

		if len(resp.Users) == 0 {
			fmt.Fprintln(out, "No users found.")
			return nil
		}

		headers := []string{"ID", "EMAIL", "NAME", "ROLE", "ACTIVE", "CREATED"}
		rows := make([][]string, len(resp.Users))
		for i, u := range resp.Users {
			rows[i] = []string{
				u.ID,
				u.Email,
				u.FirstName + " " + u.LastName,
				u.Role,
				strconv.FormatBool(u.IsActive),
				u.CreatedAt.Format("2006-01-02"),
			}
		}
		printTable(out, headers, rows)
		return nil
	},
}

var (
	setRoleID   string
	setRoleRole string
)

var userSetRoleCmd = &cobra.Command{
	Use:   "set-role",
	Short: "Change a user's role",
	Long:  `Change the role of a user to mentor, mentee or admin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}
		switch setRoleRole {
		case "mentor", "mentee", "admin":
		default:
			return fmt.Errorf("invalid --role %q (must be mentor, mentee or admin)", setRoleRole)
		}

		client := NewClient(apiURL, apiToken)
		data, err := client.Request(cmd.Context(), "PUT", "/api/admin/users/"+setRoleID+"/role",
			map[string]string{"role": setRoleRole})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if output == "json" {
			return printJSON(out, data)
		}

		var resp UserResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		fmt.Fprintf(out, "User '%s' is now %s.\n", resp.User.Email, resp.User.Role)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userSetRoleCmd)

	userSetRoleCmd.Flags().StringVar(&setRoleID, "id", "", "User ID (required)")
	userSetRoleCmd.Flags().StringVar(&setRoleRole, "role", "", "New role: mentor, mentee, admin (required)")
	_ = userSetRoleCmd.MarkFlagRequired("id")
	_ = userSetRoleCmd.MarkFlagRequired("role")
}
