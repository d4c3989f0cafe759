package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// userCmd represents the user command group
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "User management commands",
	Long: `Commands for inspecting crewbase users.

These commands operate directly on the database file and are intended
for system administrators.

Examples:
  # List all users
  crewctl user list`,
}

// userListCmd lists all users
var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	Long: `List all users in the database.

Displays email, name, and creation date for each user.
Password hashes are never displayed.

Example:
  crewctl user list`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		userList, err := store.Users().List(ctx)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}

		if len(userList) == 0 {
			fmt.Println("No users found.")
			return nil
		}

		fmt.Printf("\n%-36s  %-30s  %-25s  %s\n",
			"ID", "EMAIL", "NAME", "CREATED")
		fmt.Println(strings.Repeat("-", 110))

		for _, u := range userList {
			fmt.Printf("%-36s  %-30s  %-25s  %s\n",
				u.ID,
				u.Email,
				u.FullName(),
				u.CreatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		fmt.Printf("\nTotal: %d user(s)\n", len(userList))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userListCmd)
}
