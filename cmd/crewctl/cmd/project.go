package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var projectCompanyID string

// projectCmd represents the project command group
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project management commands",
	Long: `Commands for inspecting crewbase projects.

Examples:
  # List projects of a company
  crewctl project list --company-id <id>`,
}

// projectListCmd lists the projects of a company
var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects of a company",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()

		company, err := store.Companies().GetByID(ctx, projectCompanyID)
		if err != nil {
			return fmt.Errorf("get company: %w", err)
		}
		if company == nil {
			return fmt.Errorf("company '%s' not found", projectCompanyID)
		}

		projects, err := store.Projects().ListByCompany(ctx, projectCompanyID)
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}

		if len(projects) == 0 {
			fmt.Printf("No projects found for %s.\n", company.Name)
			return nil
		}

		fmt.Printf("\nProjects of %s:\n\n", company.Name)
		fmt.Printf("%-36s  %-25s  %-25s  %s\n", "ID", "NAME", "CREATED BY", "CREATED")
		fmt.Println(strings.Repeat("-", 110))

		for _, p := range projects {
			creator := strings.TrimSpace(p.CreatorFirstName + " " + p.CreatorLastName)
			if creator == "" {
				creator = "-"
			}
			fmt.Printf("%-36s  %-25s  %-25s  %s\n",
				p.ID,
				p.Name,
				creator,
				p.CreatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		fmt.Printf("\nTotal: %d project(s)\n", len(projects))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectListCmd)

	projectListCmd.Flags().StringVar(&projectCompanyID, "company-id", "", "company ID (required)")
	projectListCmd.MarkFlagRequired("company-id")
}
