package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/crewbase/crewbase/internal/api/auth"
	"github.com/crewbase/crewbase/internal/models"
)

var (
	companyName        string
	companyDescription string
	ownerEmail         string
	ownerFirstName     string
	ownerLastName      string
)

// companyCmd represents the company command group
var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "Company management commands",
	Long: `Commands for managing crewbase companies.

Examples:
  # List all companies
  crewctl company list

  # Bootstrap a company with its owner account
  crewctl company create --name "Acme" --owner-email admin@acme.com \
      --owner-first-name Ada --owner-last-name Lovelace

  # List the members of a company
  crewctl company members --id <company-id>`,
}

// companyListCmd lists all companies
var companyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all companies",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		companies, err := store.Companies().List(ctx)
		if err != nil {
			return fmt.Errorf("list companies: %w", err)
		}

		if len(companies) == 0 {
			fmt.Println("No companies found.")
			return nil
		}

		fmt.Printf("\n%-36s  %-25s  %-40s  %s\n",
			"ID", "NAME", "DESCRIPTION", "CREATED")
		fmt.Println(strings.Repeat("-", 120))

		for _, c := range companies {
			desc := c.Description
			if len(desc) > 40 {
				desc = desc[:37] + "..."
			}
			fmt.Printf("%-36s  %-25s  %-40s  %s\n",
				c.ID,
				c.Name,
				desc,
				c.CreatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		fmt.Printf("\nTotal: %d company(ies)\n", len(companies))

		return nil
	},
}

// companyCreateCmd bootstraps a company together with its owner account.
var companyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a company with its owner account",
	Long: `Create a company together with its owner account.

The owner's password is prompted interactively for security reasons
(to avoid exposing it in shell history). The company, the owner user,
and the owner membership are created in a single transaction.

Example:
  crewctl company create --name "Acme" --owner-email admin@acme.com \
      --owner-first-name Ada --owner-last-name Lovelace`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := auth.ValidateEmail(ownerEmail); err != nil {
			return fmt.Errorf("invalid owner email: %w", err)
		}

		password, err := promptPassword("Enter owner password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if password == "" {
			return fmt.Errorf("password must not be empty")
		}

		confirm, err := promptPassword("Confirm owner password: ")
		if err != nil {
			return fmt.Errorf("read password confirmation: %w", err)
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		store, err := openDatabase()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()

		owner := models.NewUser(strings.ToLower(strings.TrimSpace(ownerEmail)), ownerFirstName, ownerLastName)
		owner.ID = uuid.New().String()
		owner.PasswordHash = hash

		company := models.NewCompany(companyName, companyDescription)
		company.ID = uuid.New().String()

		if err := store.Companies().CreateWithOwner(ctx, company, owner); err != nil {
			return fmt.Errorf("create company: %w", err)
		}

		fmt.Printf("\nCompany created successfully:\n")
		fmt.Printf("  ID:    %s\n", company.ID)
		fmt.Printf("  Name:  %s\n", company.Name)
		fmt.Printf("  Owner: %s (%s)\n", owner.FullName(), owner.Email)

		return nil
	},
}

var companyMembersID string

// companyMembersCmd lists the members of a company
var companyMembersCmd = &cobra.Command{
	Use:   "members",
	Short: "List the members of a company",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()

		company, err := store.Companies().GetByID(ctx, companyMembersID)
		if err != nil {
			return fmt.Errorf("get company: %w", err)
		}
		if company == nil {
			return fmt.Errorf("company '%s' not found", companyMembersID)
		}

		members, err := store.Companies().Members(ctx, companyMembersID)
		if err != nil {
			return fmt.Errorf("list members: %w", err)
		}

		fmt.Printf("\nMembers of %s:\n\n", company.Name)
		fmt.Printf("%-30s  %-25s  %-8s  %s\n", "EMAIL", "NAME", "ROLE", "JOINED")
		fmt.Println(strings.Repeat("-", 90))

		for _, m := range members {
			fmt.Printf("%-30s  %-25s  %-8s  %s\n",
				m.Email,
				m.FirstName+" "+m.LastName,
				m.Role,
				m.JoinedAt.Format("2006-01-02 15:04:05"),
			)
		}
		fmt.Printf("\nTotal: %d member(s)\n", len(members))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(companyCmd)
	companyCmd.AddCommand(companyListCmd)
	companyCmd.AddCommand(companyCreateCmd)
	companyCmd.AddCommand(companyMembersCmd)

	companyCreateCmd.Flags().StringVar(&companyName, "name", "", "company name (required)")
	companyCreateCmd.Flags().StringVar(&companyDescription, "description", "", "company description")
	companyCreateCmd.Flags().StringVar(&ownerEmail, "owner-email", "", "owner email (required)")
	companyCreateCmd.Flags().StringVar(&ownerFirstName, "owner-first-name", "", "owner first name (required)")
	companyCreateCmd.Flags().StringVar(&ownerLastName, "owner-last-name", "", "owner last name (required)")
	companyCreateCmd.MarkFlagRequired("name")
	companyCreateCmd.MarkFlagRequired("owner-email")
	companyCreateCmd.MarkFlagRequired("owner-first-name")
	companyCreateCmd.MarkFlagRequired("owner-last-name")

	companyMembersCmd.Flags().StringVar(&companyMembersID, "id", "", "company ID (required)")
	companyMembersCmd.MarkFlagRequired("id")
}
