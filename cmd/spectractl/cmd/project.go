package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spectraops/spectraops/internal/models"
	"github.com/spectraops/spectraops/internal/sanitize"
	"github.com/spectraops/spectraops/internal/storage"
)

var (
	projectDBPath string
	projectOwner  string
	projectName   string
	projectID     string
)

// projectCmd represents the project command group
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project management commands",
	Long: `Commands for managing SpectraOps projects.

Projects are always owned by a dashboard user, so every command takes
the owner's email. API keys are shown in full; treat the output as a
secret.

Examples:
  # List a user's projects
  spectractl project list --owner admin@example.com

  # Create a project
  spectractl project create --owner admin@example.com --name "My App"

  # Rotate a project's API key after a leak
  spectractl project rotate-key --id <project-id> --owner admin@example.com`,
}

// projectListCmd lists a user's projects
var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's projects",
	Long: `List all projects owned by a user.

Example:
  spectractl project list --owner admin@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, owner, err := openForOwner(projectDBPath, projectOwner)
		if err != nil {
			return err
		}
		defer store.Close()

		projects, err := store.Projects().ListByUser(context.Background(), owner.ID)
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}

		if len(projects) == 0 {
			fmt.Println("No projects found.")
			return nil
		}

		// Print header
		fmt.Printf("\n%-36s  %-30s  %-36s  %s\n", "ID", "NAME", "API KEY", "CREATED")
		fmt.Println(strings.Repeat("-", 120))

		for _, p := range projects {
			fmt.Printf("%-36s  %-30s  %-36s  %s\n",
				p.ID,
				truncate(p.Name, 30),
				p.APIKey,
				p.CreatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		fmt.Printf("\nTotal: %d project(s)\n", len(projects))

		return nil
	},
}

// projectCreateCmd creates a new project
var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new project",
	Long: `Create a project owned by a user and print its generated API key.

Example:
  spectractl project create --owner admin@example.com --name "My App"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := sanitize.StripAndTrim(projectName, 100)
		if name == "" {
			return fmt.Errorf("--name is required")
		}

		store, owner, err := openForOwner(projectDBPath, projectOwner)
		if err != nil {
			return err
		}
		defer store.Close()

		project := models.NewProject(name, owner.ID)
		if err := store.Projects().Create(context.Background(), project); err != nil {
			return fmt.Errorf("create project: %w", err)
		}

		fmt.Printf("\nProject created successfully:\n")
		fmt.Printf("  ID:      %s\n", project.ID)
		fmt.Printf("  Name:    %s\n", project.Name)
		fmt.Printf("  API key: %s\n", project.APIKey)

		return nil
	},
}

// projectDeleteCmd deletes a project
var projectDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a project",
	Long: `Delete a project and all of its error events.

The project must be owned by the given user.

Example:
  spectractl project delete --id <project-id> --owner admin@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, owner, err := openForOwner(projectDBPath, projectOwner)
		if err != nil {
			return err
		}
		defer store.Close()

		deleted, err := store.Projects().DeleteOwned(context.Background(), projectID, owner.ID)
		if err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		if !deleted {
			return fmt.Errorf("project '%s' not found for owner '%s'", projectID, owner.Email)
		}

		fmt.Printf("Project '%s' deleted.\n", projectID)
		return nil
	},
}

// projectRotateKeyCmd rotates a project's API key
var projectRotateKeyCmd = &cobra.Command{
	Use:   "rotate-key",
	Short: "Rotate a project's API key",
	Long: `Generate a new API key for a project, invalidating the old one.

SDK clients configured with the old key stop being accepted as soon as
the command completes.

Example:
  spectractl project rotate-key --id <project-id> --owner admin@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, owner, err := openForOwner(projectDBPath, projectOwner)
		if err != nil {
			return err
		}
		defer store.Close()

		project, err := store.Projects().RotateKey(context.Background(), projectID, owner.ID)
		if err != nil {
			return fmt.Errorf("rotate key: %w", err)
		}
		if project == nil {
			return fmt.Errorf("project '%s' not found for owner '%s'", projectID, owner.Email)
		}

		fmt.Printf("\nAPI key rotated for project '%s':\n", project.Name)
		fmt.Printf("  New key: %s\n", project.APIKey)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	projectCmd.AddCommand(projectRotateKeyCmd)

	for _, cmd := range []*cobra.Command{projectListCmd, projectCreateCmd, projectDeleteCmd, projectRotateKeyCmd} {
		cmd.Flags().StringVar(&projectDBPath, "db", defaultDBPath, "path to SQLite database file")
		cmd.Flags().StringVar(&projectOwner, "owner", "", "email of the owning user (required)")
		cmd.MarkFlagRequired("owner")
	}

	projectCreateCmd.Flags().StringVar(&projectName, "name", "", "name for the new project (required)")
	projectCreateCmd.MarkFlagRequired("name")

	for _, cmd := range []*cobra.Command{projectDeleteCmd, projectRotateKeyCmd} {
		cmd.Flags().StringVar(&projectID, "id", "", "project ID (required)")
		cmd.MarkFlagRequired("id")
	}
}

// openForOwner opens the database and resolves the owning user by email.
func openForOwner(path, email string) (*storage.SQLiteStorage, *models.User, error) {
	if email == "" {
		return nil, nil, fmt.Errorf("--owner is required")
	}

	store, err := openDatabase(path)
	if err != nil {
		return nil, nil, err
	}

	owner, err := store.Users().GetByEmail(context.Background(), strings.TrimSpace(email))
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("find owner: %w", err)
	}
	if owner == nil {
		store.Close()
		return nil, nil, fmt.Errorf("user '%s' not found", email)
	}

	return store, owner, nil
}
