package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gantry-dev/gantry/internal/scaffold"
)

func createCmd() *cobra.Command {
	var (
		template    string
		description string
		modulePath  string
		port        int
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new Gantry project",
		Long: `Create a new Gantry project with the specified name.

Templates:
  minimal   Just the essentials for a Gantry app
  full      Starter with views, sessions, and an example controller (default)

Examples:
  gantry create my-app
  gantry create my-api --template=minimal
  gantry create my-app --module=github.com/acme/my-app`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(args[0], template, description, modulePath, port)
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "full", "Project template (minimal, full)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Project description")
	cmd.Flags().StringVarP(&modulePath, "module", "m", "", "Go module path (defaults to the project name)")
	cmd.Flags().IntVarP(&port, "port", "p", 3000, "Default listen port written to .env")

	return cmd
}

func runCreate(name, templateName, description, modulePath string, port int) error {
	if !isValidProjectName(name) {
		return fmt.Errorf("invalid project name %q: use letters, numbers, and hyphens", name)
	}

	projectDir, err := filepath.Abs(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(projectDir); !os.IsNotExist(err) {
		return fmt.Errorf("directory %q already exists", name)
	}

	if description == "" {
		description = "A Gantry web application"
	}
	if modulePath == "" {
		modulePath = name
	}

	tmpl, err := scaffold.Get(templateName)
	if err != nil {
		return err
	}

	info("Creating project directory...")
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return err
	}

	info("Creating project from %q template...", templateName)
	err = tmpl.Create(projectDir, scaffold.Config{
		ProjectName: name,
		ModulePath:  modulePath,
		Description: description,
		Port:        port,
	})
	if err != nil {
		os.RemoveAll(projectDir)
		return err
	}

	fmt.Println()
	success("Created %s/", name)
	fmt.Println()
	fmt.Println("  To get started:")
	fmt.Println()
	fmt.Printf("    cd %s\n", name)
	fmt.Println("    go mod tidy")
	fmt.Println("    go run .")
	fmt.Println()
	fmt.Printf("  Your app will be running at http://localhost:%d\n", port)
	fmt.Println()

	return nil
}

func isValidProjectName(name string) bool {
	if name == "" {
		return false
	}
	if strings.ContainsAny(name, " /\\") {
		return false
	}
	r := name[0]
	if r >= '0' && r <= '9' {
		return false
	}
	return true
}
