package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info PACKAGE",
		Short: "Show details for a package",
		Long: `Show version, size, repository, and description for a single package.
The query is delegated read-only to dnf.`,
		Example: `  dnfast info curl`,
		Args:    cobra.ExactArgs(1),
		RunE:    infoRunCmd,
	}
}

func infoRunCmd(cmd *cobra.Command, args []string) error {
	if globalDNF == nil {
		return fmt.Errorf("dnf client not initialized")
	}

	info, err := globalDNF.Info(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("info failed: %w", err)
	}

	printField := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Printf("%s %s\n", labelStyle.Render(fmt.Sprintf("%-12s", label+":")), value)
	}

	fmt.Println(pkgNameStyle.Render(info.Name))
	printField("Version", info.Version)
	printField("Arch", info.Arch)
	printField("Size", info.Size)
	printField("Repo", info.Repo)
	printField("License", info.License)
	printField("URL", info.URL)
	printField("Summary", info.Summary)
	if info.Description != "" {
		fmt.Printf("\n%s\n", info.Description)
	}

	return nil
}
