package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	pkgNameStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	pkgArchStyle = lipgloss.NewStyle().Faint(true)
	labelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
)

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search TERM",
		Short: "Search available packages",
		Long: `Search available packages by name and summary. The query is delegated
read-only to dnf; dnfast only reformats the output.`,
		Example: `  dnfast search curl
  dnfast search "web server"`,
		Args: cobra.ExactArgs(1),
		RunE: searchRunCmd,
	}
}

func searchRunCmd(cmd *cobra.Command, args []string) error {
	if globalDNF == nil {
		return fmt.Errorf("dnf client not initialized")
	}

	pkgs, err := globalDNF.Search(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(pkgs) == 0 {
		fmt.Printf("No packages found matching %q\n", args[0])
		return nil
	}

	for _, p := range pkgs {
		name := pkgNameStyle.Render(p.Name)
		if p.Arch != "" {
			name += pkgArchStyle.Render("." + p.Arch)
		}
		fmt.Printf("%s\n    %s\n", name, p.Summary)
	}
	fmt.Printf("\n%d packages found\n", len(pkgs))

	return nil
}
