package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listInstalled bool

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available or installed packages",
		Long: `List packages known to dnf. Shows available packages by default;
use --installed for packages already on the system.`,
		Example: `  dnfast list
  dnfast list --installed`,
		RunE: listRunCmd,
	}

	cmd.Flags().BoolVar(&listInstalled, "installed", false, "list installed packages instead of available ones")

	return cmd
}

func listRunCmd(cmd *cobra.Command, args []string) error {
	if globalDNF == nil {
		return fmt.Errorf("dnf client not initialized")
	}

	pkgs, err := globalDNF.List(cmd.Context(), listInstalled)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	if len(pkgs) == 0 {
		fmt.Println("No packages found")
		return nil
	}

	nameWidth := len("NAME")
	for _, p := range pkgs {
		if w := len(p.Name); w > nameWidth {
			nameWidth = w
		}
	}

	fmt.Println(labelStyle.Render(fmt.Sprintf("%-*s  %-10s  %-24s  %s", nameWidth, "NAME", "ARCH", "VERSION", "REPO")))
	for _, p := range pkgs {
		fmt.Printf("%s  %-10s  %-24s  %s\n",
			pkgNameStyle.Render(fmt.Sprintf("%-*s", nameWidth, p.Name)),
			p.Arch, p.Version, p.Repo)
	}
	fmt.Printf("\n%d packages\n", len(pkgs))

	return nil
}
