package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vtcodehq/vtcode/internal/skills"
)

func skillsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "skills",
		Short: "Inspect discoverable skills",
	}
	c.AddCommand(skillsListCmd())
	return c
}

func skillsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Run skill discovery and print name, description, and source for each",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfigOrExit()
			loader, err := skills.NewLoader(skills.SearchPath{
				ProjectDir:   cfg.Skills.ProjectDir,
				WorkspaceDir: cfg.Skills.WorkspaceDir,
				UserDir:      cfg.Skills.UserDir,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "skill discovery error: %s\n", err)
				os.Exit(1)
			}
			defer loader.Close()

			manifests := loader.List()
			if len(manifests) == 0 {
				fmt.Println("(no skills discovered)")
				return
			}
			for _, m := range manifests {
				fmt.Printf("%-24s %-50s %s\n", m.Name, m.Description, m.SourcePath)
			}
		},
	}
}
