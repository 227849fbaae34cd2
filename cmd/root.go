package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vtcodehq/vtcode/internal/config"
)

// Version is set at build time via -ldflags "-X github.com/vtcodehq/vtcode/cmd.Version=v1.0.0"
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "vtcode",
	Short: "VTCode — terminal coding agent",
	Long:  "VTCode: a terminal coding agent with a sandboxed Tool Execution Core for filesystem, process, and network tool calls.",
}

var tecCmd = &cobra.Command{
	Use:   "tec",
	Short: "Tool Execution Core operator commands",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: vtcode.json5 or $VTCODE_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(tecCmd)
	tecCmd.AddCommand(doctorCmd())
	tecCmd.AddCommand(versionCmd())
	tecCmd.AddCommand(policyCmd())
	tecCmd.AddCommand(auditCmd())
	tecCmd.AddCommand(skillsCmd())
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("vtcode tec %s\n", Version)
		},
	}
}

func resolveConfigPath() string {
	return config.ResolveConfigPath(cfgFile)
}

func loadConfigOrExit() *config.Config {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %s\n", err)
		os.Exit(1)
	}
	return cfg
}

// Execute runs the root cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
