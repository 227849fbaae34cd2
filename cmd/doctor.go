package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/vtcodehq/vtcode/internal/config"
	"github.com/vtcodehq/vtcode/internal/ptyrun"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check Tool Execution Core environment and configuration health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("vtcode tec doctor")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (using defaults — not found on disk)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	fmt.Println()
	fmt.Println("  Timeouts:")
	fmt.Printf("    %-14s %ds\n", "Default:", cfg.Timeouts.DefaultSeconds)
	fmt.Printf("    %-14s %ds\n", "PTY:", cfg.Timeouts.PTYSeconds)
	fmt.Printf("    %-14s %ds\n", "MCP:", cfg.Timeouts.MCPSeconds)
	fmt.Printf("    %-14s %.0f%%\n", "Warning at:", cfg.Timeouts.WarningThreshold*100)

	fmt.Println()
	fmt.Println("  Scrollback:")
	fmt.Printf("    %-14s %d lines\n", "Max lines:", cfg.Scrollback.MaxLines)
	fmt.Printf("    %-14s %d bytes\n", "Max bytes:", cfg.Scrollback.MaxBytes)

	fmt.Println()
	fmt.Println("  URL Guard:")
	fmt.Printf("    %-14s %s\n", "Mode:", cfg.URLGuard.Mode)
	fmt.Printf("    %-14s %d\n", "Max redirects:", cfg.URLGuard.MaxRedirects)

	fmt.Println()
	fmt.Println("  PTY Runtime:")
	resolution := ptyrun.ShellResolution{
		LoginShell:           cfg.PTY.LoginShell,
		WindowsFallbackShell: cfg.PTY.WindowsFallbackShell,
	}
	shell, shellErr := resolution.ResolveShell()
	if shellErr != nil {
		fmt.Printf("    %-14s NOT FOUND (%s)\n", "Shell:", shellErr)
	} else {
		fmt.Printf("    %-14s %s\n", "Shell:", shell)
	}

	fmt.Println()
	fmt.Println("  External Tools:")
	checkBinary("git")
	checkBinary("rg")

	fmt.Println()
	ws := expandHomeForDoctor(cfg.Workspace)
	fmt.Printf("  Workspace: %s", ws)
	if _, err := os.Stat(ws); err != nil {
		fmt.Println(" (NOT FOUND)")
	} else {
		fmt.Println(" (OK)")
	}
	fmt.Printf("  Restrict to workspace: %v\n", cfg.RestrictToWorkspace)

	fmt.Println()
	fmt.Println("  Policy Store:")
	fmt.Printf("    %-14s %s", "Path:", cfg.PolicyStorePath)
	if _, err := os.Stat(cfg.PolicyStorePath); err != nil {
		fmt.Println(" (not yet created)")
	} else {
		fmt.Println(" (OK)")
	}

	fmt.Println()
	fmt.Println("Doctor check complete.")
}

func checkBinary(name string) {
	path, err := exec.LookPath(name)
	if err != nil {
		fmt.Printf("    %-12s NOT FOUND\n", name+":")
	} else {
		fmt.Printf("    %-12s %s\n", name+":", path)
	}
}

func expandHomeForDoctor(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}
