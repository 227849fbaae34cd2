package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func auditCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit trail",
	}
	c.AddCommand(auditTailCmd())
	return c
}

func auditTailCmd() *cobra.Command {
	var lines int
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print the last N lines of the JSONL audit sink",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfigOrExit()
			if cfg.Audit.LogPath == "" {
				fmt.Println("(no JSONL audit sink configured)")
				return
			}
			f, err := os.Open(cfg.Audit.LogPath)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Println("(audit log has not been created yet)")
					return
				}
				fmt.Fprintf(os.Stderr, "audit tail error: %s\n", err)
				os.Exit(1)
			}
			defer f.Close()

			ring := make([]string, 0, lines)
			scanner := bufio.NewScanner(f)
			scanner.Buffer(make([]byte, 64*1024), 1024*1024)
			for scanner.Scan() {
				ring = append(ring, scanner.Text())
				if len(ring) > lines {
					ring = ring[1:]
				}
			}
			if err := scanner.Err(); err != nil {
				fmt.Fprintf(os.Stderr, "audit tail error: %s\n", err)
				os.Exit(1)
			}
			for _, line := range ring {
				fmt.Println(line)
			}
		},
	}
	cmd.Flags().IntVar(&lines, "lines", 20, "number of trailing events to print")
	return cmd
}
