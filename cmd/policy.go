package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vtcodehq/vtcode/internal/policystore"
)

func policyCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "policy",
		Short: "Inspect and mutate the Policy Store",
	}
	c.AddCommand(policyListCmd())
	c.AddCommand(policyAllowCmd())
	c.AddCommand(policyDenyCmd())
	c.AddCommand(policyResetCmd())
	return c
}

func openPolicyStoreOrExit() *policystore.Store {
	cfg := loadConfigOrExit()
	store, err := policystore.Open(cfg.PolicyStorePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "policy store error: %s\n", err)
		os.Exit(1)
	}
	return store
}

func policyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every tool with a stored policy decision",
		Run: func(cmd *cobra.Command, args []string) {
			store := openPolicyStoreOrExit()
			all := store.All()
			names := make([]string, 0, len(all))
			for name := range all {
				names = append(names, name)
			}
			sort.Strings(names)
			if len(names) == 0 {
				fmt.Println("(no stored policy decisions)")
				return
			}
			for _, name := range names {
				fmt.Printf("%-30s %s\n", name, all[name])
			}
		},
	}
}

func policyAllowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "allow <tool>",
		Short: "Record an always_allow decision for a tool",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			store := openPolicyStoreOrExit()
			if err := store.Set(args[0], policystore.DecisionAlwaysAllow); err != nil {
				fmt.Fprintf(os.Stderr, "policy store error: %s\n", err)
				os.Exit(1)
			}
			fmt.Printf("%s: always_allow\n", args[0])
		},
	}
}

func policyDenyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deny <tool>",
		Short: "Record an always_deny decision for a tool",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			store := openPolicyStoreOrExit()
			if err := store.Set(args[0], policystore.DecisionAlwaysDeny); err != nil {
				fmt.Fprintf(os.Stderr, "policy store error: %s\n", err)
				os.Exit(1)
			}
			fmt.Printf("%s: always_deny\n", args[0])
		},
	}
}

func policyResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <tool>",
		Short: "Remove a tool's stored decision, reverting to prompt_each_time",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			store := openPolicyStoreOrExit()
			if err := store.Reset(args[0]); err != nil {
				fmt.Fprintf(os.Stderr, "policy store error: %s\n", err)
				os.Exit(1)
			}
			fmt.Printf("%s: reset to prompt_each_time\n", args[0])
		},
	}
}
