package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/czj19920117/mbox/internal/config"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "sbox",
		Short: "sbox — a ptrace filesystem-overlay sandbox",
		Long: "sbox traces a child process and transparently redirects its filesystem writes\n" +
			"into a copy-on-write overlay, so nothing it does touches the host tree until\n" +
			"you choose to commit it.",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/sbox/config.yaml)")
	root.AddCommand(runCmd(), commitCmd(), historyCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves the --config flag (falling back to
// config.UserConfigPath) and loads it, merging CLI overrides happens
// in each subcommand's RunE.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		p, err := config.UserConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return config.Load(path)
}
