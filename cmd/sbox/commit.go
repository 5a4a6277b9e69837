package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/czj19920117/mbox/internal/sandbox"
)

func commitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commit ROOT",
		Short: "Interactively commit overlay files at ROOT back to the host tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sbctx, err := sandbox.NewContext(args[0], true)
			if err != nil {
				return err
			}
			decisions, err := sbctx.RunInteractiveCommit(os.Stdin, os.Stdout)
			if err != nil {
				return err
			}
			committed := 0
			for _, d := range decisions {
				if d.Committed {
					committed++
				}
			}
			fmt.Printf("%d of %d file(s) committed\n", committed, len(decisions))
			return nil
		},
	}
}
