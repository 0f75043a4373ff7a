package main

import (
	"github.com/spf13/cobra"
)

func newDelCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "del <key>",
		Short: "record a tombstone for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(flags)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.Delete(args[0]); err != nil {
				return classify(err)
			}
			cmd.Println("ok")
			return nil
		},
	}
}
