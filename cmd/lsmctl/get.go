package main

import (
	"github.com/spf13/cobra"
)

func newGetCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "read a key's current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(flags)
			if err != nil {
				return err
			}
			defer e.Close()

			v, ok, err := e.Get(args[0])
			if err != nil {
				return classify(err)
			}
			if !ok {
				return notFoundErr(args[0])
			}
			cmd.Println(v)
			return nil
		},
	}
}
