package main

import (
	"github.com/spf13/cobra"
)

func newPutCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "put <key> <value>",
		Short: "write a key/value pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(flags)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.Put(args[0], args[1]); err != nil {
				return classify(err)
			}
			cmd.Println("ok")
			return nil
		},
	}
}
