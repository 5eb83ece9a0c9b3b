package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sigrams/livevalidate/internal/errors"
)

func pagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pages",
		Short: "List the pages in the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := a.cfg.Store().List(cmd.Context())
			if err != nil {
				return errors.New("E202").WithDetail("Listing the page store failed").Wrap(err)
			}
			for _, name := range names {
				fmt.Fprintln(a.stdout, name)
			}
			return nil
		},
	}
}
