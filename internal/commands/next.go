package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pacioli-dev/pacioli/internal/counter"
	"github.com/pacioli-dev/pacioli/internal/model"
)

func newNextCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "next <type>",
		Short: "Show the number the next auto-numbered document will get",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseKind(args[0])
			if err != nil {
				return err
			}

			store := counter.NewFileStore(a.path(a.cfg.Paths.Counter))
			number, err := store.Peek(cmd.Context(), kind)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), number)
			return nil
		},
	}
}
