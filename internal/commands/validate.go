package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pacioli-dev/pacioli/internal/input"
	"github.com/pacioli-dev/pacioli/internal/model"
	"github.com/pacioli-dev/pacioli/internal/validate"
)

func newValidateCommand(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <invoice|quotation|receipt|customer|freelancer> <file>",
		Short: "Check a JSON input file without generating anything",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			what, path := args[0], args[1]

			var check func(any) validate.Result
			subject := what + " data"
			switch what {
			case "customer":
				check = validate.Customer
			case "freelancer":
				check = validate.Freelancer
				subject = "freelancer config"
			default:
				kind, err := model.ParseKind(what)
				if err != nil {
					return fmt.Errorf("%w; or customer, freelancer", err)
				}
				check = func(v any) validate.Result { return validate.Document(kind, v) }
			}

			data, err := input.ReadJSON(path)
			if err != nil {
				return err
			}
			if err := check(data).Err(subject); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s is a valid %s\n", path, what)
			return nil
		},
	}
}
