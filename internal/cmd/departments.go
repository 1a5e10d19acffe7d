package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/roster/internal/ux"
)

func newDepartmentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "departments",
		Aliases: []string{"depts"},
		Short:   "List departments",
		Long:    "List the departments employees can be assigned to. The ids are what --department expects.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.requireSession(); err != nil {
				return err
			}
			deps, err := rt.client.ListDepartments(cmd.Context())
			if err != nil {
				return rt.fail(err, "list departments")
			}
			return rt.print(ux.Departments(deps))
		},
	}
}
