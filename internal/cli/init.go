package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/structure/internal/store"
)

// InitResult is the data reported by the init command.
type InitResult struct {
	Driver string              `json:"driver"`
	Ready  bool                `json:"ready"`
	Tables []store.TableStatus `json:"tables"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Provision the storage schema",
		Long: `Create the projects and categories tables if they do not exist.

Running init against a provisioned database changes nothing.

Example:
  structure init --db ./structure.db
  structure init --driver mysql --db 'user:pass@tcp(localhost:3306)/structure'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, cmd)
		},
	}
}

func runInit(opts *RootOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	s, err := opts.openSession(cmd, out, true)
	if err != nil {
		return err
	}
	defer s.close(cmd.Context())

	tables, err := s.store.Tables(cmd.Context())
	if err != nil {
		return out.Fail(err)
	}

	result := InitResult{Driver: s.store.Driver(), Ready: s.store.Ready(), Tables: tables}
	return out.Report(result, func(w io.Writer) error {
		fmt.Fprintf(w, "Schema ready (%s)\n", result.Driver)
		return writeTables(w, tables)
	})
}
