package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/structure/internal/backend"
	"github.com/roach88/structure/internal/store"
)

// DoctorResult is the data reported by the doctor command.
type DoctorResult struct {
	Driver  string              `json:"driver"`
	Tables  []store.TableStatus `json:"tables"`
	Missing []string            `json:"missing,omitempty"`
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the expected tables exist",
		Long: `Inspect the database without provisioning it.

Each expected table is reported as present (with its row count) or
missing. Missing tables exit with code 2; run "structure init" to create
them.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(rootOpts, cmd)
		},
	}
}

func runDoctor(opts *RootOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	s, err := opts.openSession(cmd, out, false)
	if err != nil {
		return err
	}
	defer s.close(cmd.Context())

	tables, err := s.store.Tables(cmd.Context())
	if err != nil {
		return out.Fail(err)
	}

	result := DoctorResult{Driver: s.store.Driver(), Tables: tables}
	for _, t := range tables {
		if !t.Present {
			result.Missing = append(result.Missing, t.Name)
		}
	}

	if len(result.Missing) > 0 {
		if out.Format != "json" {
			_ = writeTables(out.Writer, tables)
		}
		return out.Fail(backend.Schema("doctor",
			"missing tables: "+strings.Join(result.Missing, ", "), backend.ErrNotReady))
	}

	return out.Report(result, func(w io.Writer) error {
		fmt.Fprintf(w, "All tables present (%s)\n", result.Driver)
		return writeTables(w, tables)
	})
}

// writeTables prints one line per expected table.
func writeTables(w io.Writer, tables []store.TableStatus) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tSTATUS\tROWS")
	for _, t := range tables {
		status := "missing"
		rows := "-"
		if t.Present {
			status = "present"
			rows = fmt.Sprint(t.Rows)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Name, status, rows)
	}
	return tw.Flush()
}
