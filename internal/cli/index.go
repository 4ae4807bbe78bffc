package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/structure/internal/index"
)

// NewIndexCommand creates the index command.
func NewIndexCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Summarize the lookup indices",
		Long: `Rebuild the project and category indices from storage and print a
summary: category counts per project and any categories whose project no
longer exists.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			s, err := rootOpts.openSession(cmd, out, true)
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			summary := s.registry.Snapshot().Summarize()
			return out.Report(summary, func(w io.Writer) error {
				return writeSummary(w, summary)
			})
		},
	}
}

func writeSummary(w io.Writer, s index.Summary) error {
	fmt.Fprintf(w, "%d projects, %d categories\n", s.Projects, s.Categories)
	if len(s.ByProject) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "PROJECT\tID\tCATEGORIES")
		for _, p := range s.ByProject {
			fmt.Fprintf(tw, "%s\t%s\t%v\n", p.Name, p.ID, p.Categories)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if len(s.Orphans) > 0 {
		fmt.Fprintf(w, "orphan categories: %v\n", s.Orphans)
	}
	return nil
}
