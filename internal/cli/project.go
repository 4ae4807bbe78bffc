package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/structure/internal/backend"
	"github.com/roach88/structure/internal/model"
)

// NewProjectCommand creates the project command group.
func NewProjectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
		Long: `List, create, edit and delete projects, and rotate their secrets.

A project argument is either its id or its name.`,
	}

	cmd.AddCommand(newProjectListCommand(rootOpts))
	cmd.AddCommand(newProjectCreateCommand(rootOpts))
	cmd.AddCommand(newProjectEditCommand(rootOpts))
	cmd.AddCommand(newProjectDeleteCommand(rootOpts))
	cmd.AddCommand(newProjectRegenerateSecretCommand(rootOpts))

	return cmd
}

func newProjectListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List projects",
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

			projects := s.registry.Snapshot().Projects()
			return out.Report(projects, func(w io.Writer) error {
				return writeProjects(w, projects)
			})
		},
	}
}

// bindProjectFlags registers the editable project fields on cmd.
func bindProjectFlags(cmd *cobra.Command, f *model.ProjectFields) {
	flags := cmd.Flags()
	flags.StringVar(&f.DisplayName, "display-name", f.DisplayName, "human readable name (defaults to the name)")
	flags.StringVar(&f.AuthAddress, "auth-address", f.AuthAddress, "URL that authorizes private subscriptions")
	flags.IntVar(&f.MaxAuthAttempts, "max-auth-attempts", f.MaxAuthAttempts, "authorization attempts before giving up")
	flags.IntVar(&f.BackOffInterval, "back-off-interval", f.BackOffInterval, "authorization back-off interval in milliseconds")
	flags.IntVar(&f.BackOffMaxTimeout, "back-off-max-timeout", f.BackOffMaxTimeout, "authorization back-off ceiling in milliseconds")
}

// overlayProject copies the fields whose flags were set from patch onto
// base.
func overlayProject(cmd *cobra.Command, base, patch model.ProjectFields) model.ProjectFields {
	flags := cmd.Flags()
	if flags.Changed("name") {
		base.Name = patch.Name
	}
	if flags.Changed("display-name") {
		base.DisplayName = patch.DisplayName
	}
	if flags.Changed("auth-address") {
		base.AuthAddress = patch.AuthAddress
	}
	if flags.Changed("max-auth-attempts") {
		base.MaxAuthAttempts = patch.MaxAuthAttempts
	}
	if flags.Changed("back-off-interval") {
		base.BackOffInterval = patch.BackOffInterval
	}
	if flags.Changed("back-off-max-timeout") {
		base.BackOffMaxTimeout = patch.BackOffMaxTimeout
	}
	return base
}

func newProjectCreateCommand(rootOpts *RootOptions) *cobra.Command {
	fields := model.DefaultProjectFields("", "")

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Long: `Create a project with a freshly generated secret.

Names are stored lowercased and must be unique.

Example:
  structure project create demo --display-name "Demo Project"
  structure project create acme --auth-address https://acme.example/auth`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			s, err := rootOpts.openSession(cmd, out, true)
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			f := fields
			f.Name = args[0]
			if f.DisplayName == "" {
				f.DisplayName = args[0]
			}
			p, err := s.registry.CreateProject(cmd.Context(), f)
			if err != nil {
				return out.Fail(err)
			}
			return out.Report(p, func(w io.Writer) error {
				return writeProject(w, p)
			})
		},
	}

	bindProjectFlags(cmd, &fields)
	return cmd
}

func newProjectEditCommand(rootOpts *RootOptions) *cobra.Command {
	var patch model.ProjectFields

	cmd := &cobra.Command{
		Use:   "edit <project>",
		Short: "Edit a project",
		Long: `Change a project's fields. Only the flags given are changed; the id
and secret are kept.

Example:
  structure project edit demo --name demo2
  structure project edit demo --max-auth-attempts 10`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			s, err := rootOpts.openSession(cmd, out, true)
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			current, ok := s.registry.ResolveProject(args[0])
			if !ok {
				return out.Fail(backend.NotFound(backend.OpEditProject, "project", args[0]))
			}
			p, err := s.registry.EditProject(cmd.Context(), current.ID,
				overlayProject(cmd, current.Fields(), patch))
			if err != nil {
				return out.Fail(err)
			}
			return out.Report(p, func(w io.Writer) error {
				return writeProject(w, p)
			})
		},
	}

	cmd.Flags().StringVar(&patch.Name, "name", "", "new name")
	bindProjectFlags(cmd, &patch)
	return cmd
}

// DeleteResult is the data reported by delete commands.
type DeleteResult struct {
	ID      string `json:"_id"`
	Deleted bool   `json:"deleted"`
}

func newProjectDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <project>",
		Short:         "Delete a project and all of its categories",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			s, err := rootOpts.openSession(cmd, out, true)
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			p, ok := s.registry.ResolveProject(args[0])
			if !ok {
				return out.Fail(backend.NotFound(backend.OpDeleteProject, "project", args[0]))
			}
			deleted, err := s.registry.DeleteProject(cmd.Context(), p.ID)
			if err != nil {
				return out.Fail(err)
			}
			result := DeleteResult{ID: p.ID, Deleted: deleted}
			return out.Report(result, func(w io.Writer) error {
				fmt.Fprintf(w, "Deleted project %s (%s)\n", p.Name, p.ID)
				return nil
			})
		},
	}
}

// SecretResult is the data reported by regenerate-secret.
type SecretResult struct {
	ID        string `json:"_id"`
	SecretKey string `json:"secret_key"`
}

func newProjectRegenerateSecretCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate-secret <project>",
		Short: "Replace a project's secret",
		Long: `Generate a new secret for a project and print it.

Clients signing with the old secret are rejected from now on.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			s, err := rootOpts.openSession(cmd, out, true)
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			p, ok := s.registry.ResolveProject(args[0])
			if !ok {
				return out.Fail(backend.NotFound(backend.OpRegenerateSecret, "project", args[0]))
			}
			key, err := s.registry.RegenerateSecret(cmd.Context(), p.ID)
			if err != nil {
				return out.Fail(err)
			}
			result := SecretResult{ID: p.ID, SecretKey: key}
			return out.Report(result, func(w io.Writer) error {
				fmt.Fprintln(w, key)
				return nil
			})
		},
	}
}

func writeProjects(w io.Writer, projects []model.Project) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDISPLAY NAME\tAUTH ADDRESS")
	for _, p := range projects {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.DisplayName, orDash(p.AuthAddress))
	}
	return tw.Flush()
}

func writeProject(w io.Writer, p model.Project) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "id:\t%s\n", p.ID)
	fmt.Fprintf(tw, "name:\t%s\n", p.Name)
	fmt.Fprintf(tw, "display name:\t%s\n", p.DisplayName)
	fmt.Fprintf(tw, "auth address:\t%s\n", orDash(p.AuthAddress))
	fmt.Fprintf(tw, "max auth attempts:\t%d\n", p.MaxAuthAttempts)
	fmt.Fprintf(tw, "back-off:\t%s (max %s)\n", p.BackOff(), p.BackOffMax())
	fmt.Fprintf(tw, "secret:\t%s\n", p.SecretKey)
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
