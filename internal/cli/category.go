package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/structure/internal/backend"
	"github.com/roach88/structure/internal/model"
)

// NewCategoryCommand creates the category command group.
func NewCategoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage categories",
		Long: `List, create, edit and delete categories.

Categories are addressed by project (id or name) and category name.`,
	}

	cmd.AddCommand(newCategoryListCommand(rootOpts))
	cmd.AddCommand(newCategoryCreateCommand(rootOpts))
	cmd.AddCommand(newCategoryEditCommand(rootOpts))
	cmd.AddCommand(newCategoryDeleteCommand(rootOpts))

	return cmd
}

func newCategoryListCommand(rootOpts *RootOptions) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List categories",
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

			categories := s.registry.Snapshot().Categories()
			if projectRef != "" {
				p, ok := s.registry.ResolveProject(projectRef)
				if !ok {
					return out.Fail(backend.NotFound(backend.OpListCategories, "project", projectRef))
				}
				categories = s.registry.CategoriesOf(p.ID)
			}
			return out.Report(categories, func(w io.Writer) error {
				return writeCategories(w, categories)
			})
		},
	}

	cmd.Flags().StringVar(&projectRef, "project", "", "only list this project's categories")
	return cmd
}

// bindCategoryFlags registers the editable category fields on cmd.
func bindCategoryFlags(cmd *cobra.Command, f *model.CategoryFields) {
	flags := cmd.Flags()
	flags.BoolVar(&f.Publish, "publish", f.Publish, "allow clients to publish")
	flags.BoolVar(&f.IsWatching, "is-watching", f.IsWatching, "send messages to admin watchers")
	flags.BoolVar(&f.Presence, "presence", f.Presence, "track presence")
	flags.BoolVar(&f.History, "history", f.History, "keep message history")
	flags.IntVar(&f.HistorySize, "history-size", f.HistorySize, "messages kept per channel")
	flags.BoolVar(&f.IsProtected, "is-protected", f.IsProtected, "reject anonymous subscribers")
	flags.StringVar(&f.AuthAddress, "auth-address", f.AuthAddress, "overrides the project's auth address")
}

// overlayCategory copies the fields whose flags were set from patch onto
// base.
func overlayCategory(cmd *cobra.Command, base, patch model.CategoryFields) model.CategoryFields {
	flags := cmd.Flags()
	if flags.Changed("name") {
		base.Name = patch.Name
	}
	if flags.Changed("publish") {
		base.Publish = patch.Publish
	}
	if flags.Changed("is-watching") {
		base.IsWatching = patch.IsWatching
	}
	if flags.Changed("presence") {
		base.Presence = patch.Presence
	}
	if flags.Changed("history") {
		base.History = patch.History
	}
	if flags.Changed("history-size") {
		base.HistorySize = patch.HistorySize
	}
	if flags.Changed("is-protected") {
		base.IsProtected = patch.IsProtected
	}
	if flags.Changed("auth-address") {
		base.AuthAddress = patch.AuthAddress
	}
	return base
}

func newCategoryCreateCommand(rootOpts *RootOptions) *cobra.Command {
	fields := model.DefaultCategoryFields("")

	cmd := &cobra.Command{
		Use:   "create <project> <name>",
		Short: "Create a category in a project",
		Long: `Create a category. Category names are unique across all projects.

Example:
  structure project create demo
  structure category create demo news --publish --history-size 50`,
		Args:          cobra.ExactArgs(2),
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
				return out.Fail(backend.NotFound(backend.OpCreateCategory, "project", args[0]))
			}
			f := fields
			f.Name = args[1]
			c, err := s.registry.CreateCategory(cmd.Context(), p.ID, f)
			if err != nil {
				return out.Fail(err)
			}
			return out.Report(c, func(w io.Writer) error {
				return writeCategory(w, c, p)
			})
		},
	}

	bindCategoryFlags(cmd, &fields)
	return cmd
}

func newCategoryEditCommand(rootOpts *RootOptions) *cobra.Command {
	var patch model.CategoryFields

	cmd := &cobra.Command{
		Use:   "edit <project> <name>",
		Short: "Edit a category",
		Long: `Change a category's fields. Only the flags given are changed.

Example:
  structure category edit demo news --history=false
  structure category edit demo news --name headlines`,
		Args:          cobra.ExactArgs(2),
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
				return out.Fail(backend.NotFound(backend.OpEditCategory, "project", args[0]))
			}
			current, ok := s.registry.CategoryByName(p.ID, args[1])
			if !ok {
				return out.Fail(backend.NotFound(backend.OpEditCategory, "category", args[1]))
			}
			c, err := s.registry.EditCategory(cmd.Context(), current.ID,
				overlayCategory(cmd, current.Fields(), patch))
			if err != nil {
				return out.Fail(err)
			}
			return out.Report(c, func(w io.Writer) error {
				return writeCategory(w, c, p)
			})
		},
	}

	cmd.Flags().StringVar(&patch.Name, "name", "", "new name")
	bindCategoryFlags(cmd, &patch)
	return cmd
}

// CategoryDeleteResult is the data reported by category delete. Deleted is
// false when no category matched.
type CategoryDeleteResult struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Deleted   bool   `json:"deleted"`
}

func newCategoryDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <project> <name>",
		Short:         "Delete a category",
		Args:          cobra.ExactArgs(2),
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
				return out.Fail(backend.NotFound(backend.OpDeleteCategory, "project", args[0]))
			}
			deleted, err := s.registry.DeleteCategory(cmd.Context(), p.ID, args[1])
			if err != nil {
				return out.Fail(err)
			}
			result := CategoryDeleteResult{ProjectID: p.ID, Name: args[1], Deleted: deleted}
			return out.Report(result, func(w io.Writer) error {
				if !deleted {
					fmt.Fprintf(w, "No category %s in project %s\n", args[1], p.Name)
					return nil
				}
				fmt.Fprintf(w, "Deleted category %s from project %s\n", args[1], p.Name)
				return nil
			})
		},
	}
}

func writeCategories(w io.Writer, categories []model.Category) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPROJECT\tNAME\tPUBLISH\tPRESENCE\tHISTORY\tPROTECTED")
	for _, c := range categories {
		history := "off"
		if c.History {
			history = fmt.Sprint(c.HistorySize)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%t\t%s\t%t\n",
			c.ID, c.ProjectID, c.Name, c.Publish, c.Presence, history, c.IsProtected)
	}
	return tw.Flush()
}

func writeCategory(w io.Writer, c model.Category, p model.Project) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "id:\t%s\n", c.ID)
	fmt.Fprintf(tw, "project:\t%s (%s)\n", p.Name, p.ID)
	fmt.Fprintf(tw, "name:\t%s\n", c.Name)
	fmt.Fprintf(tw, "publish:\t%t\n", c.Publish)
	fmt.Fprintf(tw, "watching:\t%t\n", c.IsWatching)
	fmt.Fprintf(tw, "presence:\t%t\n", c.Presence)
	fmt.Fprintf(tw, "history:\t%t (%d)\n", c.History, c.HistorySize)
	fmt.Fprintf(tw, "protected:\t%t\n", c.IsProtected)
	fmt.Fprintf(tw, "auth address:\t%s\n", orDash(c.EffectiveAuthAddress(p)))
	return tw.Flush()
}
