package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/strata/pkg/hierarchy"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// variantView is the JSON form of one variant.
type variantView struct {
	Name             string   `json:"name"`
	Tag              string   `json:"tag"`
	Parent           string   `json:"parent,omitempty"`
	Strict           bool     `json:"strict"`
	Registered       bool     `json:"registered"`
	ReachableTags    []string `json:"reachable_tags"`
	PersistedColumns []string `json:"persisted_columns"`
	TypeColumn       string   `json:"type_column,omitempty"`
}

func newDescribeCmd() *cobra.Command {
	var discriminator string
	cmd := &cobra.Command{
		Use:   "describe [variant]",
		Short: "Describe the hierarchy or one variant",
		Long: `Describe prints the declared hierarchy as a tree. Given a variant name or
tag it prints the variant's tag, reachable tags, persisted columns, and
qualified type column.

Example:
  strata describe
  strata describe Car
  strata describe Car --discriminator kind`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			h, err := e.loadHierarchy()
			if err != nil {
				return err
			}

			render := func(h *hierarchy.Hierarchy) error {
				if len(args) == 0 {
					return describeTree(cmd.OutOrStdout(), h)
				}
				v, err := h.Lookup(args[0])
				if err != nil {
					return classify(err, "describe")
				}
				return describeVariant(cmd.OutOrStdout(), h, v)
			}
			if cmd.Flags().Changed("discriminator") {
				return h.WithDiscriminatorColumn(discriminator, render)
			}
			return render(h)
		},
	}
	cmd.Flags().StringVar(&discriminator, "discriminator", "", "describe with this discriminator column instead of the declared one")
	return cmd
}

func viewOf(h *hierarchy.Hierarchy, v *types.Variant) variantView {
	view := variantView{
		Name:             v.Name,
		Tag:              v.Tag,
		Strict:           h.IsStrict(v),
		ReachableTags:    h.Registry().ReachableTags(v),
		PersistedColumns: h.PersistedColumns(v),
	}
	if v.Parent != nil {
		view.Parent = v.Parent.Name
	}
	if resolved, ok := h.Registry().Resolve(v.Tag); ok && resolved == v {
		view.Registered = true
	}
	if col, err := h.QualifiedTypeColumn(v, h.Table()); err == nil {
		view.TypeColumn = col
	}
	if view.ReachableTags == nil {
		view.ReachableTags = []string{}
	}
	if view.PersistedColumns == nil {
		view.PersistedColumns = []string{}
	}
	return view
}

func describeTree(w io.Writer, h *hierarchy.Hierarchy) error {
	cfg := h.Config()
	if flags.jsonMode {
		views := make([]variantView, 0, len(h.Variants()))
		for _, v := range h.Variants() {
			views = append(views, viewOf(h, v))
		}
		return writeJSON(w, map[string]any{
			"table":         h.Table(),
			"discriminator": cfg.DiscriminatorColumn,
			"primary_key":   cfg.PrimaryKey,
			"variants":      views,
		})
	}

	disc := cfg.DiscriminatorColumn
	if disc == "" {
		disc = "none"
	}
	fmt.Fprintf(w, "table %s, discriminator %s, primary key %s\n", h.Table(), disc, cfg.PrimaryKey)
	for _, v := range h.Variants() {
		indent := strings.Repeat("  ", len(v.Ancestors())-1)
		line := fmt.Sprintf("%s%s (%s)", indent, v.Name, v.Tag)
		if h.IsStrict(v) {
			line += " strict"
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func describeVariant(w io.Writer, h *hierarchy.Hierarchy, v *types.Variant) error {
	view := viewOf(h, v)
	if flags.jsonMode {
		return writeJSON(w, view)
	}

	row := func(label, value string) {
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(w, "%-19s%s\n", label+":", value)
	}
	row("variant", view.Name)
	row("tag", view.Tag)
	row("parent", view.Parent)
	row("strict", fmt.Sprint(view.Strict))
	row("registered", fmt.Sprint(view.Registered))
	row("reachable tags", strings.Join(view.ReachableTags, ", "))
	row("persisted columns", strings.Join(view.PersistedColumns, ", "))
	row("type column", view.TypeColumn)
	return nil
}
