package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/strata/pkg/hierarchy"
	"github.com/mesh-intelligence/strata/pkg/types"
)

func newDecodeCmd() *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "decode <json-row>",
		Short: "Decode a raw row into its concrete variant",
		Long: `Decode reads a row given as a JSON object and selects its concrete variant
from the discriminator column. Rows without a discriminator value decode as
the --as variant (default: the root).

Example:
  strata decode '{"type":"car","fuel":"diesel"}'
  strata decode --as Bike '{"color":"red"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			h, err := e.loadHierarchy()
			if err != nil {
				return err
			}
			raw, err := parseBag(args[0])
			if err != nil {
				return err
			}

			hint := h.Root()
			if as != "" {
				if hint, err = h.Lookup(as); err != nil {
					return classify(err, "decode")
				}
			}
			rec, err := h.Materialize(hint, raw)
			if err != nil {
				return classify(err, "decode")
			}
			m, err := asModel(rec)
			if err != nil {
				return err
			}
			return writeModels(cmd.OutOrStdout(), []*types.Model{m})
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "variant to decode rows without a discriminator as")
	return cmd
}

func newFilterCmd() *cobra.Command {
	var columns []string
	cmd := &cobra.Command{
		Use:   "filter <variant> <json-attrs>",
		Short: "Project attributes onto a variant's persisted columns",
		Long: `Filter drops every attribute the variant may not persist and prints the
rest. In strict mode unknown attributes are an error instead.

Example:
  strata filter Car '{"fuel":"diesel","wings":2}'
  strata filter Car --columns fuel,color '{"fuel":"diesel","capacity":4}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			h, err := e.loadHierarchy()
			if err != nil {
				return err
			}
			v, err := h.Lookup(args[0])
			if err != nil {
				return classify(err, "filter")
			}
			bag, err := parseBag(args[1])
			if err != nil {
				return err
			}

			project := func(s *hierarchy.Hierarchy) error {
				return s.Filter(v, bag)
			}
			if cmd.Flags().Changed("columns") {
				err = h.WithPersistedColumns(columns, project)
			} else {
				err = project(h)
			}
			if err != nil {
				return classify(err, "filter")
			}
			return writeModels(cmd.OutOrStdout(), []*types.Model{{Variant: v, Attributes: bag}})
		},
	}
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "persist exactly these columns instead of the declared ones")
	return cmd
}
