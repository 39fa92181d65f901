package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/strata/pkg/types"
)

func newSetCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "set <variant> <json-attrs>",
		Short: "Create or update a record",
		Long: `Set stores a record of the given variant. Attributes the variant does not
persist are dropped, or rejected when the variant is strict. Without --id a
new UUID v7 is generated. The record ID is printed.

Example:
  strata set Car '{"fuel":"diesel","capacity":4}'
  strata set Car --id 0192... '{"capacity":5}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			h, table, detach, err := e.openTable()
			if err != nil {
				return err
			}
			defer detach()

			v, err := h.Lookup(args[0])
			if err != nil {
				return classify(err, "set")
			}
			bag, err := parseBag(args[1])
			if err != nil {
				return err
			}
			newID, err := table.Set(id, &types.Model{Variant: v, Attributes: bag})
			if err != nil {
				return classify(err, "set")
			}

			if flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"id": newID, "variant": v.Name})
			}
			fmt.Fprintln(cmd.OutOrStdout(), newID)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "record ID to create or update")
	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a record as its concrete variant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			_, table, detach, err := e.openTable()
			if err != nil {
				return err
			}
			defer detach()

			rec, err := table.Get(args[0])
			if err != nil {
				return classify(err, "get")
			}
			m, err := asModel(rec)
			if err != nil {
				return err
			}
			return writeModels(cmd.OutOrStdout(), []*types.Model{m})
		},
	}
}

func newListCmd() *cobra.Command {
	var (
		variant string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records",
		Long: `List prints records ordered by ID. --variant restricts the listing to a
variant and its subtypes.

Example:
  strata list
  strata list --variant MotorVehicle --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			_, table, detach, err := e.openTable()
			if err != nil {
				return err
			}
			defer detach()

			filter := types.Filter{}
			if variant != "" {
				filter[types.FilterVariant] = variant
			}
			if limit > 0 {
				filter[types.FilterLimit] = limit
			}
			recs, err := table.Fetch(filter)
			if err != nil {
				return classify(err, "list")
			}

			models := make([]*types.Model, 0, len(recs))
			for _, rec := range recs {
				m, err := asModel(rec)
				if err != nil {
					return err
				}
				models = append(models, m)
			}
			return writeModels(cmd.OutOrStdout(), models)
		},
	}
	cmd.Flags().StringVar(&variant, "variant", "", "list only this variant and its subtypes")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of records (0 for all)")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			_, table, detach, err := e.openTable()
			if err != nil {
				return err
			}
			defer detach()

			if err := table.Delete(args[0]); err != nil {
				return classify(err, "delete")
			}
			if flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
