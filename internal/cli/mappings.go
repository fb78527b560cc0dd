package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newMappingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Inspect the mapping database",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the stored controller models",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.openStore()
				if err != nil {
					return err
				}
				snap := store.Snapshot()
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "MODEL\tBUTTONS\tAXES\tHATS")
				for _, model := range store.Models() {
					m := snap[model]
					fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", model, len(m.Button), len(m.Axis), len(m.Hat))
				}
				return w.Flush()
			},
		},
		&cobra.Command{
			Use:   "show <model>",
			Short: "Print the mapping of a controller model as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.openStore()
				if err != nil {
					return err
				}
				m, ok := store.Lookup(args[0])
				if !ok {
					return fmt.Errorf("no mapping for %q in %s", args[0], a.conf.DatabasePath())
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(m)
			},
		},
		&cobra.Command{
			Use:   "forget <model>",
			Short: "Remove a controller model so it is configured again",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.openStore()
				if err != nil {
					return err
				}
				if _, ok := store.Lookup(args[0]); !ok {
					return fmt.Errorf("no mapping for %q in %s", args[0], a.conf.DatabasePath())
				}
				if err := store.Delete(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "forgot %s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}
