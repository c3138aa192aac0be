package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/graphport/graphport/pkg/errors"
)

// stateCommand creates the view-state management command.
func (c *CLI) stateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or clear persisted view state",
	}

	cmd.AddCommand(c.stateShowCommand())
	cmd.AddCommand(c.stateClearCommand())

	return cmd
}

// stateShowCommand creates the "state show" subcommand.
func (c *CLI) stateShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [view-id]",
		Short: "Show the persisted state for a view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			viewID := args[0]
			if err := errors.ValidateViewID(viewID); err != nil {
				return err
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store, err := newStateStore(cmd.Context(), cfg.ViewState)
			if err != nil {
				return fmt.Errorf("initialize state store: %w", err)
			}
			defer store.Close()

			st, err := store.Load(cmd.Context(), viewID)
			if err != nil {
				return fmt.Errorf("load state for %s: %w", viewID, err)
			}
			if st == nil {
				printInfo("No persisted state for view %s", viewID)
				return nil
			}

			printKeyValue("View", viewID)
			printKeyValue("Expanded", fmt.Sprintf("%d groups", len(st.ExpandedGroups)))
			if len(st.ExpandedGroups) > 0 {
				printDetail("%s", strings.Join(st.ExpandedGroups, ", "))
			}
			printKeyValue("Options", fmt.Sprintf("secondary edges %v, dim unselected %v",
				st.Options.ShowSecondaryEdges, st.Options.DimUnselected))
			if !st.UpdatedAt.IsZero() {
				printKeyValue("Updated", st.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

// stateClearCommand creates the "state clear" subcommand.
func (c *CLI) stateClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [view-id]",
		Short: "Delete the persisted state for a view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			viewID := args[0]
			if err := errors.ValidateViewID(viewID); err != nil {
				return err
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store, err := newStateStore(cmd.Context(), cfg.ViewState)
			if err != nil {
				return fmt.Errorf("initialize state store: %w", err)
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), viewID); err != nil {
				return fmt.Errorf("clear state for %s: %w", viewID, err)
			}
			printSuccess("Cleared state for view %s", viewID)
			return nil
		},
	}
}
