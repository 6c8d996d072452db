package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// resetTables are cleared by reset. Operators and their login history stay.
var resetTables = []string{"sheet_archives", "entries", "document_sequences"}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all entries and restart numbering (testing only)",
	Long: `Clears the entry register, sheet archive records and document counters,
and restarts entry ids at 1. Operators are kept. Objects already uploaded to
the sheet archive bucket are not removed.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().Bool("yes", false, "skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		fmt.Fprintf(out, "This deletes ALL entries from %s.\nType 'yes' to confirm: ", strings.Join(resetTables, ", "))
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if strings.TrimSpace(answer) != "yes" {
			fmt.Fprintln(out, "Reset cancelled.")
			return nil
		}
	}

	rt, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	tx, err := rt.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range resetTables {
		if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
		rt.log.Info("table cleared", "table", table)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}

	fmt.Fprintln(out, "Database reset. Numbering restarts at 0001 for every month.")
	return nil
}
