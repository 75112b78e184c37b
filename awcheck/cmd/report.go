package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/awcheck/checker"
	"github.com/sarchlab/awcheck/datarecording"
)

var reportCmd = &cobra.Command{
	Use:   "report DB.sqlite3",
	Short: "Print the violations recorded in a database.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ruleName, _ := cmd.Flags().GetString("rule")
		limit, _ := cmd.Flags().GetInt("limit")

		return runReport(cmd.Context(), args[0], ruleName, limit,
			cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("rule", "", "Only print violations of this rule.")
	reportCmd.Flags().Int("limit", 0, "Print at most this many violations.")
}

func runReport(
	ctx context.Context,
	dbPath, ruleName string,
	limit int,
	out io.Writer,
) error {
	if ctx == nil {
		ctx = context.Background()
	}

	params := datarecording.QueryParams{
		// IDs are text. Rows are inserted in detection order.
		OrderBy: "Cycle, rowid",
		Limit:   limit,
	}

	if ruleName != "" {
		rule, err := checker.ParseRuleID(ruleName)
		if err != nil {
			return err
		}

		params.Where = "Rule = ?"
		params.Args = []any{rule.String()}
	}

	reader, err := datarecording.NewReader(dbPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	reader.MapTable(checker.ViolationTable, checker.ViolationEntry{})

	rows, total, err := reader.Query(ctx, checker.ViolationTable, params)
	if err != nil {
		return err
	}

	for _, row := range rows {
		e := row.(*checker.ViolationEntry)
		fmt.Fprintf(out, "%s cycle %d %s %s: %s\n",
			e.ID, e.Cycle, e.Rule, e.Watcher, e.Message)
	}

	fmt.Fprintf(out, "%d of %d violations shown\n", len(rows), total)

	return nil
}
