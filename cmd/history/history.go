// Package history inspects and maintains the conversion history
package history

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"fjacquet/ekstre-csv/cmd/common"
	"fjacquet/ekstre-csv/cmd/root"
	"fjacquet/ekstre-csv/internal/container"
	"fjacquet/ekstre-csv/internal/history"
	"fjacquet/ekstre-csv/internal/logging"
	"fjacquet/ekstre-csv/internal/pipeline"
	"fjacquet/ekstre-csv/internal/validation"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	limit      int
	days       int
	confirmed  bool
	exportPath string
	format     string
)

// Cmd represents the history command
var Cmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and maintain the conversion history",
	Long: `Inspect recorded statements and remove old ones.

History is kept in PostgreSQL when database.url (or DATABASE_URL) is set and
in memory otherwise, in which case it only lives as long as the command.

Example:
  ekstre-csv history list --limit 20
  ekstre-csv history show 6f1c... --export ledger.xlsx
  ekstre-csv history clean --days 30`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent statements",
	Args:  cobra.NoArgs,
	RunE: withContainer(func(cmd *cobra.Command, c *container.Container, args []string) error {
		n := limit
		if n <= 0 {
			n = c.GetConfig().History.RecentLimit
		}
		recent, err := c.GetHistory().Recent(cmd.Context(), n)
		if err != nil {
			return err
		}
		return writeSummaries(cmd.OutOrStdout(), recent)
	}),
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one statement and its ledger",
	Args:  cobra.ExactArgs(1),
	RunE: withContainer(func(cmd *cobra.Command, c *container.Container, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid statement id %q: %w", args[0], err)
		}
		st, err := c.GetHistory().Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		if exportPath != "" {
			return export(cmd, c, st)
		}
		return writeStatement(cmd.OutOrStdout(), st)
	}),
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show history totals",
	Args:  cobra.NoArgs,
	RunE: withContainer(func(cmd *cobra.Command, c *container.Container, args []string) error {
		stats, err := c.GetHistory().Stats(cmd.Context())
		if err != nil {
			return err
		}
		cmd.Printf("Statements:         %d\n", stats.TotalStatements)
		cmd.Printf("Conversions:        %d\n", stats.TotalConversions)
		cmd.Printf("Uploaded (30 days): %d\n", stats.RecentStatements)
		return nil
	}),
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete statements older than the retention period",
	Args:  cobra.NoArgs,
	RunE: withContainer(func(cmd *cobra.Command, c *container.Container, args []string) error {
		n := days
		if n <= 0 {
			n = c.GetAdmin().Settings().FileRetentionDays
		}
		deleted, err := c.GetHistory().CleanOlderThan(cmd.Context(), n)
		if err != nil {
			return err
		}
		c.GetLogger().Info("Cleaned conversion history",
			logging.F(logging.FieldCount, deleted),
			logging.F("days", n))
		cmd.Printf("Deleted %d statement(s) older than %d day(s)\n", deleted, n)
		return nil
	}),
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete the whole history",
	Args:  cobra.NoArgs,
	RunE: withContainer(func(cmd *cobra.Command, c *container.Container, args []string) error {
		if !confirmed {
			return fmt.Errorf("purge deletes every statement; pass --yes to confirm")
		}
		if err := c.GetHistory().Purge(cmd.Context()); err != nil {
			return err
		}
		c.GetLogger().Warn("Purged conversion history")
		cmd.Println("History purged")
		return nil
	}),
}

func init() {
	listCmd.Flags().IntVar(&limit, "limit", 0, "Number of statements; defaults to history.recent_limit")
	showCmd.Flags().StringVar(&exportPath, "export", "", "Write the stored ledger to this file instead of printing it")
	showCmd.Flags().StringVar(&format, "format", "", "Export format (csv, xlsx); defaults to output.format")
	cleanCmd.Flags().IntVar(&days, "days", 0, "Retention in days; defaults to the admin file_retention_days")
	purgeCmd.Flags().BoolVar(&confirmed, "yes", false, "Confirm deleting the whole history")
	Cmd.AddCommand(listCmd, showCmd, statsCmd, cleanCmd, purgeCmd)
}

func withContainer(run func(cmd *cobra.Command, c *container.Container, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c := root.GetContainer()
		if c == nil {
			return common.ErrNoContainer
		}
		return run(cmd, c, args)
	}
}

func export(cmd *cobra.Command, c *container.Container, st *history.Statement) error {
	o := c.OutputOptions()
	if format != "" {
		if err := validation.IsValidOutputFormat(format); err != nil {
			return err
		}
		o.Format = format
	}
	res := &pipeline.Result{FileName: st.FileName, Transactions: st.Transactions, Ledger: st.Ledger, StatementID: st.ID}
	if err := pipeline.SaveResult(exportPath, res, o); err != nil {
		return err
	}
	if err := c.GetConverter().RecordExport(cmd.Context(), st.ID, o.Format, map[string]string{"output": exportPath}); err != nil {
		c.GetLogger().WithError(err).Warn("Failed to record export")
	}
	cmd.Printf("Ledger written to %s\n", exportPath)
	return nil
}

func writeSummaries(w io.Writer, recent []history.Summary) error {
	if len(recent) == 0 {
		_, err := fmt.Fprintln(w, "No statements recorded")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUPLOADED\tFILE\tBANK")
	for _, s := range recent {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.UploadDate.Local().Format(time.DateTime), s.FileName, s.BankType)
	}
	return tw.Flush()
}

func writeStatement(w io.Writer, st *history.Statement) error {
	fmt.Fprintf(w, "ID:       %s\n", st.ID)
	fmt.Fprintf(w, "Uploaded: %s\n", st.UploadDate.Local().Format(time.DateTime))
	fmt.Fprintf(w, "File:     %s\n", st.FileName)
	fmt.Fprintf(w, "Bank:     %s\n", st.BankType)
	fmt.Fprintf(w, "Rows:     %d\n\n", len(st.Transactions))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VOUCHER DATE\tDOCUMENT DATE\tDESCRIPTION\tDEBIT\tCREDIT")
	for _, e := range st.Ledger {
		if e.IsSeparator {
			fmt.Fprintf(tw, "\t\t%s\t\t\n", e.DetailDescription)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.VoucherDate, e.DocumentDate, e.DetailDescription, e.Debit, e.Credit)
	}
	return tw.Flush()
}
