package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sarchlab/thrash/cache/trace"
	"github.com/sarchlab/thrash/datarecording"
	"github.com/spf13/cobra"
)

type reportOptions struct {
	db      string
	channel string
	touches trace.TouchQuery
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the reports and touches of a recording.",
		Long: "`report --db [name]` reads a database written by " +
			"`replay --record` and prints its reports, followed by a page " +
			"of its touches.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := reportOptionsFrom(cmd)
			if err != nil {
				return err
			}

			return printRecording(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("db", "",
		"Recording to read, with or without the .sqlite3 suffix.")
	cmd.Flags().String("channel", "", "Only show this channel.")
	cmd.Flags().String("kind", "", "Only show touches of this kind: "+
		"hit, miss or evict.")
	cmd.Flags().Int("limit", 20, "Number of touches to show. 0 hides them.")
	cmd.Flags().Int("offset", 0, "Number of touches to skip.")

	return cmd
}

func init() {
	rootCmd.AddCommand(newReportCmd())
}

func reportOptionsFrom(cmd *cobra.Command) (reportOptions, error) {
	db := stringSetting(cmd, "db", envRecordDB)
	if db == "" {
		return reportOptions{}, fmt.Errorf("no recording given, use --db")
	}

	if !strings.HasSuffix(db, ".sqlite3") {
		db += ".sqlite3"
	}

	opts := reportOptions{db: db}
	opts.channel, _ = cmd.Flags().GetString("channel")
	opts.touches.Channel = opts.channel
	opts.touches.Kind, _ = cmd.Flags().GetString("kind")
	opts.touches.Limit, _ = cmd.Flags().GetInt("limit")
	opts.touches.Offset, _ = cmd.Flags().GetInt("offset")

	return opts, nil
}

func printRecording(
	ctx context.Context,
	opts reportOptions,
	out io.Writer,
) error {
	reader, err := datarecording.OpenReader(opts.db)
	if err != nil {
		return fmt.Errorf("opening recording: %w", err)
	}
	defer reader.Close()

	reports, err := trace.ReadReports(ctx, reader, opts.channel)
	if err != nil {
		return err
	}

	for _, r := range reports {
		fmt.Fprintf(out, "%s: %s\n", r.Channel, r.Report())
	}

	if opts.touches.Limit <= 0 {
		return nil
	}

	page, err := trace.ReadTouches(ctx, reader, opts.touches)
	if err != nil {
		return err
	}

	first := min(opts.touches.Offset+1, page.Total)
	last := opts.touches.Offset + len(page.Entries)
	fmt.Fprintf(out, "touches %d-%d of %d\n", first, last, page.Total)

	for _, e := range page.Entries {
		fmt.Fprintf(out, "%6d %-5s %s\n", e.Seq, e.Kind, e.Event())
	}

	return nil
}
