package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/notify"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show finished transfers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all history records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps(logger)
			if err != nil {
				return err
			}
			return d.history.Clear()
		},
	})
	return cmd
}

func runHistoryList() error {
	d, err := buildDeps(logger)
	if err != nil {
		return err
	}
	records, err := d.history.List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No finished transfers.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tDIR\tPEER\tFILES\tSIZE\tSTATUS")
	for _, rec := range records {
		peer := rec.PeerHostname
		if peer == "" {
			peer = rec.PeerAddress
		}
		status := string(rec.Status)
		if rec.Error != "" {
			status += ": " + rec.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.Timestamp.Format("2006-01-02 15:04"),
			rec.Direction,
			peer,
			strings.Join(rec.Files, ","),
			notify.HumanBytes(rec.TotalBytes),
			status,
		)
	}
	return w.Flush()
}
