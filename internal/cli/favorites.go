package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newFavoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage saved peers",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFavoritesList()
		},
	}

	var port int
	add := &cobra.Command{
		Use:   "add NAME ADDRESS",
		Short: "Save a peer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps(logger)
			if err != nil {
				return err
			}
			if port == 0 {
				port = d.current.Port
			}
			fav, err := d.favorites.Add(args[0], args[1], port)
			if err != nil {
				return err
			}
			fmt.Printf("Saved %s (%s:%d) as %s\n", fav.Name, fav.Address, fav.Port, fav.ID)
			return nil
		},
	}
	add.Flags().IntVarP(&port, "port", "p", 0, "Peer port (default from settings)")

	remove := &cobra.Command{
		Use:   "remove ID",
		Short: "Delete a saved peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps(logger)
			if err != nil {
				return err
			}
			return d.favorites.Remove(args[0])
		},
	}

	cmd.AddCommand(add, remove)
	return cmd
}

func runFavoritesList() error {
	d, err := buildDeps(logger)
	if err != nil {
		return err
	}
	favs, err := d.favorites.List()
	if err != nil {
		return err
	}
	if len(favs) == 0 {
		fmt.Println("No saved peers.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tADDRESS\tPORT\tLAST IP\tLAST USED")
	for _, f := range favs {
		lastUsed := "never"
		if f.LastUsed != nil {
			lastUsed = f.LastUsed.Format("2006-01-02 15:04")
		}
		lastIP := f.LastResolvedIP
		if lastIP == "" {
			lastIP = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", f.ID, f.Name, f.Address, f.Port, lastIP, lastUsed)
	}
	return w.Flush()
}
