package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(activityCmd)
	activityCmd.AddCommand(activityListCmd)
	activityCmd.AddCommand(activityUndoCmd)
	activityCmd.AddCommand(activityUndoLatestCmd)

	activityListCmd.Flags().Int("limit", 10, "Show at most this many")
	activityUndoLatestCmd.Flags().String("expect", "", "Only undo if this is still the latest activity")
}

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Review and undo recent actions",
}

var activityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent activities, newest first",
	RunE:  runActivityList,
}

func runActivityList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	acts, err := app.Ledger.RecentActivities(cmd.Context(), limit)
	if err != nil {
		return err
	}
	return emit(cmd, acts, func(w io.Writer) {
		if len(acts) == 0 {
			fmt.Fprintln(w, "No recent activity.")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tWHEN\tTITLE\tAMOUNT")
		for _, a := range acts {
			amount := ""
			if a.Amount > 0 {
				amount = money(a.Amount)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.ID, a.CreatedAt.Format("2006-01-02 15:04"), a.Title, amount)
		}
		tw.Flush()
	})
}

var activityUndoCmd = &cobra.Command{
	Use:   "undo ACTIVITY_ID...",
	Short: "Undo one or more activities",
	Long:  `Undo the given activities in one step, newest first. Either all succeed or nothing changes.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runActivityUndo,
}

func runActivityUndo(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	n, err := app.Ledger.UndoActivities(cmd.Context(), args)
	if err != nil {
		return err
	}
	return emit(cmd, map[string]int{"undone": n}, func(w io.Writer) {
		fmt.Fprintf(w, "Undid %d activities\n", n)
	})
}

var activityUndoLatestCmd = &cobra.Command{
	Use:   "undo-latest",
	Short: "Undo the most recent activity",
	RunE:  runActivityUndoLatest,
}

func runActivityUndoLatest(cmd *cobra.Command, args []string) error {
	expect, _ := cmd.Flags().GetString("expect")

	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	a, err := app.Ledger.UndoLatest(cmd.Context(), expect)
	if err != nil {
		return err
	}
	return emit(cmd, a, func(w io.Writer) {
		fmt.Fprintf(w, "Undid %q\n", a.Title)
	})
}
