package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cadencio-app/cadencio/internal/app/ledger"
	"github.com/cadencio-app/cadencio/internal/domain"
)

func init() {
	rootCmd.AddCommand(txCmd)
	txCmd.AddCommand(txAddCmd)
	txCmd.AddCommand(txListCmd)
	rootCmd.AddCommand(transferCmd)
	rootCmd.AddCommand(zoneCmd)
	zoneCmd.AddCommand(zoneAddCmd)
	zoneCmd.AddCommand(zoneListCmd)

	txAddCmd.Flags().Bool("in", false, "Record income instead of an expense")
	txAddCmd.Flags().StringP("category", "c", "cat_other", "Category id")
	txAddCmd.Flags().StringP("note", "n", "", "Free-form note")
	txAddCmd.Flags().StringSliceP("tag", "t", nil, "Tag (repeatable)")
	txAddCmd.Flags().String("date", "", "Date YYYY-MM-DD (default today)")

	txListCmd.Flags().Int("limit", 20, "Show at most this many (0 for all)")

	transferCmd.Flags().String("note", "", "Free-form note")
	transferCmd.Flags().String("date", "", "Date YYYY-MM-DD (default today)")

	zoneAddCmd.Flags().String("kind", string(domain.ZoneAsset), "Zone kind: asset, flow or liability")
}

// ─── tx ─────────────────────────────────────────────────────────────────────

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Record and list transactions",
}

var txAddCmd = &cobra.Command{
	Use:   "add AMOUNT",
	Short: "Record an expense (or income with --in)",
	Long: `Record one transaction. AMOUNT is rounded to whole units and may use
separators, e.g. 1,250,000.`,
	Args: cobra.ExactArgs(1),
	RunE: runTxAdd,
}

func runTxAdd(cmd *cobra.Command, args []string) error {
	amount, err := ledger.ParseAmount(args[0])
	if err != nil {
		return err
	}
	in, _ := cmd.Flags().GetBool("in")
	category, _ := cmd.Flags().GetString("category")
	note, _ := cmd.Flags().GetString("note")
	tags, _ := cmd.Flags().GetStringSlice("tag")
	date, _ := cmd.Flags().GetString("date")

	dir := domain.DirectionOut
	if in {
		dir = domain.DirectionIn
		if !cmd.Flags().Changed("category") {
			category = "cat_other_in"
		}
	}

	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	t, err := app.Ledger.CreateTransaction(cmd.Context(), ledger.TransactionInput{
		Amount:     amount,
		Direction:  dir,
		CategoryID: category,
		Note:       note,
		Tags:       tags,
		Date:       date,
	})
	if err != nil {
		return err
	}
	return emit(cmd, t, func(w io.Writer) {
		fmt.Fprintf(w, "Recorded %s %s on %s (%s)\n", t.Direction, money(t.Amount), t.Date, t.ID)
	})
}

var txListCmd = &cobra.Command{
	Use:   "list",
	Short: "List transactions, newest first",
	RunE:  runTxList,
}

func runTxList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	txs, err := app.Ledger.ListTransactions(cmd.Context())
	if err != nil {
		return err
	}
	// The store lists oldest first.
	slices.Reverse(txs)
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return emit(cmd, txs, func(w io.Writer) {
		if len(txs) == 0 {
			fmt.Fprintln(w, "No transactions yet.")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tDIR\tAMOUNT\tCATEGORY\tNOTE\tTAGS")
		for _, t := range txs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				t.Date, t.Direction, money(t.Amount), t.CategoryID, t.Note, strings.Join(t.Tags, ","))
		}
		tw.Flush()
	})
}

// ─── transfer ───────────────────────────────────────────────────────────────

var transferCmd = &cobra.Command{
	Use:   "transfer AMOUNT FROM_ZONE TO_ZONE",
	Short: "Move money between zones",
	Long:  `Move money between two zones. Transfers never count as income or spending.`,
	Args:  cobra.ExactArgs(3),
	RunE:  runTransfer,
}

func runTransfer(cmd *cobra.Command, args []string) error {
	amount, err := ledger.ParseAmount(args[0])
	if err != nil {
		return err
	}
	note, _ := cmd.Flags().GetString("note")
	date, _ := cmd.Flags().GetString("date")

	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	tr, err := app.Ledger.CreateTransfer(cmd.Context(), ledger.TransferInput{
		Amount:     amount,
		FromZoneID: args[1],
		ToZoneID:   args[2],
		Note:       note,
		Date:       date,
	})
	if err != nil {
		return err
	}
	return emit(cmd, tr, func(w io.Writer) {
		fmt.Fprintf(w, "Moved %s from %s to %s\n", money(tr.Out.Amount), args[1], args[2])
	})
}

// ─── zone ───────────────────────────────────────────────────────────────────

var zoneCmd = &cobra.Command{
	Use:   "zone",
	Short: "Manage money zones",
}

var zoneAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a zone",
	Args:  cobra.ExactArgs(1),
	RunE:  runZoneAdd,
}

func runZoneAdd(cmd *cobra.Command, args []string) error {
	kind, _ := cmd.Flags().GetString("kind")

	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	z, err := app.Ledger.CreateZone(cmd.Context(), args[0], domain.ZoneKind(kind))
	if err != nil {
		return err
	}
	return emit(cmd, z, func(w io.Writer) {
		fmt.Fprintf(w, "Zone %q created (%s)\n", z.Name, z.ID)
	})
}

var zoneListCmd = &cobra.Command{
	Use:   "list",
	Short: "List zones",
	RunE:  runZoneList,
}

func runZoneList(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	zones, err := app.Ledger.ListZones(cmd.Context())
	if err != nil {
		return err
	}
	return emit(cmd, zones, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tKIND")
		for _, z := range zones {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", z.ID, z.Name, z.Kind)
		}
		tw.Flush()
	})
}
