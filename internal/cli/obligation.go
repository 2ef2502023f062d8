package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cadencio-app/cadencio/internal/app/insights"
	"github.com/cadencio-app/cadencio/internal/app/ledger"
	"github.com/cadencio-app/cadencio/internal/domain"
)

func init() {
	rootCmd.AddCommand(obligationCmd)
	obligationCmd.AddCommand(oblAddCmd)
	obligationCmd.AddCommand(oblListCmd)
	obligationCmd.AddCommand(oblSuggestCmd)
	obligationCmd.AddCommand(oblScheduleCmd)
	obligationCmd.AddCommand(oblConfirmCmd)
	obligationCmd.AddCommand(oblBorrowCmd)
	obligationCmd.AddCommand(oblRefreshCmd)

	oblAddCmd.Flags().IntP("priority", "p", int(domain.PriorityStandard), "Priority 1 (critical) to 3 (standard)")

	oblListCmd.Flags().String("tab", string(insights.TabAll), "View: unplanned, upcoming, overdue, paid or all")

	oblScheduleCmd.Flags().Bool("suggested", false, "Apply the suggested plan")
	oblScheduleCmd.Flags().String("type", "", "Plan type: one_time, monthly or split")
	oblScheduleCmd.Flags().String("amount", "", "One-time amount")
	oblScheduleCmd.Flags().String("due-date", "", "One-time due date YYYY-MM-DD")
	oblScheduleCmd.Flags().String("upfront", "", "Split upfront amount")
	oblScheduleCmd.Flags().String("upfront-due", "", "Split upfront due date YYYY-MM-DD")
	oblScheduleCmd.Flags().String("monthly", "", "Monthly amount")
	oblScheduleCmd.Flags().Int("due-day", 0, "Monthly due day (1-28)")
	oblScheduleCmd.Flags().String("start", "", "First month YYYY-MM-01")

	oblBorrowCmd.Flags().String("obligation", "", "Existing obligation id to grow")
	oblBorrowCmd.Flags().String("name", "", "Name for a new obligation")
	oblBorrowCmd.Flags().IntP("priority", "p", 0, "Priority for a new obligation")
	oblBorrowCmd.Flags().String("note", "", "Free-form note")
	oblBorrowCmd.Flags().String("date", "", "Date YYYY-MM-DD (default today)")
}

var obligationCmd = &cobra.Command{
	Use:     "obligation",
	Aliases: []string{"obl"},
	Short:   "Track what you owe and plan repayments",
}

// ─── obligation add / list ──────────────────────────────────────────────────

var oblAddCmd = &cobra.Command{
	Use:   "add NAME TOTAL",
	Short: "Record a new obligation",
	Args:  cobra.ExactArgs(2),
	RunE:  runOblAdd,
}

func runOblAdd(cmd *cobra.Command, args []string) error {
	total, err := ledger.ParseAmount(args[1])
	if err != nil {
		return err
	}
	priority, _ := cmd.Flags().GetInt("priority")

	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	o, err := app.Ledger.CreateObligation(cmd.Context(), ledger.ObligationInput{
		Name:        args[0],
		TotalAmount: total,
		Priority:    domain.Priority(priority),
	})
	if err != nil {
		return err
	}
	return emit(cmd, o, func(w io.Writer) {
		fmt.Fprintf(w, "Obligation %q recorded for %s (%s)\n", o.Name, money(o.TotalAmount), o.ID)
		fmt.Fprintf(w, "   Plan it with: cadencio obligation suggest %s\n", o.ID)
	})
}

var oblListCmd = &cobra.Command{
	Use:   "list",
	Short: "List obligations or their cycles",
	RunE:  runOblList,
}

func runOblList(cmd *cobra.Command, args []string) error {
	tab, _ := cmd.Flags().GetString("tab")

	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	obls, err := app.Ledger.ListObligations(cmd.Context())
	if err != nil {
		return err
	}
	st, err := app.Ledger.Settings(cmd.Context())
	if err != nil {
		return err
	}
	view, ok := insights.ObligationTab(obls, insights.Tab(tab), app.Ledger.Now(), st.Timezone)
	if !ok {
		return fmt.Errorf("unknown tab %q", tab)
	}
	return emit(cmd, view, func(w io.Writer) { printTab(w, view) })
}

func printTab(w io.Writer, view insights.TabView) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	if view.Tab != insights.TabUnplanned && view.Tab != insights.TabAll {
		if len(view.Rows) == 0 {
			fmt.Fprintln(tw, "Nothing here.")
			return
		}
		fmt.Fprintln(tw, "DUE\tOBLIGATION\tAMOUNT\tSTATUS\tCYCLE")
		for _, r := range view.Rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				r.Cycle.DueDate, r.ObligationName, money(r.Cycle.Amount), r.Cycle.Status, r.Cycle.ID)
		}
		return
	}
	if len(view.Obligations) == 0 {
		fmt.Fprintln(tw, "Nothing here.")
		return
	}
	fmt.Fprintln(tw, "ID\tNAME\tREMAINING\tPRIORITY\tCYCLES")
	for _, o := range view.Obligations {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", o.ID, o.Name, money(o.TotalAmount), o.Priority, len(o.Cycles))
	}
}

// ─── obligation suggest / schedule ──────────────────────────────────────────

var oblSuggestCmd = &cobra.Command{
	Use:   "suggest OBLIGATION_ID",
	Short: "Suggest a repayment plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runOblSuggest,
}

func runOblSuggest(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	sug, err := app.Ledger.SuggestPlan(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return emit(cmd, sug, func(w io.Writer) { printSuggestion(w, sug) })
}

func printSuggestion(w io.Writer, sug domain.Suggestion) {
	switch p := sug.Plan.(type) {
	case domain.OneTimePlan:
		fmt.Fprintf(w, "Pay %s once on %s\n", money(p.Amount), p.DueDate)
	case domain.MonthlyPlan:
		fmt.Fprintf(w, "Pay %s monthly on day %d from %s\n", money(p.MonthlyAmount), p.DueDay, p.StartMonth)
	case domain.SplitPlan:
		fmt.Fprintf(w, "Pay %s upfront on %s, then %s monthly on day %d from %s\n",
			money(p.UpfrontAmount), p.UpfrontDueDate, money(p.MonthlyAmount), p.DueDay, p.StartMonth)
	default:
		fmt.Fprintf(w, "No plan: %s\n", sug.Reason)
		return
	}
	if sug.ClearsInMonths > 0 {
		fmt.Fprintf(w, "   Clears in about %d months\n", sug.ClearsInMonths)
	}
}

var oblScheduleCmd = &cobra.Command{
	Use:   "schedule OBLIGATION_ID",
	Short: "Schedule repayment cycles",
	Long: `Expand a plan into cycles on the obligation. Use --suggested to take
the suggested plan, or describe one with --type and its amounts.`,
	Args: cobra.ExactArgs(1),
	RunE: runOblSchedule,
}

func runOblSchedule(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	var plan domain.Plan
	if suggested, _ := cmd.Flags().GetBool("suggested"); suggested {
		sug, err := app.Ledger.SuggestPlan(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if sug.Plan == nil {
			return fmt.Errorf("no plan to apply: %s", sug.Reason)
		}
		plan = sug.Plan
	} else {
		spec, err := planSpecFromFlags(cmd)
		if err != nil {
			return err
		}
		if plan, err = spec.Plan(); err != nil {
			return err
		}
	}

	exp, err := app.Ledger.ScheduleObligation(cmd.Context(), args[0], plan)
	if err != nil {
		return err
	}
	return emit(cmd, exp, func(w io.Writer) {
		fmt.Fprintf(w, "Scheduled %d cycles\n", len(exp.Cycles))
		for _, c := range exp.Cycles {
			fmt.Fprintf(w, "  • %s  %s\n", c.DueDate, money(c.Amount))
		}
		if exp.Truncated {
			fmt.Fprintln(w, "   The last cycle carries the remainder past the monthly limit.")
		}
	})
}

func planSpecFromFlags(cmd *cobra.Command) (domain.PlanSpec, error) {
	amount := func(name string) (int64, error) {
		raw, _ := cmd.Flags().GetString(name)
		if raw == "" {
			return 0, nil
		}
		v, err := ledger.ParseAmount(raw)
		if err != nil {
			return 0, fmt.Errorf("--%s: %w", name, err)
		}
		return v, nil
	}

	typ, _ := cmd.Flags().GetString("type")
	spec := domain.PlanSpec{Type: domain.PlanType(typ)}
	spec.DueDate, _ = cmd.Flags().GetString("due-date")
	spec.UpfrontDueDate, _ = cmd.Flags().GetString("upfront-due")
	spec.DueDay, _ = cmd.Flags().GetInt("due-day")
	spec.StartMonth, _ = cmd.Flags().GetString("start")

	var err error
	if spec.Amount, err = amount("amount"); err != nil {
		return spec, err
	}
	if spec.UpfrontAmount, err = amount("upfront"); err != nil {
		return spec, err
	}
	if spec.MonthlyAmount, err = amount("monthly"); err != nil {
		return spec, err
	}
	return spec, nil
}

// ─── obligation confirm / borrow / refresh ──────────────────────────────────

var oblConfirmCmd = &cobra.Command{
	Use:   "confirm OBLIGATION_ID CYCLE_ID AMOUNT",
	Short: "Confirm a cycle paid",
	Long:  `Mark one cycle paid for AMOUNT. The payment is recorded as an expense.`,
	Args:  cobra.ExactArgs(3),
	RunE:  runOblConfirm,
}

func runOblConfirm(cmd *cobra.Command, args []string) error {
	paid, err := ledger.ParseAmount(args[2])
	if err != nil {
		return err
	}

	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	c, err := app.Ledger.ConfirmObligationPaid(cmd.Context(), args[0], args[1], paid)
	if err != nil {
		return err
	}
	return emit(cmd, c, func(w io.Writer) {
		fmt.Fprintf(w, "Paid %s toward %q; %s remaining\n",
			money(c.Transaction.Amount), c.Obligation.Name, money(c.Obligation.TotalAmount))
	})
}

var oblBorrowCmd = &cobra.Command{
	Use:   "borrow AMOUNT",
	Short: "Record borrowed money",
	Long: `Record money borrowed. It is booked as income that does not count as
earned, and added to an obligation: --obligation grows an existing one,
--name creates a new one.`,
	Args: cobra.ExactArgs(1),
	RunE: runOblBorrow,
}

func runOblBorrow(cmd *cobra.Command, args []string) error {
	amount, err := ledger.ParseAmount(args[0])
	if err != nil {
		return err
	}
	oblID, _ := cmd.Flags().GetString("obligation")
	name, _ := cmd.Flags().GetString("name")
	priority, _ := cmd.Flags().GetInt("priority")
	note, _ := cmd.Flags().GetString("note")
	date, _ := cmd.Flags().GetString("date")

	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	c, err := app.Ledger.RecordBorrow(cmd.Context(), ledger.BorrowInput{
		ObligationID: oblID,
		Name:         name,
		Priority:     domain.Priority(priority),
		Amount:       amount,
		Note:         note,
		Date:         date,
	})
	if err != nil {
		return err
	}
	return emit(cmd, c, func(w io.Writer) {
		fmt.Fprintf(w, "Borrowed %s; %q now owes %s (%s)\n",
			money(amount), c.Obligation.Name, money(c.Obligation.TotalAmount), c.Obligation.ID)
	})
}

var oblRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Mark overdue planned cycles missed",
	RunE:  runOblRefresh,
}

func runOblRefresh(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	n, err := app.Ledger.RefreshMissedCycles(cmd.Context(), app.Ledger.Now())
	if err != nil {
		return err
	}
	return emit(cmd, map[string]int{"changed": n}, func(w io.Writer) {
		fmt.Fprintf(w, "%d obligations updated\n", n)
	})
}
