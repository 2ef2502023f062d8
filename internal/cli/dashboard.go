package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cadencio-app/cadencio/internal/app/insights"
	"github.com/cadencio-app/cadencio/internal/app/ledger"
	"github.com/cadencio-app/cadencio/internal/domain"
)

func init() {
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)

	dashboardCmd.Flags().Int("window", 0, "Heatmap window: 30, 60 or 90 days (default from config)")

	f := settingsSetCmd.Flags()
	f.String("income", "", "Monthly income")
	f.String("cap", "", "Monthly spending cap")
	f.Int("hours", 0, "Working hours per week")
	f.Int("salary-day", 0, "Day of month salary arrives")
	f.String("timezone", "", "IANA timezone, e.g. Asia/Ho_Chi_Minh")
	f.String("debt", "", "Self-reported total debt")
	f.Bool("focus", true, "Focus mode")
	f.Bool("friction", true, "Spending friction prompts")
}

// ─── dashboard ──────────────────────────────────────────────────────────────

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show balances, progress and what is due",
	RunE:  runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	opt := app.DashboardOptions(app.Ledger.Now())
	if window, _ := cmd.Flags().GetInt("window"); window != 0 {
		switch window {
		case 30, 60, 90:
			opt.HeatmapDays = window
		default:
			return fmt.Errorf("window must be 30, 60 or 90")
		}
	}

	d, err := insights.Build(cmd.Context(), app.DB, opt)
	if err != nil {
		return err
	}
	return emit(cmd, d, func(w io.Writer) { printDashboard(w, d) })
}

func printDashboard(w io.Writer, d insights.Dashboard) {
	fmt.Fprintf(w, "Cadencio  %s\n\n", d.Today)

	fmt.Fprintln(w, "Zones")
	for _, zb := range d.Zones {
		fmt.Fprintf(w, "  %-20s %15s\n", zb.Zone.Name, money(zb.Balance))
	}

	fmt.Fprintln(w, "\nThis month")
	fmt.Fprintf(w, "  in %s  out %s  spend %s  net %s\n",
		money(d.Monthly.In), money(d.Monthly.Out), money(d.Monthly.Spend), money(d.Monthly.Net))
	fmt.Fprintf(w, "  cap used %d%%  streak %d days  weekly %v\n", d.CapPercent, d.Streak, d.WeeklyCap)

	if d.Quest.Name != "" {
		pct := d.Quest.Ratio.Shift(2).Round(0).IntPart()
		fmt.Fprintf(w, "\nQuest  %s\n  %s / %s (%d%%)\n", d.Quest.Name, money(d.Quest.Amount), money(d.Quest.Target), pct)
	}

	fmt.Fprintf(w, "\nObligations  %s outstanding", money(d.ObligationsTotal))
	if d.PendingPlans > 0 {
		fmt.Fprintf(w, ", %d without a plan", d.PendingPlans)
	}
	fmt.Fprintln(w)
	for _, r := range d.DueSoon {
		fmt.Fprintf(w, "  %s  %-20s %15s\n", r.Cycle.DueDate, r.ObligationName, money(r.Cycle.Amount))
	}

	if d.Cost.LastOut != nil && !d.Cost.Hourly.IsZero() {
		fmt.Fprintf(w, "\nLast expense %s cost %s hours of work\n", money(d.Cost.LastOut.Amount), d.Cost.LastHours.String())
	}

	if len(d.Recent) > 0 {
		fmt.Fprintln(w, "\nRecent")
		for _, a := range d.Recent {
			fmt.Fprintf(w, "  %s  %s\n", a.CreatedAt.Format("Jan 02 15:04"), a.Title)
		}
	}
}

// ─── settings ───────────────────────────────────────────────────────────────

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	st, err := app.Ledger.Settings(cmd.Context())
	if err != nil {
		return err
	}
	return emit(cmd, st, func(w io.Writer) { printSettings(w, st) })
}

func printSettings(w io.Writer, st domain.Settings) {
	income := "not set"
	if st.MonthlyIncome != nil {
		income = money(*st.MonthlyIncome)
	}
	fmt.Fprintf(w, "Monthly income   %s\n", income)
	fmt.Fprintf(w, "Monthly cap      %s\n", money(st.MonthlyCap))
	fmt.Fprintf(w, "Hours per week   %d\n", st.HoursPerWeek)
	fmt.Fprintf(w, "Salary day       %d\n", st.SalaryDay)
	fmt.Fprintf(w, "Timezone         %s\n", st.Timezone)
	if st.SelfReportedDebt != nil {
		fmt.Fprintf(w, "Reported debt    %s\n", money(*st.SelfReportedDebt))
	}
	fmt.Fprintf(w, "Focus mode       %v\n", st.FocusMode)
	fmt.Fprintf(w, "Friction         %v\n", st.FrictionEnabled)
	if st.ActiveQuestID != "" {
		fmt.Fprintf(w, "Active quest     %s\n", st.ActiveQuestID)
	}
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings; only the flags given are updated",
	RunE:  runSettingsSet,
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	patch, err := settingsPatchFromFlags(cmd)
	if err != nil {
		return err
	}

	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	st, err := app.Ledger.UpdateSettings(cmd.Context(), patch)
	if err != nil {
		return err
	}
	return emit(cmd, st, func(w io.Writer) { printSettings(w, st) })
}

func settingsPatchFromFlags(cmd *cobra.Command) (domain.SettingsPatch, error) {
	f := cmd.Flags()
	var p domain.SettingsPatch
	var changed []string

	amount := func(name string, dst **int64) error {
		if !f.Changed(name) {
			return nil
		}
		raw, _ := f.GetString(name)
		v, err := parseNonNegative(raw)
		if err != nil {
			return fmt.Errorf("--%s: %w", name, err)
		}
		*dst = &v
		changed = append(changed, name)
		return nil
	}
	if err := amount("income", &p.MonthlyIncome); err != nil {
		return p, err
	}
	if err := amount("cap", &p.MonthlyCap); err != nil {
		return p, err
	}
	if err := amount("debt", &p.SelfReportedDebt); err != nil {
		return p, err
	}
	if f.Changed("hours") {
		v, _ := f.GetInt("hours")
		p.HoursPerWeek = &v
		changed = append(changed, "hours")
	}
	if f.Changed("salary-day") {
		v, _ := f.GetInt("salary-day")
		p.SalaryDay = &v
		changed = append(changed, "salary-day")
	}
	if f.Changed("timezone") {
		v, _ := f.GetString("timezone")
		v = strings.TrimSpace(v)
		p.Timezone = &v
		changed = append(changed, "timezone")
	}
	if f.Changed("focus") {
		v, _ := f.GetBool("focus")
		p.FocusMode = &v
		changed = append(changed, "focus")
	}
	if f.Changed("friction") {
		v, _ := f.GetBool("friction")
		p.FrictionEnabled = &v
		changed = append(changed, "friction")
	}
	if len(changed) == 0 {
		return p, fmt.Errorf("nothing to change; see cadencio settings set --help")
	}
	return p, nil
}

// parseNonNegative accepts zero, which ParseAmount rejects; a cap or debt
// of zero is a real setting.
func parseNonNegative(raw string) (int64, error) {
	d, err := ledger.ParseDecimal(raw)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %s: %w", raw, domain.ErrInvalidAmount)
	}
	return d.Round(0).IntPart(), nil
}
