package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fentz26/labtrack/internal/models"
	"github.com/fentz26/labtrack/internal/view"
	"github.com/spf13/cobra"
)

var samplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "List and change samples",
}

var samplesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List one of a role's tables",
	RunE:  runSamplesList,
}

var samplesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new sample (lab)",
	RunE:  runSamplesAdd,
}

var samplesStatusCmd = &cobra.Command{
	Use:   "status [sample-id] [status]",
	Short: "Move a sample to a new status (lab)",
	Long: `Move a sample to a new status. Statuses run Received, In Progress,
Analysis Complete, Results Available. Moving backwards needs --force and
is recorded in the audit trail as an override.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSamplesStatus,
}

var samplesClaimCmd = &cobra.Command{
	Use:   "claim [sample-id]",
	Short: "Claim an available result (ED)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSamplesClaim,
}

var samplesMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show status counts and today's turnaround times",
	RunE:  runSamplesMetrics,
}

var samplesAuditCmd = &cobra.Command{
	Use:   "audit [sample-id]",
	Short: "Show the local audit trail of submitted changes",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSamplesAudit,
}

var (
	viewName     string
	windowName   string
	searchTerm   string
	pageNumber   int
	newName      string
	newPatientID string
	newTestType  string
	newSource    string
	forceStatus  bool
	claimBy      string
	auditLimit   int
)

func init() {
	samplesCmd.AddCommand(samplesListCmd, samplesAddCmd, samplesStatusCmd, samplesClaimCmd, samplesMetricsCmd, samplesAuditCmd)

	addQueryFlags(samplesListCmd)
	samplesListCmd.Flags().IntVar(&pageNumber, "page", 1, "Page number")

	samplesAddCmd.Flags().StringVar(&newName, "name", "", "Patient name (required)")
	samplesAddCmd.Flags().StringVar(&newPatientID, "patient-id", "", "Patient ID (required)")
	samplesAddCmd.Flags().StringVar(&newTestType, "test", "", "Test type: "+strings.Join(models.TestTypes, ", "))
	samplesAddCmd.Flags().StringVar(&newSource, "source", "", "Source: "+strings.Join(models.Sources, ", "))
	samplesAddCmd.MarkFlagRequired("name")
	samplesAddCmd.MarkFlagRequired("patient-id")
	samplesAddCmd.MarkFlagRequired("test")
	samplesAddCmd.MarkFlagRequired("source")

	samplesStatusCmd.Flags().BoolVar(&forceStatus, "force", false, "Allow a non-forward status change")

	samplesClaimCmd.Flags().StringVar(&claimBy, "by", "", "Name recorded as claimer (default: signed-in ED user)")

	samplesAuditCmd.Flags().IntVar(&auditLimit, "limit", 20, "Number of entries")
}

// addQueryFlags registers the flags that select a table and filter it.
func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&roleName, "role", "", "Dashboard role (ed or lab)")
	cmd.Flags().StringVar(&viewName, "view", "active", "Table: active or done")
	cmd.Flags().StringVar(&windowName, "window", "", "Time window: 1h, 6h, 12h, 24h (default from config)")
	cmd.Flags().StringVar(&searchTerm, "search", "", "Case-insensitive search")
	cmd.MarkFlagRequired("role")
}

// tableQuery resolves the query flags.
func tableQuery(rt *env) (models.Role, view.Table, view.Query, error) {
	role, err := models.ParseRole(roleName)
	if err != nil {
		return "", view.Table{}, view.Query{}, err
	}
	active, done := view.Tables(role)
	var table view.Table
	switch strings.ToLower(viewName) {
	case "active", "":
		table = active
	case "done", "claimed", "completed":
		table = done
	default:
		return "", view.Table{}, view.Query{}, fmt.Errorf("unknown view %q (want active or done)", viewName)
	}

	q := view.Query{Window: rt.cfg.Window(), Search: searchTerm}
	if windowName != "" {
		w, err := view.ParseWindow(windowName)
		if err != nil {
			return "", view.Table{}, view.Query{}, err
		}
		q.Window = w
	}
	return role, table, q, nil
}

func runSamplesList(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.Close()

	role, table, q, err := tableQuery(rt)
	if err != nil {
		return err
	}
	if err := rt.requireRole(role); err != nil {
		return err
	}
	rec, err := rt.loadOnce(cmd.Context(), role)
	if err != nil {
		return err
	}

	rows := view.Derive(table.Partition(rec.Snapshot()).Records(), table, q, time.Now())
	page := view.Paginate(rows, table.PageSize, pageNumber)

	fmt.Printf("%s - last %s", table.Title, q.Window)
	if q.Search != "" {
		fmt.Printf(", search %q", q.Search)
	}
	fmt.Println()

	if page.Empty() {
		fmt.Println(view.EmptyMessage)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := "SAMPLE\tPATIENT\tPATIENT ID\tTEST\tSOURCE\tSTATUS\tUPDATED"
	if table.Done {
		header += "\tCLAIMED BY"
	}
	fmt.Fprintln(w, header)
	for _, row := range page.Rows {
		r := row.Record
		line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s\t%s",
			r.SampleID, row.PatientName, row.PatientID, r.TestType, r.Source, r.Status, formatTime(r.Timestamp))
		if table.Done {
			line += "\t" + r.Claimer()
		}
		fmt.Fprintln(w, line)
	}
	w.Flush()

	fmt.Printf("Page %d of %d (%d samples)\n", page.Number, page.TotalPages, page.Total)
	return nil
}

func runSamplesAdd(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.requireRole(models.RoleLab); err != nil {
		return err
	}

	sample := models.NewSampleAt(newName, newPatientID, newTestType, newSource, time.Now())
	msg, err := rt.service(nil, nil).AddSample(cmd.Context(), sample)
	if err != nil {
		return err
	}
	printResult(msg, "Sample added for "+sample.PatientName)
	return nil
}

func runSamplesStatus(cmd *cobra.Command, args []string) error {
	status, err := models.ParseStatus(strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.requireRole(models.RoleLab); err != nil {
		return err
	}
	rec, err := rt.loadOnce(cmd.Context(), models.RoleLab)
	if err != nil {
		return err
	}

	msg, err := rt.service(rec, nil).UpdateStatus(cmd.Context(), args[0], status, forceStatus)
	if err != nil {
		return err
	}
	printResult(msg, fmt.Sprintf("%s is now %s", args[0], status))
	return nil
}

func runSamplesClaim(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.requireRole(models.RoleED); err != nil {
		return err
	}
	rec, err := rt.loadOnce(cmd.Context(), models.RoleED)
	if err != nil {
		return err
	}

	by := claimBy
	if by == "" {
		by = rt.claimer()
	}
	msg, err := rt.service(rec, nil).Claim(cmd.Context(), args[0], by)
	if err != nil {
		return err
	}
	printResult(msg, fmt.Sprintf("%s claimed by %s", args[0], by))
	return nil
}

func runSamplesMetrics(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.Close()

	rec, err := rt.loadOnce(cmd.Context(), models.RoleLab)
	if err != nil {
		return err
	}
	records := rec.Snapshot().All

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tCOUNT")
	for _, c := range view.Histogram(records) {
		fmt.Fprintf(w, "%s\t%d\n", c.Status, c.Count)
	}
	w.Flush()

	fmt.Println()
	avgs := view.AverageTAT(records, time.Now())
	if len(avgs) == 0 {
		fmt.Println("No results completed today.")
		return nil
	}
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TEST\tAVG TAT (min)\tSAMPLES")
	for _, a := range avgs {
		fmt.Fprintf(w, "%s\t%.1f\t%d\n", a.TestType, a.Minutes, a.Count)
	}
	return w.Flush()
}

func runSamplesAudit(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.Close()

	sampleID := ""
	if len(args) == 1 {
		sampleID = args[0]
	}
	entries, err := rt.store.ListAudit(sampleID, auditLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No audit entries")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tSAMPLE\tOUTCOME\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Action, e.SampleID, e.Outcome, e.Details)
	}
	return w.Flush()
}

func formatTime(t models.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func printResult(serverMsg, fallback string) {
	if serverMsg != "" {
		fmt.Println("✓ " + serverMsg)
		return
	}
	fmt.Println("✓ " + fallback)
}
