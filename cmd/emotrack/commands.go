package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kalambet/emotrack/internal/calendar"
	"github.com/kalambet/emotrack/internal/config"
	"github.com/kalambet/emotrack/internal/stats"
	"github.com/kalambet/emotrack/internal/tracker"
)

// dayView is the daemon's day representation.
type dayView struct {
	tracker.DailyRecord
	Day          string  `json:"day"`
	AverageScore float64 `json:"average_score"`
	Complete     bool    `json:"complete"`
}

type reminderView struct {
	Enabled     bool       `json:"enabled" yaml:"enabled"`
	Hour        int        `json:"hour" yaml:"hour"`
	Minute      int        `json:"minute" yaml:"minute"`
	DaysOfWeek  []int      `json:"days_of_week" yaml:"days_of_week"`
	DisplayTime string     `json:"display_time" yaml:"display_time"`
	NextFire    *time.Time `json:"next_fire,omitempty" yaml:"next_fire,omitempty"`
}

// dayPath turns a --date value into the /days/{date} path segment.
func dayPath(date string) string {
	if date == "" {
		date = "today"
	}
	return "/days/" + url.PathEscape(date)
}

func listFactors(ctx context.Context, client *apiClient) ([]tracker.Factor, error) {
	var factors []tracker.Factor
	if err := client.getJSON(ctx, "/factors", &factors); err != nil {
		return nil, err
	}
	return factors, nil
}

func resolveFactor(ctx context.Context, client *apiClient, ref string) (tracker.Factor, error) {
	factors, err := listFactors(ctx, client)
	if err != nil {
		return tracker.Factor{}, err
	}
	return tracker.MatchFactor(factors, ref)
}

// --- today ---

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's record",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		var day dayView
		if err := client.getJSON(ctx, "/days/today", &day); err != nil {
			return err
		}
		factors, err := listFactors(ctx, client)
		if err != nil {
			return err
		}
		renderDay(cmd.OutOrStdout(), day, factors)
		return nil
	},
}

// --- score ---

var scoreCmd = &cobra.Command{
	Use:   "score <factor> <score>",
	Short: "Record a 1-10 score for a factor",
	Long: `Record a 1-10 score for a factor.

The factor may be given by name (case-insensitive), ID, or ID prefix.
Scores outside 1-10 are clamped.

Examples:
  emotrack score loneliness 4
  emotrack score "Support network" 8 --date 2026-10-17`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		date, _ := cmd.Flags().GetString("date")

		score, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("score must be a whole number: %q", args[1])
		}
		if score < tracker.MinScore || score > tracker.MaxScore {
			printWarning("score %d is outside %d-%d and will be clamped", score, tracker.MinScore, tracker.MaxScore)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		f, err := resolveFactor(ctx, client, args[0])
		if err != nil {
			return err
		}

		resp, err := client.put(ctx, dayPath(date)+"/scores/"+url.PathEscape(f.ID), map[string]int{"score": score})
		if err != nil {
			return err
		}
		var day dayView
		if err := decodeJSON(resp, &day); err != nil {
			return err
		}

		printSuccess("Recorded %s = %d on %s", f.Name, day.Scores[f.ID], day.Day)
		if day.Complete {
			printStep("All factors scored for %s (average %.1f)", day.Day, day.AverageScore)
		}
		return nil
	},
}

func init() {
	scoreCmd.Flags().String("date", "today", "day as YYYY-MM-DD")
}

// --- note ---

var noteCmd = &cobra.Command{
	Use:   "note <text>",
	Short: "Replace the notes of a day",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		date, _ := cmd.Flags().GetString("date")
		text := strings.TrimSpace(strings.Join(args, " "))

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.put(ctx, dayPath(date)+"/notes", map[string]string{"notes": text})
		if err != nil {
			return err
		}
		var day dayView
		if err := decodeJSON(resp, &day); err != nil {
			return err
		}

		printSuccess("Saved notes for %s", day.Day)
		return nil
	},
}

func init() {
	noteCmd.Flags().String("date", "today", "day as YYYY-MM-DD")
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past records, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		var days []dayView
		if err := client.getJSON(cmd.Context(), historyPath(from, to, limit), &days); err != nil {
			return err
		}
		renderHistory(cmd.OutOrStdout(), days)
		return nil
	},
}

func historyPath(from, to string, limit int) string {
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if len(q) == 0 {
		return "/records"
	}
	return "/records?" + q.Encode()
}

func init() {
	historyCmd.Flags().String("from", "", "first day as YYYY-MM-DD")
	historyCmd.Flags().String("to", "", "last day as YYYY-MM-DD (default today when --from is set)")
	historyCmd.Flags().Int("limit", 30, "maximum number of records")
}

// --- delete ---

var deleteCmd = &cobra.Command{
	Use:   "delete <record-id>",
	Short: "Delete a daily record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/records/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Deleted record %s", args[0])
		return nil
	},
}

// --- factors ---

var factorsCmd = &cobra.Command{
	Use:   "factors",
	Short: "Manage emotional factors",
}

var factorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List factors in display order",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		factors, err := listFactors(cmd.Context(), client)
		if err != nil {
			return err
		}
		renderFactors(cmd.OutOrStdout(), factors)
		return nil
	},
}

var factorsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a custom factor",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/factors", map[string]string{"name": strings.Join(args, " ")})
		if err != nil {
			return err
		}
		var f tracker.Factor
		if err := decodeJSON(resp, &f); err != nil {
			return err
		}
		printSuccess("Added factor %s (%s)", f.Name, shortID(f.ID))
		return nil
	},
}

var factorsRenameCmd = &cobra.Command{
	Use:   "rename <factor> <new-name>",
	Short: "Rename a factor",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		f, err := resolveFactor(ctx, client, args[0])
		if err != nil {
			return err
		}
		name := strings.Join(args[1:], " ")
		resp, err := client.patch(ctx, "/factors/"+url.PathEscape(f.ID), map[string]string{"name": name})
		if err != nil {
			return err
		}
		var updated tracker.Factor
		if err := decodeJSON(resp, &updated); err != nil {
			return err
		}
		printSuccess("Renamed %s to %s", f.Name, updated.Name)
		return nil
	},
}

func setFactorActive(cmd *cobra.Command, ref string, active bool) error {
	ctx := cmd.Context()
	client, err := newAPIClient()
	if err != nil {
		return err
	}
	f, err := resolveFactor(ctx, client, ref)
	if err != nil {
		return err
	}
	resp, err := client.patch(ctx, "/factors/"+url.PathEscape(f.ID), map[string]bool{"active": active})
	if err != nil {
		return err
	}
	if err := decodeJSON(resp, nil); err != nil {
		return err
	}
	if active {
		printSuccess("Enabled %s", f.Name)
	} else {
		printSuccess("Disabled %s", f.Name)
	}
	return nil
}

var factorsEnableCmd = &cobra.Command{
	Use:   "enable <factor>",
	Short: "Include a factor in daily tracking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setFactorActive(cmd, args[0], true)
	},
}

var factorsDisableCmd = &cobra.Command{
	Use:   "disable <factor>",
	Short: "Exclude a factor from daily tracking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setFactorActive(cmd, args[0], false)
	},
}

var factorsRemoveCmd = &cobra.Command{
	Use:   "remove <factor>",
	Short: "Remove a custom factor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		f, err := resolveFactor(ctx, client, args[0])
		if err != nil {
			return err
		}
		resp, err := client.delete(ctx, "/factors/"+url.PathEscape(f.ID))
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Removed %s", f.Name)
		return nil
	},
}

func init() {
	factorsCmd.AddCommand(factorsListCmd)
	factorsCmd.AddCommand(factorsAddCmd)
	factorsCmd.AddCommand(factorsRenameCmd)
	factorsCmd.AddCommand(factorsEnableCmd)
	factorsCmd.AddCommand(factorsDisableCmd)
	factorsCmd.AddCommand(factorsRemoveCmd)
}

// --- stats ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show averages, extremes and trends",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ref, _ := cmd.Flags().GetString("factor")
		format, _ := cmd.Flags().GetString("format")
		if format != "text" && format != "json" && format != "yaml" {
			return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if ref != "" {
			f, err := resolveFactor(ctx, client, ref)
			if err != nil {
				return err
			}
			var fs stats.FactorSummary
			if err := client.getJSON(ctx, "/stats/factors/"+url.PathEscape(f.ID), &fs); err != nil {
				return err
			}
			if format == "text" {
				renderFactorSummary(out, fs)
				return nil
			}
			return encodeAs(out, format, fs)
		}

		var sum stats.Summary
		if err := client.getJSON(ctx, "/stats", &sum); err != nil {
			return err
		}
		if format == "text" {
			renderSummary(out, sum)
			return nil
		}
		return encodeAs(out, format, sum)
	},
}

func init() {
	statsCmd.Flags().String("factor", "", "limit to one factor (name, ID or ID prefix)")
	statsCmd.Flags().String("format", "text", "output format: text, json or yaml")
}

func encodeAs(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

// --- reminder ---

var reminderCmd = &cobra.Command{
	Use:   "reminder",
	Short: "Show or change the daily reminder",
}

var reminderShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show reminder settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		var rem reminderView
		if err := client.getJSON(cmd.Context(), "/settings/reminder", &rem); err != nil {
			return err
		}
		renderReminder(cmd.OutOrStdout(), rem)
		return nil
	},
}

var reminderSetCmd = &cobra.Command{
	Use:   "set <HH:MM>",
	Short: "Set the reminder time",
	Long: `Set the reminder time, and optionally the weekdays it fires on.

Examples:
  emotrack reminder set 21:30
  emotrack reminder set 08:00 --days mon,tue,wed,thu,fri`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hour, minute, err := parseClock(args[0])
		if err != nil {
			return err
		}
		var days []int
		if cmd.Flags().Changed("days") {
			raw, _ := cmd.Flags().GetString("days")
			if days, err = parseDays(raw); err != nil {
				return err
			}
		}
		return updateReminder(cmd, func(r *reminderView) {
			r.Hour, r.Minute = hour, minute
			if days != nil {
				r.DaysOfWeek = days
			}
		})
	},
}

var reminderOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Enable the daily reminder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateReminder(cmd, func(r *reminderView) { r.Enabled = true })
	},
}

var reminderOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Disable the daily reminder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateReminder(cmd, func(r *reminderView) { r.Enabled = false })
	},
}

// updateReminder reads the current settings, applies mutate and writes them back.
func updateReminder(cmd *cobra.Command, mutate func(*reminderView)) error {
	ctx := cmd.Context()
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	var cur reminderView
	if err := client.getJSON(ctx, "/settings/reminder", &cur); err != nil {
		return err
	}
	mutate(&cur)

	resp, err := client.put(ctx, "/settings/reminder", map[string]any{
		"enabled":      cur.Enabled,
		"hour":         cur.Hour,
		"minute":       cur.Minute,
		"days_of_week": cur.DaysOfWeek,
	})
	if err != nil {
		return err
	}
	var saved reminderView
	if err := decodeJSON(resp, &saved); err != nil {
		return err
	}
	printSuccess("Reminder %s", reminderLabel(saved))
	return nil
}

func init() {
	reminderSetCmd.Flags().String("days", "", "comma-separated weekdays (sun..sat or 0-6)")
	reminderCmd.AddCommand(reminderShowCmd)
	reminderCmd.AddCommand(reminderSetCmd)
	reminderCmd.AddCommand(reminderOnCmd)
	reminderCmd.AddCommand(reminderOffCmd)
}

// parseClock parses a 24-hour HH:MM time.
func parseClock(s string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid time %q (want HH:MM)", s)
	}
	if hour, err = strconv.Atoi(h); err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	if minute, err = strconv.Atoi(m); err != nil || minute < 0 || minute > 59 || len(m) != 2 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

var weekdayNames = []string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// parseDays parses weekdays given as names or numbers, Sunday = 0.
// An empty string means every day.
func parseDays(s string) ([]int, error) {
	days := []int{}
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if n, err := strconv.Atoi(part); err == nil {
			if n < 0 || n > 6 {
				return nil, fmt.Errorf("weekday %d out of range 0-6", n)
			}
			days = append(days, n)
			continue
		}
		found := false
		for i, name := range weekdayNames {
			if strings.HasPrefix(part, name) {
				days = append(days, i)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
	}
	return days, nil
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(out, "  %s = %s  %s\n", colorize(colorBold, k.Key), k.Value, colorize(colorCyan, "("+k.EnvVar+")"))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Restore a configuration value to its default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}

// --- data ---

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Export stored data",
}

var dataExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export factors, records and settings as JSONL",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		var writer io.Writer = cmd.OutOrStdout()
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			writer = f
		}

		n, err := exportData(cmd.Context(), client, writer)
		if err != nil {
			return err
		}
		if output != "" {
			printSuccess("Exported %d entries to %s", n, output)
		}
		return nil
	},
}

func init() {
	dataExportCmd.Flags().String("output", "", "output file path (default: stdout)")
	dataCmd.AddCommand(dataExportCmd)
}

type exportEntry struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// exportData writes one JSON line per factor, per record, and one for the
// reminder settings. It returns the number of lines written.
func exportData(ctx context.Context, client *apiClient, w io.Writer) (int, error) {
	enc := json.NewEncoder(w)
	n := 0
	emit := func(typ string, v any) error {
		if err := enc.Encode(exportEntry{Type: typ, Data: v}); err != nil {
			return fmt.Errorf("writing %s: %w", typ, err)
		}
		n++
		return nil
	}

	var factors []json.RawMessage
	if err := client.getJSON(ctx, "/factors", &factors); err != nil {
		return n, err
	}
	for _, f := range factors {
		if err := emit("factor", f); err != nil {
			return n, err
		}
	}

	var records []json.RawMessage
	if err := client.getJSON(ctx, "/records", &records); err != nil {
		return n, err
	}
	for _, r := range records {
		if err := emit("record", r); err != nil {
			return n, err
		}
	}

	var settings json.RawMessage
	if err := client.getJSON(ctx, "/settings/reminder", &settings); err != nil {
		return n, err
	}
	if err := emit("reminder_settings", settings); err != nil {
		return n, err
	}
	return n, nil
}

// --- rendering ---

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func scoreBar(score int) string {
	score = tracker.ClampScore(score)
	return strings.Repeat("█", score) + strings.Repeat("░", tracker.MaxScore-score)
}

func completionLabel(day dayView) string {
	if day.Complete {
		return fmt.Sprintf("complete, average %.1f", day.AverageScore)
	}
	if len(day.Scores) == 0 {
		return "not started"
	}
	return fmt.Sprintf("%d scored, average %.1f", len(day.Scores), day.AverageScore)
}

// dayNames lists days as short names, or returns "" for every day.
func dayNames(days []int) string {
	if len(days) == 0 || len(days) >= len(weekdayNames) {
		return ""
	}
	names := make([]string, 0, len(days))
	for _, d := range days {
		if d >= 0 && d < len(weekdayNames) {
			names = append(names, weekdayNames[d])
		}
	}
	return strings.Join(names, ",")
}

func reminderLabel(r reminderView) string {
	if !r.Enabled {
		return "off"
	}
	label := "daily at " + calendar.FormatClock(r.Hour, r.Minute)
	if names := dayNames(r.DaysOfWeek); names != "" {
		label = "at " + calendar.FormatClock(r.Hour, r.Minute) + " on " + names
	}
	if r.NextFire != nil {
		label += ", next " + r.NextFire.Format("Mon 02 Jan 15:04")
	}
	return label
}

func renderDay(w io.Writer, day dayView, factors []tracker.Factor) {
	fmt.Fprintf(w, "%s  %s\n", colorize(colorBold, calendar.FormatLong(day.Date)), completionLabel(day))
	for _, f := range factors {
		if !f.Active {
			continue
		}
		if v, ok := day.Scores[f.ID]; ok {
			fmt.Fprintf(w, "  %-20s %s %2d\n", f.Name, colorize(scoreColor(v), scoreBar(v)), v)
		} else {
			fmt.Fprintf(w, "  %-20s %s\n", f.Name, colorize(colorYellow, "not scored"))
		}
	}
	if day.Notes != "" {
		fmt.Fprintf(w, "\n  %s\n", day.Notes)
	}
}

func renderHistory(w io.Writer, days []dayView) {
	if len(days) == 0 {
		fmt.Fprintln(w, "No records found.")
		return
	}
	for _, d := range days {
		marker := " "
		if d.Complete {
			marker = colorize(colorGreen, "✓")
		}
		notes := d.Notes
		if len(notes) > 60 {
			notes = notes[:60] + "..."
		}
		fmt.Fprintf(w, "%s %s  %s  avg %s  %d scores  %s\n",
			marker,
			d.Day,
			colorize(colorCyan, shortID(d.ID)),
			colorize(scoreColor(int(math.Round(d.AverageScore))), fmt.Sprintf("%4.1f", d.AverageScore)),
			len(d.Scores),
			notes,
		)
	}
}

func renderFactors(w io.Writer, factors []tracker.Factor) {
	if len(factors) == 0 {
		fmt.Fprintln(w, "No factors defined.")
		return
	}
	for _, f := range factors {
		var tags []string
		if f.Custom {
			tags = append(tags, "custom")
		}
		if !f.Active {
			tags = append(tags, "inactive")
		}
		suffix := ""
		if len(tags) > 0 {
			suffix = colorize(colorYellow, " ("+strings.Join(tags, ", ")+")")
		}
		fmt.Fprintf(w, "%2d. %s  %s%s\n", f.Order, colorize(colorCyan, shortID(f.ID)), f.Name, suffix)
	}
}

func renderSummary(w io.Writer, sum stats.Summary) {
	fmt.Fprintf(w, "%s\n", colorize(colorBold, "Overall"))
	fmt.Fprintf(w, "  all time  %4.1f\n", sum.OverallAverage)
	fmt.Fprintf(w, "  7 days    %4.1f\n", sum.SevenDayAverage)
	fmt.Fprintf(w, "  30 days   %4.1f\n", sum.ThirtyDayAverage)
	for _, fs := range sum.Factors {
		fmt.Fprintln(w)
		renderFactorSummary(w, fs)
	}
}

func renderFactorSummary(w io.Writer, fs stats.FactorSummary) {
	st := fs.Statistics
	fmt.Fprintf(w, "%s\n", colorize(colorBold, fs.Factor.Name))
	if fs.DataPoints == 0 && st.HighestScore == 0 {
		fmt.Fprintln(w, "  no scores yet")
		return
	}
	fmt.Fprintf(w, "  7-day avg %4.1f  30-day avg %4.1f  high %d  low %d\n",
		st.SevenDayAverage, st.ThirtyDayAverage, st.HighestScore, st.LowestScore)
	if len(fs.Trend) > 0 {
		scores := make([]string, len(fs.Trend))
		for i, p := range fs.Trend {
			scores[i] = strconv.Itoa(p.Score)
		}
		fmt.Fprintf(w, "  trend (%d days): %s\n", fs.DataPoints, strings.Join(scores, " "))
	}
}

func renderReminder(w io.Writer, r reminderView) {
	state := colorize(colorGreen, "on")
	if !r.Enabled {
		state = colorize(colorYellow, "off")
	}
	fmt.Fprintf(w, "  %s %s\n", colorize(colorBold, "Reminder:"), state)
	fmt.Fprintf(w, "  %s %s\n", colorize(colorBold, "Time:"), r.DisplayTime)
	days := dayNames(r.DaysOfWeek)
	if days == "" {
		days = "every day"
	}
	fmt.Fprintf(w, "  %s %s\n", colorize(colorBold, "Days:"), days)
	if r.NextFire != nil {
		fmt.Fprintf(w, "  %s %s\n", colorize(colorBold, "Next:"), r.NextFire.Format("Mon 02 Jan 2006 15:04"))
	}
}
