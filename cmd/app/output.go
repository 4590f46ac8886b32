package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/mi-xalis/power-scouter/internal/application"
	"github.com/mi-xalis/power-scouter/internal/domain"
)

func printJSON(v any) error {
	b, err := jsonMarshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatWeight(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatMaybeInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func formatMaybeFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatWeight(*v)
}

func formatMaybeString(v *string) string {
	if v == nil {
		return "-"
	}
	return *v
}

func printProfile(p domain.Profile) {
	printKV([][2]string{
		{"age", formatMaybeInt(p.Age)},
		{"weight_kg", formatMaybeFloat(p.WeightKg)},
		{"height_cm", formatMaybeFloat(p.HeightCm)},
		{"gender", formatMaybeString(p.Gender)},
	})
}

func printCategories(items []domain.Category) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(item.ID), 10),
			item.Name,
		})
	}
	printTable([]string{"ID", "NAME"}, rows)
}

func printExercises(items []domain.Exercise) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		names := make([]string, 0, len(item.Categories))
		for _, cat := range item.Categories {
			names = append(names, cat.Name)
		}
		rows = append(rows, []string{
			strconv.FormatUint(uint64(item.ID), 10),
			item.Name,
			strings.Join(names, ","),
			item.Description,
		})
	}
	printTable([]string{"ID", "NAME", "CATEGORIES", "DESCRIPTION"}, rows)
}

func printSessions(items []domain.Session) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(item.ID), 10),
			item.Date,
			item.Name,
			item.Notes,
		})
	}
	printTable([]string{"ID", "DATE", "NAME", "NOTES"}, rows)
}

func printLogbook(view application.LogbookView) {
	if view.SessionID == 0 {
		fmt.Println("no session selected")
	} else {
		fmt.Printf("session #%d\n", view.SessionID)
	}
	rows := make([][]string, 0)
	for _, ex := range view.Exercises {
		for i, set := range ex.Sets {
			rows = append(rows, []string{
				ex.ExerciseName,
				strconv.Itoa(i + 1),
				formatWeight(set.Weight),
				strconv.Itoa(set.Reps),
				strconv.Itoa(set.RPE),
			})
		}
	}
	printTable([]string{"EXERCISE", "SET", "WEIGHT", "REPS", "RPE"}, rows)
}

func printExerciseReport(report application.ExerciseReport) {
	fmt.Printf("%s (#%d)\n", report.ExerciseName, report.ExerciseID)
	rows := make([][]string, 0, len(report.Trend))
	for _, point := range report.Trend {
		rows = append(rows, []string{
			point.Date,
			formatWeight(point.OneRepMax),
			formatWeight(point.VolumeLoad),
		})
	}
	printTable([]string{"DATE", "EST_1RM", "VOLUME"}, rows)
}

func printSessionReport(report application.SessionReport) {
	printKV([][2]string{
		{"session", fmt.Sprintf("#%d %s", report.Session.ID, report.Session.Name)},
		{"date", report.Session.Date},
		{"sets", strconv.Itoa(report.Totals.SetCount)},
		{"total_reps", strconv.Itoa(report.Totals.TotalReps)},
		{"volume", formatWeight(report.Totals.VolumeLoad)},
	})
	rows := make([][]string, 0, len(report.Exercises))
	for _, ex := range report.Exercises {
		rows = append(rows, []string{
			ex.ExerciseName,
			strconv.Itoa(ex.SetCount),
			strconv.Itoa(ex.TotalReps),
			formatWeight(ex.VolumeLoad),
			formatWeight(ex.BestOneRepMax),
		})
	}
	printTable([]string{"EXERCISE", "SETS", "REPS", "VOLUME", "BEST_1RM"}, rows)
}

func printSetDetails(items []domain.SetDetail) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(item.ID), 10),
			item.SessionDate,
			item.SessionName,
			item.ExerciseName,
			strconv.Itoa(item.SetNumber),
			formatWeight(item.Weight),
			strconv.Itoa(item.Reps),
			strconv.Itoa(item.RPERating),
		})
	}
	printTable([]string{"ID", "DATE", "SESSION", "EXERCISE", "SET", "WEIGHT", "REPS", "RPE"}, rows)
}
