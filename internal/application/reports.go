package application

import (
	"sort"

	"github.com/mi-xalis/power-scouter/internal/domain"
)

// brzyckiMaxReps is the largest rep count the Brzycki estimate is defined
// for; at 37 the denominator hits zero and beyond it the sign flips.
const brzyckiMaxReps = 36

// OneRepMax estimates a one-rep max with the Brzycki formula,
// weight * 36 / (37 - reps). The second return is false when the rep count
// is outside the formula's domain and the set carries no estimate.
func OneRepMax(weight float64, reps int) (float64, bool) {
	if reps < 1 || reps > brzyckiMaxReps {
		return 0, false
	}
	return weight * 36 / float64(37-reps), true
}

func VolumeLoad(weight float64, reps int) float64 {
	return weight * float64(reps)
}

// TrendPoint is one calendar date in the by-exercise report: the best 1RM
// estimate of that date's sets and their summed volume load. OneRepMax is
// zero when no set of the date has a defined estimate.
type TrendPoint struct {
	Date       string  `json:"date"`
	OneRepMax  float64 `json:"one_rep_max"`
	VolumeLoad float64 `json:"volume_load"`
}

// ExerciseTrend groups sets by session date, dates ascending.
func ExerciseTrend(sets []domain.SetDetail) []TrendPoint {
	byDate := make(map[string]*TrendPoint)
	for _, set := range sets {
		point, ok := byDate[set.SessionDate]
		if !ok {
			point = &TrendPoint{Date: set.SessionDate}
			byDate[set.SessionDate] = point
		}
		if orm, defined := OneRepMax(set.Weight, set.Reps); defined && orm > point.OneRepMax {
			point.OneRepMax = orm
		}
		point.VolumeLoad += VolumeLoad(set.Weight, set.Reps)
	}

	out := make([]TrendPoint, 0, len(byDate))
	for _, point := range byDate {
		out = append(out, *point)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

type SessionTotals struct {
	SetCount   int     `json:"set_count"`
	TotalReps  int     `json:"total_reps"`
	VolumeLoad float64 `json:"volume_load"`
}

// ExerciseBreakdown is the per-exercise slice of a by-session report.
// BestOneRepMax is zero when no set of the exercise has a defined estimate.
type ExerciseBreakdown struct {
	ExerciseID    uint    `json:"exercise_id"`
	ExerciseName  string  `json:"exercise_name"`
	SetCount      int     `json:"set_count"`
	TotalReps     int     `json:"total_reps"`
	VolumeLoad    float64 `json:"volume_load"`
	BestOneRepMax float64 `json:"best_one_rep_max"`
}

// SummarizeSession aggregates one session's sets into totals and
// per-exercise subtotals, ordered by exercise name.
func SummarizeSession(sets []domain.SetDetail) (SessionTotals, []ExerciseBreakdown) {
	var totals SessionTotals
	byExercise := make(map[uint]*ExerciseBreakdown)

	for _, set := range sets {
		totals.SetCount++
		totals.TotalReps += set.Reps
		totals.VolumeLoad += VolumeLoad(set.Weight, set.Reps)

		entry, ok := byExercise[set.ExerciseID]
		if !ok {
			entry = &ExerciseBreakdown{ExerciseID: set.ExerciseID, ExerciseName: set.ExerciseName}
			byExercise[set.ExerciseID] = entry
		}
		entry.SetCount++
		entry.TotalReps += set.Reps
		entry.VolumeLoad += VolumeLoad(set.Weight, set.Reps)
		if orm, defined := OneRepMax(set.Weight, set.Reps); defined && orm > entry.BestOneRepMax {
			entry.BestOneRepMax = orm
		}
	}

	out := make([]ExerciseBreakdown, 0, len(byExercise))
	for _, entry := range byExercise {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExerciseName < out[j].ExerciseName })
	return totals, out
}

// ExerciseReport is the by-exercise view: the 1RM/volume time series plus
// the underlying sets for display and selective deletion.
type ExerciseReport struct {
	ExerciseID   uint               `json:"exercise_id"`
	ExerciseName string             `json:"exercise_name"`
	Trend        []TrendPoint       `json:"trend"`
	Sets         []domain.SetDetail `json:"sets"`
}

// SessionReport is the by-session view.
type SessionReport struct {
	Session   domain.Session      `json:"session"`
	Totals    SessionTotals       `json:"totals"`
	Exercises []ExerciseBreakdown `json:"exercises"`
	Sets      []domain.SetDetail  `json:"sets"`
}
