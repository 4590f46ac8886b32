package application

import "github.com/mi-xalis/power-scouter/internal/domain"

// SetEntry is one buffered set: the effective resistance after bodyweight
// resolution, reps, and the RPE rating.
type SetEntry struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
	RPE    int     `json:"rpe"`
}

// SetInput is what the caller supplies for a new set. When Bodyweight is
// set, Weight is the added external weight on top of the profile weight.
type SetInput struct {
	Bodyweight bool    `json:"bodyweight"`
	Weight     float64 `json:"weight"`
	Reps       int     `json:"reps"`
	RPE        int     `json:"rpe"`
}

// Logbook buffers one user's in-progress workout before the single atomic
// save. Nothing here touches storage; an unsaved logbook is lost on session
// switch or process restart by design.
type Logbook struct {
	sessionID uint
	order     []uint
	entries   map[uint][]SetEntry
}

func newLogbook() *Logbook {
	return &Logbook{entries: make(map[uint][]SetEntry)}
}

func (l *Logbook) SessionID() uint { return l.sessionID }

// Select targets a session. Switching to a different session discards
// every buffered set.
func (l *Logbook) Select(sessionID uint) {
	if l.sessionID != sessionID {
		l.reset()
	}
	l.sessionID = sessionID
}

func (l *Logbook) Add(exerciseID uint, entry SetEntry) {
	if _, ok := l.entries[exerciseID]; !ok {
		l.order = append(l.order, exerciseID)
	}
	l.entries[exerciseID] = append(l.entries[exerciseID], entry)
}

func (l *Logbook) DuplicateLast(exerciseID uint) (SetEntry, error) {
	sets := l.entries[exerciseID]
	if len(sets) == 0 {
		return SetEntry{}, domain.ErrNotFound
	}
	last := sets[len(sets)-1]
	l.entries[exerciseID] = append(sets, last)
	return last, nil
}

func (l *Logbook) Clear(exerciseID uint) {
	delete(l.entries, exerciseID)
	for i, id := range l.order {
		if id == exerciseID {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

// Exercises returns the buffered exercise ids in first-set insertion order.
func (l *Logbook) Exercises() []uint {
	out := make([]uint, len(l.order))
	copy(out, l.order)
	return out
}

func (l *Logbook) Sets(exerciseID uint) []SetEntry {
	sets := l.entries[exerciseID]
	out := make([]SetEntry, len(sets))
	copy(out, sets)
	return out
}

func (l *Logbook) Empty() bool {
	for _, sets := range l.entries {
		if len(sets) > 0 {
			return false
		}
	}
	return true
}

func (l *Logbook) reset() {
	l.order = nil
	l.entries = make(map[uint][]SetEntry)
}
