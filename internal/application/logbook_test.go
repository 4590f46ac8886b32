package application

import (
	"errors"
	"testing"

	"github.com/mi-xalis/power-scouter/internal/domain"
)

func TestLogbookTracksInsertionOrder(t *testing.T) {
	book := newLogbook()
	book.Select(5)

	book.Add(2, SetEntry{Weight: 100, Reps: 5, RPE: 8})
	book.Add(7, SetEntry{Weight: 60, Reps: 10, RPE: 7})
	book.Add(2, SetEntry{Weight: 100, Reps: 5, RPE: 9})

	exercises := book.Exercises()
	if len(exercises) != 2 || exercises[0] != 2 || exercises[1] != 7 {
		t.Fatalf("unexpected exercise order: %v", exercises)
	}
	if got := book.Sets(2); len(got) != 2 {
		t.Fatalf("expected 2 buffered sets, got %d", len(got))
	}
}

func TestLogbookSelectDiscardsOnSwitch(t *testing.T) {
	book := newLogbook()
	book.Select(1)
	book.Add(2, SetEntry{Weight: 100, Reps: 5, RPE: 8})

	// Re-selecting the same session keeps the buffer.
	book.Select(1)
	if book.Empty() {
		t.Fatalf("buffer discarded on same-session select")
	}

	book.Select(9)
	if !book.Empty() {
		t.Fatalf("buffer kept after switching sessions")
	}
	if book.SessionID() != 9 {
		t.Fatalf("session id not updated, got %d", book.SessionID())
	}
}

func TestLogbookDuplicateLast(t *testing.T) {
	book := newLogbook()
	book.Select(1)

	if _, err := book.DuplicateLast(3); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty exercise, got %v", err)
	}

	book.Add(3, SetEntry{Weight: 80, Reps: 8, RPE: 7})
	dup, err := book.DuplicateLast(3)
	if err != nil {
		t.Fatalf("duplicate last: %v", err)
	}
	if dup.Weight != 80 || dup.Reps != 8 || dup.RPE != 7 {
		t.Fatalf("unexpected duplicate: %+v", dup)
	}
	if got := book.Sets(3); len(got) != 2 {
		t.Fatalf("expected 2 sets after duplicate, got %d", len(got))
	}
}

func TestLogbookClearRemovesExercise(t *testing.T) {
	book := newLogbook()
	book.Select(1)
	book.Add(3, SetEntry{Weight: 80, Reps: 8, RPE: 7})
	book.Add(4, SetEntry{Weight: 40, Reps: 12, RPE: 6})

	book.Clear(3)
	if got := book.Sets(3); len(got) != 0 {
		t.Fatalf("expected cleared exercise, got %d sets", len(got))
	}
	exercises := book.Exercises()
	if len(exercises) != 1 || exercises[0] != 4 {
		t.Fatalf("unexpected exercises after clear: %v", exercises)
	}
}

func TestLogbookSnapshotsAreCopies(t *testing.T) {
	book := newLogbook()
	book.Select(1)
	book.Add(3, SetEntry{Weight: 80, Reps: 8, RPE: 7})

	sets := book.Sets(3)
	sets[0].Weight = 999
	if book.Sets(3)[0].Weight != 80 {
		t.Fatalf("mutating a snapshot leaked into the buffer")
	}
}
