package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mi-xalis/power-scouter/internal/domain"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrDuplicateName, http.StatusConflict},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{fmt.Errorf("%w: session name is required", domain.ErrInvalidInput), http.StatusBadRequest},
		{domain.ErrInvalidReps, http.StatusBadRequest},
		{domain.ErrMissingBodyweight, http.StatusBadRequest},
		{domain.ErrNoSessionSelected, http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, tc.err)
		if rec.Code != tc.want {
			t.Fatalf("%v: expected status %d, got %d", tc.err, tc.want, rec.Code)
		}
	}
}
