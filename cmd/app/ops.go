package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

func doRegister(ctx context.Context, cfg cliConfig, username, password string, out any) error {
	c := newClient(cfg)
	creds := map[string]any{"username": username, "password": password}
	if c.usesSocket() {
		return c.rpc(ctx, "auth.register", creds, out)
	}
	return c.rest(ctx, http.MethodPost, "/api/auth/register", creds, out)
}

func doLogin(ctx context.Context, cfg cliConfig, username, password string, out any) error {
	c := newClient(cfg)
	if c.usesSocket() {
		return c.rpc(ctx, "auth.login", map[string]any{"username": username, "password": password}, out)
	}
	return c.rest(ctx, http.MethodPost, "/api/auth/login", map[string]any{"username": username, "password": password, "mode": "token"}, out)
}

func doWhoAmI(ctx context.Context, cfg cliConfig, out any) error {
	c := newClient(cfg)
	if c.usesSocket() {
		return c.rpc(ctx, "auth.whoami", nil, out)
	}
	return c.rest(ctx, http.MethodGet, "/api/auth/whoami", nil, out)
}

func doLogout(ctx context.Context, cfg cliConfig) error {
	c := newClient(cfg)
	if c.usesSocket() {
		return c.rpc(ctx, "auth.logout", nil, nil)
	}
	return c.rest(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func doProfileGet(ctx context.Context, cfg cliConfig, out any) error {
	c := newClient(cfg)
	if c.usesSocket() {
		return c.rpc(ctx, "profile.get", nil, out)
	}
	return c.rest(ctx, http.MethodGet, "/api/profile", nil, out)
}

func doProfileUpdate(ctx context.Context, cfg cliConfig, fields map[string]any) error {
	c := newClient(cfg)
	if c.usesSocket() {
		return c.rpc(ctx, "profile.update", fields, nil)
	}
	return c.rest(ctx, http.MethodPut, "/api/profile", fields, nil)
}

func doCategoriesList(ctx context.Context, cfg cliConfig, out any) error {
	c := newClient(cfg)
	if c.usesSocket() {
		return c.rpc(ctx, "categories.list", nil, out)
	}
	return c.rest(ctx, http.MethodGet, "/api/categories", nil, out)
}

func doCategoriesAdd(ctx context.Context, cfg cliConfig, name string, out any) error {
	c := newClient(cfg)
	if c.usesSocket() {
		return c.rpc(ctx, "categories.add", map[string]any{"name": name}, out)
	}
	return c.rest(ctx, http.MethodPost, "/api/categories", map[string]any{"name": name}, out)
}

func doExercisesList(ctx context.Context, cfg cliConfig, categoryIDs []uint, q string, out any) error {
	c := newClient(cfg)
	if c.usesSocket() {
		return c.rpc(ctx, "exercises.list", map[string]any{"category_ids": categoryIDs, "q": q}, out)
	}
	params := url.Values{}
	for _, id := range categoryIDs {
		params.Add("category_id", uintToString(id))
	}
	if q != "" {
		params.Set("q", q)
	}
	path := "/api/exercises"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	return c.rest(ctx, http.MethodGet, path, nil, out)
}

func doExercisesCreate(ctx context.Context, cfg cliConfig, name, description string, categoryIDs []uint, out any) error {
	c := newClient(cfg)
	body := map[string]any{"name": name, "description": description, "category_ids": categoryIDs}
	if c.usesSocket() {
		return c.rpc(ctx, "exercises.create", body, out)
	}
	return c.rest(ctx, http.MethodPost, "/api/exercises", body, out)
}

func doSessionsList(ctx context.Context, cfg cliConfig, out any) error {
	c := newClient(cfg)
	if c.usesSocket() {
		return c.rpc(ctx, "sessions.list", nil, out)
	}
	return c.rest(ctx, http.MethodGet, "/api/sessions", nil, out)
}

func doSessionsCreate(ctx context.Context, cfg cliConfig, name, date, notes string, out any) error {
	c := newClient(cfg)
	body := map[string]any{"name": name, "date": date, "notes": notes}
	if c.usesSocket() {
		return c.rpc(ctx, "sessions.create", body, out)
	}
	return c.rest(ctx, http.MethodPost, "/api/sessions", body, out)
}

func doSessionsDelete(ctx context.Context, cfg cliConfig, sessionID uint) error {
	c := newClient(cfg)
	if c.usesSocket() {
		return c.rpc(ctx, "sessions.delete", map[string]any{"session_id": sessionID}, nil)
	}
	return c.rest(ctx, http.MethodDelete, "/api/sessions/"+uintToString(sessionID), nil, nil)
}

func doLogSelect(ctx context.Context, cfg cliConfig, sessionID uint, out any) error {
	c := newClient(cfg)
	if c.usesSocket() {
		return c.rpc(ctx, "logbook.select", map[string]any{"session_id": sessionID}, out)
	}
	return c.rest(ctx, http.MethodPost, "/api/logbook/select", map[string]any{"session_id": sessionID}, out)
}

func doLogAddSet(ctx context.Context, cfg cliConfig, exerciseID uint, bodyweight bool, weight float64, reps, rpe int, out any) error {
	c := newClient(cfg)
	body := map[string]any{"exercise_id": exerciseID, "bodyweight": bodyweight, "weight": weight, "reps": reps, "rpe": rpe}
	if c.usesSocket() {
		return c.rpc(ctx, "logbook.add_set", body, out)
	}
	return c.rest(ctx, http.MethodPost, "/api/logbook/sets", body, out)
}

func doLogDuplicateLast(ctx context.Context, cfg cliConfig, exerciseID uint, out any) error {
	c := newClient(cfg)
	if c.usesSocket() {
		return c.rpc(ctx, "logbook.duplicate_last", map[string]any{"exercise_id": exerciseID}, out)
	}
	return c.rest(ctx, http.MethodPost, "/api/logbook/duplicate-last", map[string]any{"exercise_id": exerciseID}, out)
}

func doLogClear(ctx context.Context, cfg cliConfig, exerciseID uint) error {
	c := newClient(cfg)
	if c.usesSocket() {
		return c.rpc(ctx, "logbook.clear", map[string]any{"exercise_id": exerciseID}, nil)
	}
	return c.rest(ctx, http.MethodPost, "/api/logbook/clear", map[string]any{"exercise_id": exerciseID}, nil)
}

func doLogShow(ctx context.Context, cfg cliConfig, out any) error {
	c := newClient(cfg)
	if c.usesSocket() {
		return c.rpc(ctx, "logbook.show", nil, out)
	}
	return c.rest(ctx, http.MethodGet, "/api/logbook", nil, out)
}

func doLogSave(ctx context.Context, cfg cliConfig, out any) error {
	c := newClient(cfg)
	if c.usesSocket() {
		return c.rpc(ctx, "logbook.save", nil, out)
	}
	return c.rest(ctx, http.MethodPost, "/api/logbook/save", nil, out)
}

func doReportExercise(ctx context.Context, cfg cliConfig, exerciseID uint, out any) error {
	c := newClient(cfg)
	if c.usesSocket() {
		return c.rpc(ctx, "reports.exercise", map[string]any{"exercise_id": exerciseID}, out)
	}
	return c.rest(ctx, http.MethodGet, "/api/reports/exercise/"+uintToString(exerciseID), nil, out)
}

func doReportSession(ctx context.Context, cfg cliConfig, sessionID uint, out any) error {
	c := newClient(cfg)
	if c.usesSocket() {
		return c.rpc(ctx, "reports.session", map[string]any{"session_id": sessionID}, out)
	}
	return c.rest(ctx, http.MethodGet, "/api/reports/session/"+uintToString(sessionID), nil, out)
}

func doSetsDelete(ctx context.Context, cfg cliConfig, ids []uint) error {
	c := newClient(cfg)
	if c.usesSocket() {
		return c.rpc(ctx, "sets.delete", map[string]any{"ids": ids}, nil)
	}
	return c.rest(ctx, http.MethodDelete, "/api/sets", map[string]any{"ids": ids}, nil)
}

func uintToString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func parseUintList(values []string) ([]uint, error) {
	out := make([]uint, 0, len(values))
	for _, raw := range values {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer id", raw)
		}
		out = append(out, uint(parsed))
	}
	return out, nil
}
