package rpcjson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mi-xalis/power-scouter/internal/application"
	"github.com/mi-xalis/power-scouter/internal/domain"
)

type Server struct {
	service  *application.WorkoutService
	listener net.Listener
	path     string
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      any             `json:"id"`
}

type response struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func Start(path string, service *application.WorkoutService) (*Server, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("rpc socket path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		_ = os.Remove(path)
		return nil, err
	}

	s := &Server{service: service, listener: ln, path: path}
	go s.serve()
	return s, nil
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *Server) Close() error {
	err := s.listener.Close()
	_ = os.Remove(s.path)
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)

	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			_ = enc.Encode(response{JSONRPC: "2.0", Error: &rpcError{Code: -32700, Message: "parse error"}, ID: nil})
			return
		}

		resp := s.dispatch(context.Background(), req)
		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req request) response {
	if req.JSONRPC != "2.0" || strings.TrimSpace(req.Method) == "" {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: -32600, Message: "invalid request"}, ID: req.ID}
	}

	switch req.Method {
	case "auth.register":
		var p struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		u, err := s.service.CreateAccount(ctx, p.Username, p.Password)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: map[string]any{"user_id": u.ID, "username": u.Username}, ID: req.ID}
	case "auth.login":
		var p struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		u, token, err := s.service.LoginWithSession(ctx, p.Username, p.Password, 12*time.Hour)
		if err != nil {
			return response{JSONRPC: "2.0", Error: &rpcError{Code: 40100, Message: "invalid credentials"}, ID: req.ID}
		}
		return response{JSONRPC: "2.0", Result: map[string]any{"user_id": u.ID, "username": u.Username, "token": token}, ID: req.ID}
	case "auth.whoami":
		identity, rpcResp, ok := s.authz(ctx, req, false)
		if !ok {
			return rpcResp
		}
		return response{JSONRPC: "2.0", Result: map[string]any{"id": identity.User.ID, "username": identity.User.Username, "is_admin": identity.User.IsAdmin}, ID: req.ID}
	case "auth.logout":
		var p struct {
			Token string `json:"token"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		if err := s.service.Logout(ctx, p.Token); err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: map[string]any{"ok": true}, ID: req.ID}
	case "profile.get":
		identity, rpcResp, ok := s.authz(ctx, req, false)
		if !ok {
			return rpcResp
		}
		profile, err := s.service.GetProfile(ctx, identity.User.ID)
		if err != nil {
			return internalError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: profile, ID: req.ID}
	case "profile.update":
		identity, rpcResp, ok := s.authz(ctx, req, false)
		if !ok {
			return rpcResp
		}
		var p struct {
			Token    string   `json:"token"`
			Age      *int     `json:"age"`
			WeightKg *float64 `json:"weight_kg"`
			HeightCm *float64 `json:"height_cm"`
			Gender   *string  `json:"gender"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		err := s.service.UpdateProfile(ctx, identity.User.ID, domain.Profile{
			Age:      p.Age,
			WeightKg: p.WeightKg,
			HeightCm: p.HeightCm,
			Gender:   p.Gender,
		})
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: map[string]any{"ok": true}, ID: req.ID}
	case "categories.list":
		_, rpcResp, ok := s.authz(ctx, req, false)
		if !ok {
			return rpcResp
		}
		out, err := s.service.ListCategories(ctx)
		if err != nil {
			return internalError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: out, ID: req.ID}
	case "categories.add":
		_, rpcResp, ok := s.authz(ctx, req, false)
		if !ok {
			return rpcResp
		}
		var p struct {
			Token string `json:"token"`
			Name  string `json:"name"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.AddCategory(ctx, p.Name)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: out, ID: req.ID}
	case "exercises.list":
		_, rpcResp, ok := s.authz(ctx, req, false)
		if !ok {
			return rpcResp
		}
		var p struct {
			Token       string `json:"token"`
			CategoryIDs []uint `json:"category_ids"`
			Q           string `json:"q"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.ListExercises(ctx, domain.ExerciseFilter{CategoryIDs: p.CategoryIDs, NameQuery: p.Q})
		if err != nil {
			return internalError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: out, ID: req.ID}
	case "exercises.create":
		_, rpcResp, ok := s.authz(ctx, req, true)
		if !ok {
			return rpcResp
		}
		var p struct {
			Token       string `json:"token"`
			Name        string `json:"name"`
			Description string `json:"description"`
			CategoryIDs []uint `json:"category_ids"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.CreateExercise(ctx, p.Name, p.Description, p.CategoryIDs)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: out, ID: req.ID}
	case "sessions.list":
		identity, rpcResp, ok := s.authz(ctx, req, false)
		if !ok {
			return rpcResp
		}
		out, err := s.service.ListSessions(ctx, identity.User.ID)
		if err != nil {
			return internalError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: out, ID: req.ID}
	case "sessions.create":
		identity, rpcResp, ok := s.authz(ctx, req, false)
		if !ok {
			return rpcResp
		}
		var p struct {
			Token string `json:"token"`
			Name  string `json:"name"`
			Date  string `json:"date"`
			Notes string `json:"notes"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.CreateSession(ctx, identity.User.ID, p.Name, p.Date, p.Notes)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: out, ID: req.ID}
	case "sessions.delete":
		identity, rpcResp, ok := s.authz(ctx, req, false)
		if !ok {
			return rpcResp
		}
		var p struct {
			Token     string `json:"token"`
			SessionID uint   `json:"session_id"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		if err := s.service.DeleteSession(ctx, identity.User.ID, p.SessionID); err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: map[string]any{"ok": true}, ID: req.ID}
	case "logbook.select":
		identity, rpcResp, ok := s.authz(ctx, req, false)
		if !ok {
			return rpcResp
		}
		var p struct {
			Token     string `json:"token"`
			SessionID uint   `json:"session_id"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.SelectSession(ctx, identity.User.ID, p.SessionID)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: out, ID: req.ID}
	case "logbook.add_set":
		identity, rpcResp, ok := s.authz(ctx, req, false)
		if !ok {
			return rpcResp
		}
		var p struct {
			Token      string  `json:"token"`
			ExerciseID uint    `json:"exercise_id"`
			Bodyweight bool    `json:"bodyweight"`
			Weight     float64 `json:"weight"`
			Reps       int     `json:"reps"`
			RPE        int     `json:"rpe"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.AddSet(ctx, identity.User.ID, p.ExerciseID, application.SetInput{
			Bodyweight: p.Bodyweight,
			Weight:     p.Weight,
			Reps:       p.Reps,
			RPE:        p.RPE,
		})
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: out, ID: req.ID}
	case "logbook.duplicate_last":
		identity, rpcResp, ok := s.authz(ctx, req, false)
		if !ok {
			return rpcResp
		}
		var p struct {
			Token      string `json:"token"`
			ExerciseID uint   `json:"exercise_id"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.DuplicateLastSet(identity.User.ID, p.ExerciseID)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: out, ID: req.ID}
	case "logbook.clear":
		identity, rpcResp, ok := s.authz(ctx, req, false)
		if !ok {
			return rpcResp
		}
		var p struct {
			Token      string `json:"token"`
			ExerciseID uint   `json:"exercise_id"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		s.service.ClearSets(identity.User.ID, p.ExerciseID)
		return response{JSONRPC: "2.0", Result: map[string]any{"ok": true}, ID: req.ID}
	case "logbook.show":
		identity, rpcResp, ok := s.authz(ctx, req, false)
		if !ok {
			return rpcResp
		}
		out, err := s.service.Buffered(ctx, identity.User.ID)
		if err != nil {
			return internalError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: out, ID: req.ID}
	case "logbook.save":
		identity, rpcResp, ok := s.authz(ctx, req, false)
		if !ok {
			return rpcResp
		}
		saved, err := s.service.SaveWorkout(ctx, identity.User.ID)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: map[string]any{"saved_sets": saved}, ID: req.ID}
	case "reports.exercise":
		identity, rpcResp, ok := s.authz(ctx, req, false)
		if !ok {
			return rpcResp
		}
		var p struct {
			Token      string `json:"token"`
			ExerciseID uint   `json:"exercise_id"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.ExerciseReport(ctx, identity.User.ID, p.ExerciseID)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: out, ID: req.ID}
	case "reports.session":
		identity, rpcResp, ok := s.authz(ctx, req, false)
		if !ok {
			return rpcResp
		}
		var p struct {
			Token     string `json:"token"`
			SessionID uint   `json:"session_id"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.SessionReport(ctx, identity.User.ID, p.SessionID)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: out, ID: req.ID}
	case "sets.delete":
		identity, rpcResp, ok := s.authz(ctx, req, false)
		if !ok {
			return rpcResp
		}
		var p struct {
			Token string `json:"token"`
			IDs   []uint `json:"ids"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		if err := s.service.DeleteSets(ctx, identity.User.ID, p.IDs); err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: map[string]any{"ok": true}, ID: req.ID}
	default:
		return response{JSONRPC: "2.0", Error: &rpcError{Code: -32601, Message: "method not found"}, ID: req.ID}
	}
}

func (s *Server) authz(ctx context.Context, req request, admin bool) (domain.Identity, response, bool) {
	var p struct {
		Token string `json:"token"`
	}
	if !decodeParams(req.Params, &p) {
		return domain.Identity{}, invalidParams(req.ID), false
	}
	identity, err := s.service.AuthenticateToken(ctx, p.Token)
	if err != nil {
		return domain.Identity{}, response{JSONRPC: "2.0", Error: &rpcError{Code: 40100, Message: "unauthorized"}, ID: req.ID}, false
	}
	if admin && !identity.User.IsAdmin {
		return domain.Identity{}, response{JSONRPC: "2.0", Error: &rpcError{Code: 40300, Message: "forbidden"}, ID: req.ID}, false
	}
	return identity, response{}, true
}

func decodeParams(raw json.RawMessage, out any) bool {
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func invalidParams(id any) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: -32602, Message: "invalid params"}, ID: id}
}

func appError(id any, err error) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: 40000, Message: err.Error()}, ID: id}
}

func internalError(id any, err error) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: 50000, Message: fmt.Sprintf("internal error: %v", err)}, ID: id}
}
