package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// cliConfig is the persisted client state at ~/.powerscouter/config.json:
// which transport to use, where the server lives, and the auth token from
// the last login.
type cliConfig struct {
	Transport string `json:"transport"`
	Server    string `json:"server"`
	Socket    string `json:"socket"`
	Token     string `json:"token"`
}

func defaultConfig() cliConfig {
	return cliConfig{
		Transport: "uds",
		Server:    "http://127.0.0.1:8080",
		Socket:    "/tmp/powerscouter.sock",
	}
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".powerscouter", "config.json"), nil
}

func loadConfig() (cliConfig, error) {
	path, err := configPath()
	if err != nil {
		return cliConfig{}, err
	}

	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cliConfig{}, err
	}

	var stored cliConfig
	if err := json.Unmarshal(data, &stored); err != nil {
		return cliConfig{}, err
	}
	if stored.Transport != "" {
		cfg.Transport = stored.Transport
	}
	if stored.Server != "" {
		cfg.Server = stored.Server
	}
	if stored.Socket != "" {
		cfg.Socket = stored.Socket
	}
	cfg.Token = stored.Token
	return cfg, nil
}

func saveConfig(cfg cliConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// client talks to a running powerscouter server over whichever transport
// the config selects: JSON-RPC on the unix socket by default, the HTTP API
// otherwise. The stored token is attached automatically on both paths.
type client struct {
	cfg  cliConfig
	http *http.Client
}

func newClient(cfg cliConfig) *client {
	return &client{cfg: cfg, http: &http.Client{Timeout: 20 * time.Second}}
}

func (c *client) usesSocket() bool { return c.cfg.Transport == "uds" }

// rpc performs one JSON-RPC call over the unix socket, folding the stored
// token into params so authenticated methods see it.
func (c *client) rpc(ctx context.Context, method string, params map[string]any, out any) error {
	if params == nil {
		params = map[string]any{}
	}
	if c.cfg.Token != "" {
		if _, ok := params["token"]; !ok {
			params["token"] = c.cfg.Token
		}
	}

	dialer := net.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "unix", c.cfg.Socket)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	call := struct {
		JSONRPC string         `json:"jsonrpc"`
		Method  string         `json:"method"`
		Params  map[string]any `json:"params"`
		ID      int            `json:"id"`
	}{JSONRPC: "2.0", Method: method, Params: params, ID: 1}
	if err := json.NewEncoder(conn).Encode(call); err != nil {
		return err
	}

	var reply struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return err
	}
	if reply.Error != nil {
		return fmt.Errorf("rpc error (%d): %s", reply.Error.Code, reply.Error.Message)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(reply.Result, out)
}

// rest performs one call against the HTTP API with bearer auth.
func (c *client) rest(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.Server, "/")+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
