package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"worktimer/internal/tracker"
)

// apiClient talks to the web API of a running daemon.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(addr string) *apiClient {
	return &apiClient{
		base: "http://" + addr,
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *apiClient) post(path string, query url.Values) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	resp, err := c.http.Post(u, "application/json", nil)
	if err != nil {
		return errors.Wrap(err, "daemon unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return responseError(resp)
	}
	return nil
}

func (c *apiClient) status() (*tracker.Snapshot, error) {
	resp, err := c.http.Get(c.base + "/api/status")
	if err != nil {
		return nil, errors.Wrap(err, "daemon unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	var snap tracker.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, errors.Wrap(err, "failed to decode status")
	}
	return &snap, nil
}

func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, msg)
}
