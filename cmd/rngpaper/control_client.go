package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dixieflatline76/rngpaper/pkg/history"
)

const controlClientTimeout = 5 * time.Second

// errNoDaemon means no instance is listening on the control address.
var errNoDaemon = errors.New("no running instance")

// controlClient talks to a running daemon's control API.
type controlClient struct {
	base string
	http *http.Client
}

func newControlClient(addr string) *controlClient {
	return &controlClient{
		base: "http://" + addr,
		http: &http.Client{Timeout: controlClientTimeout},
	}
}

func (c *controlClient) do(method, path string, wantStatus int, out any) error {
	req, err := http.NewRequest(method, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) && !uerr.Timeout() {
			return fmt.Errorf("%w: %v", errNoDaemon, err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return fmt.Errorf("%s %s: %s %s", method, path, resp.Status, body.Error)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Change queues a change on the daemon.
func (c *controlClient) Change() error {
	return c.do(http.MethodPost, "/change", http.StatusAccepted, nil)
}

// EmptyCache empties the daemon's cache.
func (c *controlClient) EmptyCache() error {
	return c.do(http.MethodPost, "/cache/empty", http.StatusOK, nil)
}

// History reads the daemon's recent changes.
func (c *controlClient) History(n int) ([]history.Entry, error) {
	var body struct {
		Entries []history.Entry `json:"entries"`
	}
	if err := c.do(http.MethodGet, "/history?limit="+strconv.Itoa(n), http.StatusOK, &body); err != nil {
		return nil, err
	}
	return body.Entries, nil
}
