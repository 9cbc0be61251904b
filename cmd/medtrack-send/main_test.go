package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leshachaplin/medtrack/internal/domain"
)

type collector struct {
	mu     sync.Mutex
	events []domain.Event
}

func (c *collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var batch domain.Batch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	c.mu.Lock()
	c.events = append(c.events, batch.Events...)
	c.mu.Unlock()
	w.WriteHeader(http.StatusAccepted)
}

func (c *collector) names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Event)
	}
	return out
}

func TestRun_ReplaysStdin(t *testing.T) {
	c := &collector{}
	srv := httptest.NewServer(c)
	defer srv.Close()

	input := strings.Join([]string{
		`{"event":"button_click","properties":{"button_name":"book"}}`,
		`not json`,
		`{"page":"https://example.com/pricing","title":"Pricing"}`,
		``,
		`{"event":"form_start","properties":{"form_name":"contact"},"userId":"u-1"}`,
		`{"event":"phone_call","properties":{"value":5}}`,
	}, "\n")

	err := run([]string{"--endpoint", srv.URL, "--threshold", "2", "--log-level", "ERROR"}, strings.NewReader(input))
	require.NoError(t, err)

	require.ElementsMatch(t, []string{
		"page_view",
		"button_click",
		"page_view",
		"form_start",
		"phone_call",
	}, c.names())
}

func TestRun_UndeliveredOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := run([]string{"--endpoint", srv.URL, "--log-level", "ERROR"}, strings.NewReader(`{"event":"button_click"}`))
	require.Error(t, err)
}

func TestRun_BadFlag(t *testing.T) {
	require.Error(t, run([]string{"--nope"}, strings.NewReader("")))
}

func TestRun_Help(t *testing.T) {
	require.NoError(t, run([]string{"--help"}, strings.NewReader("")))
}
