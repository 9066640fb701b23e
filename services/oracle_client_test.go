package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestOracleClient(srv *httptest.Server) *OracleClient {
	c := NewOracleClient(srv.URL, "base-mainnet", "test-key")
	c.RetryDelay = time.Millisecond
	return c
}

func TestFetchTransactionStatusShapes(t *testing.T) {
	cases := []struct {
		name   string
		status string // raw JSON
		wantOK bool
	}{
		{"numeric one", `1`, true},
		{"numeric zero", `0`, false},
		{"string one", `"1"`, true},
		{"string zero", `"0"`, false},
		{"success word", `"success"`, true},
		{"mixed case", `"Confirmed"`, true},
		{"succeeded", `"SUCCEEDED"`, true},
		{"ok", `"ok"`, true},
		{"failed word", `"failed"`, false},
		{"null", `null`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, `{"from":"0xAAAA","to":"0xBBBB","status":%s}`, tc.status)
			}))
			defer srv.Close()

			info, err := newTestOracleClient(srv).FetchTransaction(context.Background(), "0xdead")
			if err != nil {
				t.Fatalf("FetchTransaction failed: %v", err)
			}
			if info.StatusOK != tc.wantOK {
				t.Errorf("StatusOK = %t, want %t", info.StatusOK, tc.wantOK)
			}
			if info.From != "0xaaaa" || info.To != "0xbbbb" {
				t.Errorf("addresses not lowercased: %+v", info)
			}
		})
	}
}

func TestFetchTransactionRetriesNotFound(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"from": "0xaaaa", "to": "0xbbbb", "status": 1,
		})
	}))
	defer srv.Close()

	info, err := newTestOracleClient(srv).FetchTransaction(context.Background(), "0xdead")
	if err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if !info.StatusOK {
		t.Error("expected StatusOK")
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("indexer hit %d times, want 3", got)
	}
}

func TestFetchTransactionExhaustsRetries(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestOracleClient(srv).FetchTransaction(context.Background(), "0xdead")
	if !errors.Is(err, ErrOracleUnavailable) {
		t.Fatalf("got %v, want ErrOracleUnavailable", err)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("indexer hit %d times, want 3 (max attempts)", got)
	}
}

func TestFetchTransactionBodyLevelNotFoundRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 2 {
			fmt.Fprint(w, `{"error":"not found"}`)
			return
		}
		fmt.Fprint(w, `{"from":"0xaaaa","to":"0xbbbb","status":"1"}`)
	}))
	defer srv.Close()

	info, err := newTestOracleClient(srv).FetchTransaction(context.Background(), "0xdead")
	if err != nil {
		t.Fatalf("expected success on second attempt, got %v", err)
	}
	if !info.StatusOK {
		t.Error("expected StatusOK")
	}
}

func TestFetchTransactionServerErrorIsTerminal(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestOracleClient(srv).FetchTransaction(context.Background(), "0xdead")
	if !errors.Is(err, ErrOracleUnavailable) {
		t.Fatalf("got %v, want ErrOracleUnavailable", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("terminal failure retried: %d hits, want 1", got)
	}
}

func TestFetchTransactionSendsNetworkAndKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("network"); got != "base-mainnet" {
			t.Errorf("network query = %q", got)
		}
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}
		fmt.Fprint(w, `{"from":"0xaaaa","to":"0xbbbb","status":1}`)
	}))
	defer srv.Close()

	if _, err := newTestOracleClient(srv).FetchTransaction(context.Background(), "0xdead"); err != nil {
		t.Fatalf("FetchTransaction failed: %v", err)
	}
}
