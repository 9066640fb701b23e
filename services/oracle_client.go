// services/oracle_client.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrTxNotIndexed means the indexer has not seen the hash yet; retryable.
	ErrTxNotIndexed = errors.New("transaction not indexed yet")
	// ErrOracleUnavailable is terminal for this call; the whole RecordBurn may
	// be retried later (idempotency makes that safe).
	ErrOracleUnavailable = errors.New("chain oracle unavailable")
)

// TxInfo is the oracle's view of a mined transaction.
type TxInfo struct {
	From     string
	To       string
	StatusOK bool
}

// TxOracle is what the ledger needs from the chain indexer.
type TxOracle interface {
	FetchTransaction(ctx context.Context, txHash string) (*TxInfo, error)
}

// OracleClient queries the external chain-indexing service for transaction
// outcomes. The indexer lags the chain by a few seconds, so a freshly mined
// hash may not be visible yet, so FetchTransaction retries those with a fixed
// delay before giving up.
type OracleClient struct {
	BaseURL    string
	Network    string
	APIKey     string
	HTTPClient *http.Client

	// Retry knobs for "not indexed yet" answers. Tests shrink RetryDelay.
	MaxAttempts int
	RetryDelay  time.Duration
}

func NewOracleClient(baseURL, network, apiKey string) *OracleClient {
	return &OracleClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Network: network,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		MaxAttempts: 3,
		RetryDelay:  3 * time.Second,
	}
}

type oracleTxResponse struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Status json.RawMessage `json:"status"`
	Error  string          `json:"error,omitempty"`
}

// FetchTransaction looks up a transaction by hash. Only "not found" answers
// are retried; any other failure is terminal.
func (c *OracleClient) FetchTransaction(ctx context.Context, txHash string) (*TxInfo, error) {
	var lastErr error
	for attempt := 1; attempt <= c.MaxAttempts; attempt++ {
		if attempt > 1 {
			log.Printf("[ORACLE] tx %s not indexed yet, attempt %d/%d in %s", txHash, attempt, c.MaxAttempts, c.RetryDelay)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, ctx.Err())
			case <-time.After(c.RetryDelay):
			}
		}

		info, err := c.fetchOnce(ctx, txHash)
		if err == nil {
			return info, nil
		}
		if !errors.Is(err, ErrTxNotIndexed) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v after %d attempts", ErrOracleUnavailable, lastErr, c.MaxAttempts)
}

func (c *OracleClient) fetchOnce(ctx context.Context, txHash string) (*TxInfo, error) {
	url := fmt.Sprintf("%s/api/v1/transactions/%s?network=%s", c.BaseURL, txHash, c.Network)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	if c.APIKey != "" {
		req.Header.Set("X-Api-Key", c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrTxNotIndexed
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: indexer returned %d: %s", ErrOracleUnavailable, resp.StatusCode, string(body))
	}

	var out oracleTxResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: bad indexer response: %v", ErrOracleUnavailable, err)
	}

	// Some indexer deployments answer 200 with an error body while catching up.
	if strings.EqualFold(strings.TrimSpace(out.Error), "not found") || (out.From == "" && out.To == "") {
		return nil, ErrTxNotIndexed
	}

	return &TxInfo{
		From:     strings.ToLower(out.From),
		To:       strings.ToLower(out.To),
		StatusOK: statusOK(out.Status),
	}, nil
}

// statusOK folds the indexer's status shapes (1, "1", "success", ...) into a
// single boolean. Anything unrecognized counts as failed.
func statusOK(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}

	var asNum float64
	if err := json.Unmarshal(raw, &asNum); err == nil {
		return asNum == 1
	}

	var asStr string
	if err := json.Unmarshal(raw, &asStr); err == nil {
		switch strings.ToLower(strings.TrimSpace(asStr)) {
		case "1", "success", "succeeded", "ok", "confirmed":
			return true
		}
	}
	return false
}
