package identity

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// lookupMethod is the JSON-RPC method exposed by the badge service.
const lookupMethod = "barcode.lookup_attendee_from_barcode"

// ClientConfig holds badge-service connection parameters from the config
// document.
type ClientConfig struct {
	Endpoint string
	// Auth enables TLS client-certificate authentication.
	Auth     bool
	CertFile string
	KeyFile  string
	Timeout  time.Duration
}

// Client is a JSON-RPC 2.0 client for the badge service. It implements
// Lookup.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient builds a client, loading the TLS client certificate when Auth
// is set.
func NewClient(cfg ClientConfig) (*Client, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	hc := &http.Client{Timeout: timeout}
	if cfg.Auth {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		hc.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{Certificates: []tls.Certificate{cert}},
		}
	}
	return &Client{endpoint: cfg.Endpoint, http: hc}, nil
}

type rpcRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      int            `json:"id"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

type rpcResponse struct {
	Result *lookupResult `json:"result"`
	Error  *rpcError     `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type lookupResult struct {
	FullName string      `json:"full_name"`
	BadgeNum json.Number `json:"badge_num"`
	// Error is the service's in-band failure field for unknown or revoked
	// barcodes.
	Error string `json:"error"`
}

// LookupBarcode resolves a badge barcode to the attendee's name and badge
// number. Transport and protocol failures come back as *ServiceError;
// in-band lookup failures (unknown barcode) come back as plain errors.
func (c *Client) LookupBarcode(ctx context.Context, barcode string) (string, string, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  lookupMethod,
		Params:  map[string]any{"barcode_value": barcode},
	})
	if err != nil {
		return "", "", fmt.Errorf("encode lookup request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", &ServiceError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", &ServiceError{Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", &ServiceError{Err: fmt.Errorf("decode lookup response: %w", err)}
	}
	if out.Error != nil {
		return "", "", fmt.Errorf("lookup failed: %s", out.Error.Message)
	}
	if out.Result == nil {
		return "", "", &ServiceError{Err: fmt.Errorf("empty lookup response")}
	}
	if out.Result.Error != "" {
		return "", "", fmt.Errorf("lookup failed: %s", out.Result.Error)
	}
	return out.Result.FullName, out.Result.BadgeNum.String(), nil
}
