package partnerapi

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default search paths per document type. Each can be overridden by env so a
// partner-side route change does not need a redeploy.
var searchPaths = map[string]struct {
	envKey string
	path   string
}{
	"prospect":       {"PARTNER_PROSPECTS_PATH", "/v1/prospects/search"},
	"service_order":  {"PARTNER_SERVICE_ORDERS_PATH", "/v1/service-orders/search"},
	"parts_shipment": {"PARTNER_PARTS_SHIPMENTS_PATH", "/v1/parts-shipments/search"},
	"invoice":        {"PARTNER_INVOICES_PATH", "/v1/invoices/search"},
}

type Client struct {
	baseURL string
	http    *http.Client
	limiter <-chan time.Time
}

func NewClient() *Client {
	baseURL := strings.TrimSpace(os.Getenv("PARTNER_API_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.dealerpartner.io"
	}
	rateLimitPerMin := int64(30)
	if v := strings.TrimSpace(os.Getenv("PARTNER_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			rateLimitPerMin = n
		}
	}
	interval := time.Minute / time.Duration(rateLimitPerMin)

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: time.Tick(interval),
	}
}

// FetchDocuments POSTs a signed search request for one document type and
// returns the partner's response envelope. Transport and decode failures are
// returned as errors; a status-0 envelope is returned as-is for the caller to
// interpret.
func (c *Client) FetchDocuments(ctx context.Context, documentType string, creds Credentials, req FetchRequest) (Envelope, error) {
	path, err := searchPath(documentType)
	if err != nil {
		return Envelope{}, err
	}

	body, err := req.body()
	if err != nil {
		return Envelope{}, err
	}

	<-c.limiter
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return Envelope{}, err
	}
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Partner-Account", creds.AccountId)
	httpReq.Header.Set("X-Partner-Key", creds.ApiKey)
	httpReq.Header.Set("X-Partner-Timestamp", timestamp)
	httpReq.Header.Set("X-Partner-Signature", Sign(creds.ApiSecret, timestamp, body))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Envelope{}, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Envelope{}, fmt.Errorf("partner api error %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var envelope Envelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return Envelope{}, fmt.Errorf("partner api returned invalid json: %w", err)
	}
	return envelope, nil
}

// Sign computes the request signature the partner verifies: HMAC-SHA256 of
// timestamp + "." + body keyed by the dealer's API secret, hex encoded.
func Sign(secret string, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func searchPath(documentType string) (string, error) {
	entry, ok := searchPaths[documentType]
	if !ok {
		return "", fmt.Errorf("no partner endpoint for document type %q", documentType)
	}
	if p := strings.TrimSpace(os.Getenv(entry.envKey)); p != "" {
		return p, nil
	}
	return entry.path, nil
}
