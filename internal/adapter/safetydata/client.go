// Package safetydata fetches civil disaster messages (재난문자) from the
// public safety data portal.
package safetydata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pes-safety/evac-notifier/internal/domain"
)

const (
	defaultPageNo    = "1"
	defaultNumOfRows = "50"
)

// Record is one disaster message row as served by the portal.
type Record struct {
	Serial    flexString `json:"MD101_SN"`
	Category  string     `json:"DSSTR_SE_NM"`
	AreaName  string     `json:"RCV_AREA_NM"`
	Message   string     `json:"MSG"`
	Emergency string     `json:"EMRG_STEP_NM"`
	CreatedAt string     `json:"CRT_DT"`
}

// flexString absorbs fields the portal serves as either a JSON number or
// a JSON string. The message serial has appeared as both.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// envelope tolerates both response shapes the portal has served: a flat
// array of rows and the nested DisasterMsg object.
type envelope struct {
	DisasterMsg struct {
		Row []Record `json:"row"`
	} `json:"DisasterMsg"`
}

// Client is an HTTP client for the disaster message endpoint.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewClient builds a Client. A zero timeout defaults to five seconds.
func NewClient(baseURL, serviceKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves the most recent disaster messages and maps them into
// alerts. Rows that cannot be mapped are skipped rather than failing the
// whole batch.
func (c *Client) Fetch(ctx context.Context) ([]domain.Alert, error) {
	records, err := c.fetchRecords(ctx)
	if err != nil {
		return nil, err
	}

	alerts := make([]domain.Alert, 0, len(records))
	for _, rec := range records {
		if strings.TrimSpace(rec.Message) == "" {
			continue
		}
		alerts = append(alerts, mapRecord(rec))
	}
	return alerts, nil
}

func (c *Client) fetchRecords(ctx context.Context) ([]Record, error) {
	q := url.Values{}
	q.Set("serviceKey", c.serviceKey)
	q.Set("pageNo", defaultPageNo)
	q.Set("numOfRows", defaultNumOfRows)
	q.Set("type", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build disaster message request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch disaster messages: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("disaster message endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read disaster message response: %w", err)
	}
	return parseResponse(body)
}

func parseResponse(body []byte) ([]Record, error) {
	var flat []Record
	if err := json.Unmarshal(body, &flat); err == nil {
		return flat, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode disaster message response: %w", err)
	}
	return env.DisasterMsg.Row, nil
}

func mapRecord(rec Record) domain.Alert {
	issuedAt := domain.ParseIssuedAt(rec.CreatedAt)
	return domain.Alert{
		ID:            domain.AlertID(string(rec.Serial), rec.CreatedAt),
		ExternalID:    string(rec.Serial),
		Category:      domain.ParseCategory(rec.Category),
		CategoryLabel: strings.TrimSpace(rec.Category),
		AreaName:      strings.TrimSpace(rec.AreaName),
		Message:       strings.TrimSpace(rec.Message),
		Severity:      strings.TrimSpace(rec.Emergency),
		IssuedAt:      issuedAt,
		CreatedAt:     issuedAt,
	}
}
