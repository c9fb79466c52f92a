// Package feed implements inventory feeds that seed a run's ledger.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bagplan/pkg/domain/entities"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned when no feed URL is set
var ErrNotConfigured = errors.New("inventory feed not configured")

const (
	MinTimeout     = 10 * time.Second
	MaxTimeout     = 30 * time.Second
	DefaultTimeout = 15 * time.Second

	defaultPageSize = 100
	maxPages        = 1000
)

// ClampTimeout bounds a feed timeout to [MinTimeout, MaxTimeout]; zero
// selects DefaultTimeout.
func ClampTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultTimeout
	case d < MinTimeout:
		return MinTimeout
	case d > MaxTimeout:
		return MaxTimeout
	default:
		return d
	}
}

// HTTPOptions configures an HTTPFeed
type HTTPOptions struct {
	URL           string
	Token         string
	Timeout       time.Duration
	CodeField     string
	QuantityField string
	PageSize      int
	Client        *http.Client
	Logger        *zap.Logger
}

// HTTPFeed reads stock from a tabular records API. Each page is
// {"records":[{"fields":{...}}],"offset":"..."}; an empty offset ends paging.
type HTTPFeed struct {
	url           string
	token         string
	timeout       time.Duration
	codeField     string
	quantityField string
	pageSize      int
	client        *http.Client
	logger        *zap.Logger
}

// NewHTTPFeed creates a feed. The timeout bounds the whole fetch, all pages
// included.
func NewHTTPFeed(opts HTTPOptions) *HTTPFeed {
	if opts.CodeField == "" {
		opts.CodeField = "Material Code"
	}
	if opts.QuantityField == "" {
		opts.QuantityField = "Quantity"
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &HTTPFeed{
		url:           strings.TrimSpace(opts.URL),
		token:         opts.Token,
		timeout:       ClampTimeout(opts.Timeout),
		codeField:     opts.CodeField,
		quantityField: opts.QuantityField,
		pageSize:      opts.PageSize,
		client:        opts.Client,
		logger:        opts.Logger,
	}
}

// Timeout returns the effective fetch timeout
func (f *HTTPFeed) Timeout() time.Duration {
	return f.timeout
}

type recordPage struct {
	Records []struct {
		ID     string                 `json:"id"`
		Fields map[string]interface{} `json:"fields"`
	} `json:"records"`
	Offset string `json:"offset"`
}

// FetchStock pulls every page and sums quantities per material code.
// Records without a code or with an unreadable quantity are skipped. A
// negative quantity fails the whole snapshot, as it does for inventory files.
func (f *HTTPFeed) FetchStock(ctx context.Context) (entities.StockSnapshot, error) {
	if f.url == "" {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	snapshot := make(entities.StockSnapshot)
	offset := ""
	skipped := 0
	for page := 0; page < maxPages; page++ {
		p, err := f.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		for _, rec := range p.Records {
			code, qty, ok := f.parseRecord(rec.Fields)
			if !ok {
				skipped++
				continue
			}
			if qty.IsNegative() {
				return nil, fmt.Errorf("inventory record %s (%s): quantity cannot be negative, got %s", rec.ID, code, qty)
			}
			snapshot[code] = snapshot[code].Add(qty)
		}
		if p.Offset == "" {
			if skipped > 0 {
				f.logger.Warn("skipped unreadable inventory records", zap.Int("skipped", skipped))
			}
			f.logger.Info("inventory snapshot fetched",
				zap.Int("materials", len(snapshot)),
				zap.Int("pages", page+1))
			return snapshot, nil
		}
		offset = p.Offset
	}
	return nil, fmt.Errorf("inventory feed returned more than %d pages", maxPages)
}

func (f *HTTPFeed) fetchPage(ctx context.Context, offset string) (*recordPage, error) {
	u, err := url.Parse(f.url)
	if err != nil {
		return nil, fmt.Errorf("invalid inventory feed url: %w", err)
	}
	q := u.Query()
	q.Set("pageSize", strconv.Itoa(f.pageSize))
	if offset != "" {
		q.Set("offset", offset)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create inventory request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inventory feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inventory feed returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page recordPage
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode inventory page: %w", err)
	}
	return &page, nil
}

func (f *HTTPFeed) parseRecord(fields map[string]interface{}) (entities.MaterialCode, decimal.Decimal, bool) {
	code := strings.TrimSpace(fieldString(fields[f.codeField]))
	if code == "" {
		return "", decimal.Zero, false
	}
	raw := strings.TrimSpace(fieldString(fields[f.quantityField]))
	if raw == "" {
		return "", decimal.Zero, false
	}
	qty, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return "", decimal.Zero, false
	}
	return entities.MaterialCode(code), qty, true
}

// fieldString renders a decoded JSON field. Lookup fields arrive as
// single-element arrays.
func fieldString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case []interface{}:
		if len(t) == 0 {
			return ""
		}
		return fieldString(t[0])
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
