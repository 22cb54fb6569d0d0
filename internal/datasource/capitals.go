package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Mark-Phillipson/Risk/internal/metrics"
	"github.com/Mark-Phillipson/Risk/internal/model"
)

// capitalChunkSize is the number of codes sent per lookup request.
const capitalChunkSize = 50

// CapitalClient looks up country capitals by alpha code from a REST
// Countries compatible API. Lookup failures are logged and swallowed;
// capitals are optional.
type CapitalClient struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewCapitalClient creates a client for baseURL. A nil client gets a 5s
// timeout.
func NewCapitalClient(baseURL string, client *http.Client) *CapitalClient {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &CapitalClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		log:     log.Logger.With().Str("component", "capitals").Logger(),
	}
}

type countryDoc struct {
	CCA3    string   `json:"cca3"`
	Capital []string `json:"capital"`
}

func (c *CapitalClient) fetch(ctx context.Context, codes []string) ([]countryDoc, error) {
	q := url.Values{}
	q.Set("codes", strings.Join(codes, ";"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v3.1/alpha?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	t0 := time.Now()
	resp, err := c.client.Do(req)
	metrics.CapitalDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	if err != nil {
		metrics.CapitalLookupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("lookup capitals: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		metrics.CapitalLookupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("lookup capitals: status %d", resp.StatusCode)
	}

	var docs []countryDoc
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		metrics.CapitalLookupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode capitals: %w", err)
	}
	metrics.CapitalLookupsTotal.WithLabelValues("ok").Inc()
	return docs, nil
}

// Capitals returns capitals keyed by upper-cased alpha-3 code. Codes are
// deduplicated and requested in chunks; a failed chunk is skipped.
func (c *CapitalClient) Capitals(ctx context.Context, codes []string) map[string]string {
	seen := make(map[string]bool, len(codes))
	var uniq []string
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" || seen[strings.ToUpper(code)] {
			continue
		}
		seen[strings.ToUpper(code)] = true
		uniq = append(uniq, code)
	}

	out := make(map[string]string)
	for i := 0; i < len(uniq); i += capitalChunkSize {
		end := min(i+capitalChunkSize, len(uniq))
		docs, err := c.fetch(ctx, uniq[i:end])
		if err != nil {
			c.log.Warn().Err(err).Int("codes", end-i).Msg("Capital lookup failed")
			continue
		}
		for _, d := range docs {
			if d.CCA3 == "" || len(d.Capital) == 0 || d.Capital[0] == "" {
				continue
			}
			out[strings.ToUpper(d.CCA3)] = d.Capital[0]
		}
	}
	return out
}

// Capital looks up one code. It returns "" when nothing is found.
func (c *CapitalClient) Capital(ctx context.Context, code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	docs, err := c.fetch(ctx, []string{code})
	if err != nil {
		c.log.Debug().Err(err).Str("code", code).Msg("Capital lookup failed")
		return ""
	}
	if len(docs) == 0 || len(docs[0].Capital) == 0 {
		return ""
	}
	return docs[0].Capital[0]
}

// Enrich fills in missing capitals in place and reports how many were set.
func (c *CapitalClient) Enrich(ctx context.Context, regions []model.Region) int {
	codes := make([]string, 0, len(regions))
	for _, r := range regions {
		if r.Capital == "" {
			codes = append(codes, r.Code)
		}
	}
	if len(codes) == 0 {
		return 0
	}
	caps := c.Capitals(ctx, codes)
	n := 0
	for i := range regions {
		if regions[i].Capital != "" {
			continue
		}
		if capital, ok := caps[strings.ToUpper(regions[i].Code)]; ok {
			regions[i].Capital = capital
			n++
		}
	}
	c.log.Debug().Int("enriched", n).Int("requested", len(codes)).Msg("Capitals enriched")
	return n
}
