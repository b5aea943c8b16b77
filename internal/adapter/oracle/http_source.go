// Package oracle provides rate sources the ledger's oracle gateway reads.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"

	"schnl-ledger/internal/core/domain"
	"schnl-ledger/internal/core/ports"
)

// HTTPSource reads a price feed over HTTP. The feed serves
// GET {base}/latest and GET {base}/decimals.
type HTTPSource struct {
	base   string
	client *http.Client
}

var _ ports.RateSource = (*HTTPSource)(nil)

// NewHTTPSource creates a source rooted at base.
func NewHTTPSource(base string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{base: strings.TrimRight(base, "/"), client: client}
}

type roundResponse struct {
	RoundID         string `json:"round_id"`
	Answer          string `json:"answer"`
	StartedAt       int64  `json:"started_at"`
	UpdatedAt       int64  `json:"updated_at"`
	AnsweredInRound string `json:"answered_in_round"`
}

type decimalsResponse struct {
	Decimals uint8 `json:"decimals"`
}

// LatestRoundData returns the feed's latest round. Values are passed through
// unvalidated; the gateway owns validation.
func (s *HTTPSource) LatestRoundData(ctx context.Context) (domain.RoundData, error) {
	var out roundResponse
	if err := s.get(ctx, "/latest", &out); err != nil {
		return domain.RoundData{}, err
	}

	roundID, err := parseInt("round_id", out.RoundID)
	if err != nil {
		return domain.RoundData{}, err
	}
	answer, err := parseInt("answer", out.Answer)
	if err != nil {
		return domain.RoundData{}, err
	}
	answeredIn := roundID
	if out.AnsweredInRound != "" {
		if answeredIn, err = parseInt("answered_in_round", out.AnsweredInRound); err != nil {
			return domain.RoundData{}, err
		}
	}

	return domain.RoundData{
		RoundID:         roundID,
		Answer:          answer,
		StartedAt:       out.StartedAt,
		UpdatedAt:       out.UpdatedAt,
		AnsweredInRound: answeredIn,
	}, nil
}

// Decimals returns the feed's fixed-point precision.
func (s *HTTPSource) Decimals(ctx context.Context) (uint8, error) {
	var out decimalsResponse
	if err := s.get(ctx, "/decimals", &out); err != nil {
		return 0, err
	}
	return out.Decimals, nil
}

func (s *HTTPSource) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+path, nil)
	if err != nil {
		return fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("feed %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("feed %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode feed %s: %w", path, err)
	}
	return nil
}

// parseInt parses a signed decimal integer. Feeds send big values as
// strings to avoid float rounding.
func parseInt(field, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("feed field %s: invalid integer %q", field, s)
	}
	return v, nil
}
