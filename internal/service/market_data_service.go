package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/domain"
)

// MarketDataService fetches quotes and historical closes from the Yahoo
// Finance chart API. It is fallible and latency-bearing; callers never hold
// an account lock across a call.
type MarketDataService struct {
	httpClient *http.Client
	baseURL    string
	group      singleflight.Group
}

// NewMarketDataService creates a new MarketDataService
func NewMarketDataService() *MarketDataService {
	return &MarketDataService{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: "https://query1.finance.yahoo.com",
	}
}

// chartResponse mirrors the subset of the chart payload we consume.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		RegularMarketPrice float64 `json:"regularMarketPrice"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// CurrentPrice returns the live price for a symbol. Concurrent callers for
// the same symbol (a monitor sweep plus a portfolio view, say) share one
// upstream request.
func (s *MarketDataService) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	v, err, _ := s.group.Do(symbol, func() (any, error) {
		result, err := s.fetchChart(ctx, symbol, url.Values{
			"range":    {"1d"},
			"interval": {"1m"},
		})
		if err != nil {
			return 0.0, err
		}
		if result.Meta.RegularMarketPrice <= 0 {
			return 0.0, fmt.Errorf("%w: no market price for %s", domain.ErrPriceUnavailable, symbol)
		}
		return result.Meta.RegularMarketPrice, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// HistoricalClose returns the last close at or before the given instant.
// It tries a 5-minute intraday window around the instant first, then a year
// of daily closes, matching how a chart-data provider backfills gaps.
func (s *MarketDataService) HistoricalClose(ctx context.Context, symbol string, at time.Time) (float64, error) {
	intraday := url.Values{
		"period1":  {strconv.FormatInt(at.Add(-12*time.Hour).Unix(), 10)},
		"period2":  {strconv.FormatInt(at.Add(5*time.Minute).Unix(), 10)},
		"interval": {"5m"},
	}
	if price, ok := s.lastCloseBefore(ctx, symbol, intraday, at); ok {
		return price, nil
	}

	daily := url.Values{
		"range":    {"1y"},
		"interval": {"1d"},
	}
	if price, ok := s.lastCloseBefore(ctx, symbol, daily, at); ok {
		return price, nil
	}

	return 0, fmt.Errorf("%w: no close for %s at %s", domain.ErrPriceUnavailable, symbol, at.Format(time.RFC3339))
}

// PriceHistory returns chart samples for a named period.
func (s *MarketDataService) PriceHistory(ctx context.Context, symbol, period string) ([]domain.PricePoint, error) {
	ranges := map[string][2]string{
		"1d": {"1d", "5m"},
		"7d": {"7d", "1h"},
		"1m": {"1mo", "1d"},
		"3m": {"3mo", "1d"},
		"6m": {"6mo", "1d"},
		"1y": {"1y", "1d"},
	}
	r, ok := ranges[period]
	if !ok {
		r = ranges["1y"]
	}

	result, err := s.fetchChart(ctx, symbol, url.Values{
		"range":    {r[0]},
		"interval": {r[1]},
	})
	if err != nil {
		return nil, err
	}

	points := make([]domain.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if close, ok := result.closeAt(i); ok {
			points = append(points, domain.PricePoint{
				Time:  time.Unix(ts, 0),
				Price: close,
			})
		}
	}
	return points, nil
}

func (s *MarketDataService) lastCloseBefore(ctx context.Context, symbol string, query url.Values, at time.Time) (float64, bool) {
	result, err := s.fetchChart(ctx, symbol, query)
	if err != nil {
		return 0, false
	}

	var price float64
	var found bool
	for i, ts := range result.Timestamp {
		if ts > at.Unix() {
			break
		}
		if close, ok := result.closeAt(i); ok {
			price = close
			found = true
		}
	}
	return price, found
}

func (r *chartResult) closeAt(i int) (float64, bool) {
	if len(r.Indicators.Quote) == 0 {
		return 0, false
	}
	closes := r.Indicators.Quote[0].Close
	if i >= len(closes) || closes[i] == nil {
		return 0, false
	}
	return *closes[i], true
}

func (s *MarketDataService) fetchChart(ctx context.Context, symbol string, query url.Values) (*chartResult, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", s.baseURL, url.PathEscape(symbol), query.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPriceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: chart API status=%d body=%s", domain.ErrPriceUnavailable, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chart response: %w", err)
	}

	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrPriceUnavailable, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: empty chart result for %s", domain.ErrPriceUnavailable, symbol)
	}

	return &parsed.Chart.Result[0], nil
}
