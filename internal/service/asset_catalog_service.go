package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/domain"
)

const sp500URL = "https://www.slickcharts.com/sp500"

// AssetCatalogService is the read-only directory of tradable instruments:
// the S&P 500 constituents plus a fixed commodities futures list. The stock
// list is scraped once at startup; a packaged fallback keeps the simulator
// usable when the fetch fails.
type AssetCatalogService struct {
	httpClient      *http.Client
	constituentsURL string

	mu     sync.RWMutex
	assets []domain.Asset
	byName map[string]string
}

// NewAssetCatalogService creates a catalog seeded with the fallback list.
func NewAssetCatalogService() *AssetCatalogService {
	c := &AssetCatalogService{
		httpClient:      &http.Client{Timeout: 15 * time.Second},
		constituentsURL: sp500URL,
	}
	c.install(append(fallbackStocks(), commodities()...))
	return c
}

// Refresh replaces the stock section of the catalog with the live S&P 500
// constituents list. The commodities section is static.
func (c *AssetCatalogService) Refresh(ctx context.Context) error {
	stocks, err := c.fetchSP500(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh S&P 500 list: %w", err)
	}

	c.install(append(stocks, commodities()...))
	log.Printf("[OK] Asset catalog refreshed: %d instruments", len(c.All()))
	return nil
}

// Exists reports whether the symbol is tradable
func (c *AssetCatalogService) Exists(symbol string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byName[symbol]
	return ok
}

// NameOf returns the display name, falling back to the symbol itself
func (c *AssetCatalogService) NameOf(symbol string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if name, ok := c.byName[symbol]; ok {
		return name
	}
	return symbol
}

// All returns every catalog entry
func (c *AssetCatalogService) All() []domain.Asset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Asset, len(c.assets))
	copy(out, c.assets)
	return out
}

// Search returns entries whose name or symbol contains the query,
// case-insensitively.
func (c *AssetCatalogService) Search(query string) []domain.Asset {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []domain.Asset
	for _, a := range c.assets {
		if strings.Contains(strings.ToLower(a.Name), q) || strings.Contains(strings.ToLower(a.Symbol), q) {
			out = append(out, a)
		}
	}
	return out
}

func (c *AssetCatalogService) install(assets []domain.Asset) {
	byName := make(map[string]string, len(assets))
	for _, a := range assets {
		byName[a.Symbol] = a.Name
	}

	c.mu.Lock()
	c.assets = assets
	c.byName = byName
	c.mu.Unlock()
}

// fetchSP500 scrapes the constituents table. Row layout: rank, name, symbol,
// weight, ... — name in the second cell, symbol in the third.
func (c *AssetCatalogService) fetchSP500(ctx context.Context) ([]domain.Asset, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.constituentsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse constituents page: %w", err)
	}

	stocks := parseConstituents(doc)
	if len(stocks) == 0 {
		return nil, fmt.Errorf("no constituent rows found")
	}
	return stocks, nil
}

// parseConstituents pulls (name, symbol) pairs out of the first table whose
// rows carry at least four cells.
func parseConstituents(doc *html.Node) []domain.Asset {
	var stocks []domain.Asset
	seen := make(map[string]bool)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			cells := childElements(n, "td")
			if len(cells) > 3 {
				name := nodeText(cells[1])
				symbol := nodeText(cells[2])
				if name != "" && symbol != "" && !seen[symbol] {
					seen[symbol] = true
					stocks = append(stocks, domain.Asset{Symbol: symbol, Name: name})
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	sort.Slice(stocks, func(i, j int) bool { return stocks[i].Symbol < stocks[j].Symbol })
	return stocks
}

func childElements(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.Data == tag {
			out = append(out, child)
		}
	}
	return out
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

// commodities is the static futures section of the catalog.
func commodities() []domain.Asset {
	return []domain.Asset{
		{Name: "Gold", Symbol: "GC=F"},
		{Name: "Silver", Symbol: "SI=F"},
		{Name: "Crude Oil", Symbol: "CL=F"},
		{Name: "Brent Crude", Symbol: "BZ=F"},
		{Name: "Natural Gas", Symbol: "NG=F"},
		{Name: "Gasoline", Symbol: "RB=F"},
		{Name: "Heating Oil", Symbol: "HO=F"},
		{Name: "Copper", Symbol: "HG=F"},
		{Name: "Platinum", Symbol: "PL=F"},
		{Name: "Palladium", Symbol: "PA=F"},
		{Name: "Corn", Symbol: "ZC=F"},
		{Name: "Soybeans", Symbol: "ZS=F"},
		{Name: "Wheat", Symbol: "ZW=F"},
		{Name: "Coffee", Symbol: "KC=F"},
		{Name: "Cocoa", Symbol: "CC=F"},
		{Name: "Sugar", Symbol: "SB=F"},
		{Name: "Cotton", Symbol: "CT=F"},
		{Name: "Live Cattle", Symbol: "LE=F"},
		{Name: "Lean Hogs", Symbol: "HE=F"},
		{Name: "Feeder Cattle", Symbol: "GF=F"},
		{Name: "Lumber", Symbol: "LB=F"},
	}
}

// fallbackStocks keeps the simulator usable when the constituents fetch
// fails. A reduced large-cap list, not the full index.
func fallbackStocks() []domain.Asset {
	return []domain.Asset{
		{Name: "Apple Inc.", Symbol: "AAPL"},
		{Name: "Microsoft Corporation", Symbol: "MSFT"},
		{Name: "NVIDIA Corporation", Symbol: "NVDA"},
		{Name: "Amazon.com Inc.", Symbol: "AMZN"},
		{Name: "Alphabet Inc. Class A", Symbol: "GOOGL"},
		{Name: "Meta Platforms Inc.", Symbol: "META"},
		{Name: "Berkshire Hathaway Inc. Class B", Symbol: "BRK.B"},
		{Name: "Tesla Inc.", Symbol: "TSLA"},
		{Name: "Broadcom Inc.", Symbol: "AVGO"},
		{Name: "JPMorgan Chase & Co.", Symbol: "JPM"},
		{Name: "Eli Lilly and Company", Symbol: "LLY"},
		{Name: "Visa Inc.", Symbol: "V"},
		{Name: "Exxon Mobil Corporation", Symbol: "XOM"},
		{Name: "UnitedHealth Group Incorporated", Symbol: "UNH"},
		{Name: "Mastercard Incorporated", Symbol: "MA"},
		{Name: "Procter & Gamble Company", Symbol: "PG"},
		{Name: "Johnson & Johnson", Symbol: "JNJ"},
		{Name: "Costco Wholesale Corporation", Symbol: "COST"},
		{Name: "Home Depot Inc.", Symbol: "HD"},
		{Name: "AbbVie Inc.", Symbol: "ABBV"},
		{Name: "Walmart Inc.", Symbol: "WMT"},
		{Name: "Netflix Inc.", Symbol: "NFLX"},
		{Name: "Bank of America Corporation", Symbol: "BAC"},
		{Name: "Oracle Corporation", Symbol: "ORCL"},
		{Name: "Chevron Corporation", Symbol: "CVX"},
		{Name: "Merck & Co. Inc.", Symbol: "MRK"},
		{Name: "Coca-Cola Company", Symbol: "KO"},
		{Name: "PepsiCo Inc.", Symbol: "PEP"},
		{Name: "Adobe Inc.", Symbol: "ADBE"},
		{Name: "McDonald's Corporation", Symbol: "MCD"},
	}
}
