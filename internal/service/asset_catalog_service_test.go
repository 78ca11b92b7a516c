package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/domain"
)

const constituentsPage = `<html><body>
<table class="table">
<thead><tr><th>#</th><th>Company</th><th>Symbol</th><th>Weight</th></tr></thead>
<tbody>
<tr><td>1</td><td><a href="/symbol/NVDA">NVIDIA Corporation</a></td><td><a href="/symbol/NVDA">NVDA</a></td><td>7.5%</td><td>...</td></tr>
<tr><td>2</td><td><a href="/symbol/MSFT">Microsoft Corporation</a></td><td><a href="/symbol/MSFT">MSFT</a></td><td>6.8%</td><td>...</td></tr>
<tr><td>3</td><td><a href="/symbol/AAPL">Apple Inc.</a></td><td><a href="/symbol/AAPL">AAPL</a></td><td>6.1%</td><td>...</td></tr>
<tr><td>3</td><td><a href="/symbol/AAPL">Apple Inc.</a></td><td><a href="/symbol/AAPL">AAPL</a></td><td>6.1%</td><td>...</td></tr>
<tr><td>short row</td></tr>
</tbody>
</table>
</body></html>`

func TestParseConstituents(t *testing.T) {
	t.Parallel()

	doc, err := html.Parse(strings.NewReader(constituentsPage))
	require.NoError(t, err)

	stocks := parseConstituents(doc)
	assert.Equal(t, []domain.Asset{
		{Symbol: "AAPL", Name: "Apple Inc."},
		{Symbol: "MSFT", Name: "Microsoft Corporation"},
		{Symbol: "NVDA", Name: "NVIDIA Corporation"},
	}, stocks)
}

func TestParseConstituentsEmptyPage(t *testing.T) {
	t.Parallel()

	doc, err := html.Parse(strings.NewReader("<html><body><p>maintenance</p></body></html>"))
	require.NoError(t, err)

	assert.Empty(t, parseConstituents(doc))
}

func TestCatalogSeededWithFallback(t *testing.T) {
	t.Parallel()

	catalog := NewAssetCatalogService()

	assert.True(t, catalog.Exists("AAPL"))
	assert.True(t, catalog.Exists("GC=F"))
	assert.False(t, catalog.Exists("ZZZZ"))

	assert.Equal(t, "Gold", catalog.NameOf("GC=F"))
	assert.Equal(t, "ZZZZ", catalog.NameOf("ZZZZ"))
}

func TestCatalogSearch(t *testing.T) {
	t.Parallel()

	catalog := NewAssetCatalogService()

	results := catalog.Search("gold")
	require.NotEmpty(t, results)
	assert.Equal(t, "GC=F", results[0].Symbol)

	bySymbol := catalog.Search("aapl")
	require.Len(t, bySymbol, 1)
	assert.Equal(t, "Apple Inc.", bySymbol[0].Name)

	assert.Nil(t, catalog.Search("   "))
	assert.Empty(t, catalog.Search("no such instrument"))
}

func TestRefreshReplacesStocksKeepsCommodities(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(constituentsPage))
	}))
	defer server.Close()

	catalog := NewAssetCatalogService()
	catalog.httpClient = server.Client()
	catalog.constituentsURL = server.URL

	require.NoError(t, catalog.Refresh(context.Background()))

	assert.True(t, catalog.Exists("NVDA"))
	assert.True(t, catalog.Exists("GC=F"))
	// The fallback-only names are gone once the live list is installed.
	assert.False(t, catalog.Exists("KO"))
}

func TestRefreshFailureKeepsCatalog(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	catalog := NewAssetCatalogService()
	catalog.httpClient = server.Client()
	catalog.constituentsURL = server.URL

	assert.Error(t, catalog.Refresh(context.Background()))
	assert.True(t, catalog.Exists("AAPL"))
}
