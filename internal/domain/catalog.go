package domain

// Asset is one tradable instrument from the catalog.
type Asset struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// AssetCatalog is a read-only directory of tradable symbols. How the list is
// obtained (scraped, static, configured) is not a core concern.
type AssetCatalog interface {
	Exists(symbol string) bool
	// NameOf returns the display name, falling back to the symbol itself.
	NameOf(symbol string) string
	All() []Asset
	Search(query string) []Asset
}
