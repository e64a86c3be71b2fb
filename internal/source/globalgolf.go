package source

import (
	"context"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/fairwaylabs/clubtrack/internal/fetcher"
	"github.com/fairwaylabs/clubtrack/internal/model"
)

const globalGolfName = "globalgolf"

const defaultGlobalGolfBaseURL = "https://www.globalgolf.com"

// globalGolfCategories maps category slugs to listing paths.
var globalGolfCategories = map[string]string{
	"drivers":       "/golf-clubs/drivers/",
	"fairway-woods": "/golf-clubs/fairway-woods/",
	"hybrids":       "/golf-clubs/hybrids/",
	"irons":         "/golf-clubs/irons/",
	"wedges":        "/golf-clubs/wedges/",
	"putters":       "/golf-clubs/putters/",
}

// GlobalGolf scrapes globalgolf.com listing and product detail pages.
type GlobalGolf struct {
	fetcher fetcher.Fetcher
	baseURL string
	log     *zap.Logger
}

// NewGlobalGolf creates the GlobalGolf adapter. An empty baseURL uses the
// production site; tests point it at a local server.
func NewGlobalGolf(f fetcher.Fetcher, baseURL string) *GlobalGolf {
	if baseURL == "" {
		baseURL = defaultGlobalGolfBaseURL
	}
	return &GlobalGolf{
		fetcher: f,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     zap.L().With(zap.String("source", globalGolfName)),
	}
}

func (g *GlobalGolf) Name() string {
	return globalGolfName
}

func (g *GlobalGolf) Categories() []string {
	return slices.Sorted(maps.Keys(globalGolfCategories))
}

func (g *GlobalGolf) ListCategory(ctx context.Context, q Query) ([]model.RawListing, error) {
	path, ok := globalGolfCategories[q.Category]
	if !ok {
		return nil, eris.Errorf("globalgolf: unknown category %q", q.Category)
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	params := url.Values{"page": {strconv.Itoa(page)}}
	if q.Brand != "" {
		params.Set("brand", q.Brand)
	}

	doc, err := g.fetcher.Fetch(ctx, g.baseURL+path, params)
	if err != nil {
		return nil, eris.Wrapf(err, "globalgolf: list %s page %d", q.Category, page)
	}

	items := findAll(doc.Root, byClass("div", "product-item"))
	listings := make([]model.RawListing, 0, len(items))
	for _, item := range items {
		listing, ok := g.extractItem(item, q.Category)
		if !ok {
			continue
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

// extractItem pulls one listing from a product card. Malformed cards are
// skipped with a warning rather than failing the whole page.
func (g *GlobalGolf) extractItem(item *html.Node, category string) (model.RawListing, bool) {
	title := CleanText(text(findFirst(item, byClass("h3", "product-name"))))
	if title == "" {
		g.log.Warn("skipping product card without title", zap.String("category", category))
		return model.RawListing{}, false
	}

	brand, modelName, ok := splitTitle(title)
	if !ok {
		g.log.Warn("skipping product card with unparseable title",
			zap.String("category", category),
			zap.String("title", title),
		)
		return model.RawListing{}, false
	}

	href := attr(findFirst(item, byClass("a", "product-link")), "href")
	if href == "" {
		g.log.Warn("skipping product card without link", zap.String("title", title))
		return model.RawListing{}, false
	}

	var price *float64
	if el := findFirst(item, byClass("span", "price")); el != nil {
		price = ParsePrice(text(el))
	}

	return model.RawListing{
		Source:    globalGolfName,
		BrandText: brand,
		ModelText: modelName,
		ClubType:  category,
		Price:     price,
		DetailURL: g.absoluteURL(href),
		InStock:   true, // listed means available
	}, true
}

func (g *GlobalGolf) FetchDetail(ctx context.Context, detailURL string) (*model.RawListing, error) {
	doc, err := g.fetcher.Fetch(ctx, detailURL, nil)
	if err != nil {
		if fetcher.IsNotFound(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "globalgolf: detail %s", detailURL)
	}

	title := CleanText(text(findFirst(doc.Root, byClass("h1", "product-title"))))
	if title == "" {
		return nil, eris.Errorf("globalgolf: no product title at %s", detailURL)
	}
	brand, modelName, ok := splitTitle(title)
	if !ok {
		return nil, eris.Errorf("globalgolf: unparseable product title %q at %s", title, detailURL)
	}

	listing := &model.RawListing{
		Source:    globalGolfName,
		BrandText: brand,
		ModelText: modelName,
		DetailURL: detailURL,
		InStock:   true,
	}

	if el := findFirst(doc.Root, byClass("span", "price")); el != nil {
		listing.Price = ParsePrice(text(el))
	}

	if el := findFirst(doc.Root, byClass("span", "availability")); el != nil {
		listing.InStock = !strings.Contains(strings.ToLower(text(el)), "out of stock")
	}

	specs := specTable(doc.Root)
	for k, v := range specs {
		if strings.Contains(k, "year") {
			if y := ParseYear(v); y != 0 {
				listing.Year = y
				break
			}
		}
	}
	if ct := specs["club type"]; ct != "" {
		listing.ClubType = ct
	}

	return listing, nil
}

// splitTitle splits a product title like "TaylorMade Stealth 2 Driver"
// into its leading brand token and the remaining model text.
func splitTitle(title string) (brand, modelName string, ok bool) {
	parts := strings.SplitN(title, " ", 2)
	if len(parts) < 2 {
		return "", "", false
	}
	brand = strings.TrimSpace(parts[0])
	modelName = strings.TrimSpace(parts[1])
	return brand, modelName, brand != "" && modelName != ""
}

// specTable reads the specifications table into a lowercase-keyed map.
func specTable(root *html.Node) map[string]string {
	specs := make(map[string]string)
	tbl := findFirst(root, byClass("table", "specifications"))
	if tbl == nil {
		return specs
	}
	for _, row := range findAll(tbl, byTag("tr")) {
		cells := findAll(row, byTag("th"))
		cells = append(cells, findAll(row, byTag("td"))...)
		if len(cells) < 2 {
			continue
		}
		key := strings.ToLower(CleanText(text(cells[0])))
		specs[key] = CleanText(text(cells[1]))
	}
	return specs
}

func (g *GlobalGolf) absoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return g.baseURL + href
}
