package immowelt

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// fakeFetcher serves canned pages by URL. URLs without a page fail.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	html, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("%w: no page for %s", ErrFetchFailed, url)
	}
	return html, nil
}

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == url {
			n++
		}
	}
	return n
}

type card struct {
	href, price, description, details, address, picture string
}

func cardHTML(c card) string {
	var b strings.Builder
	b.WriteString(`<div data-testid="serp-core-classified-card-testid">`)
	if c.href != "" {
		fmt.Fprintf(&b, `<a data-testid="card-mfe-covering-link-testid" href="%s"></a>`, c.href)
	}
	if c.picture != "" {
		b.WriteString(c.picture)
	}
	if c.price != "" {
		fmt.Fprintf(&b, `<div data-testid="cardmfe-price-testid"> %s </div>`, c.price)
	}
	if c.description != "" {
		fmt.Fprintf(&b, `<div class="css-1cbj9xw">%s</div>`, c.description)
	}
	if c.details != "" {
		fmt.Fprintf(&b, `<div data-testid="cardmfe-keyfacts-testid">%s</div>`, c.details)
	}
	if c.address != "" {
		fmt.Fprintf(&b, `<div data-testid="cardmfe-description-box-address">%s</div>`, c.address)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func paginationHTML(total int) string {
	var b strings.Builder
	b.WriteString(`<nav aria-label="pagination navigation">`)
	b.WriteString(`<button aria-label="vorherige seite">&lt;</button>`)
	for i := 1; i <= total; i++ {
		fmt.Fprintf(&b, `<button aria-label="zu seite %d">%d</button>`, i, i)
	}
	b.WriteString(`<button aria-label="nächste seite">&gt;</button>`)
	b.WriteString(`</nav>`)
	return b.String()
}

func searchPage(totalPages int, cards ...card) string {
	var b strings.Builder
	b.WriteString(`<html><body><main>`)
	for _, c := range cards {
		b.WriteString(cardHTML(c))
	}
	b.WriteString(`</main>`)
	if totalPages > 0 {
		b.WriteString(paginationHTML(totalPages))
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func simpleCard(id string) card {
	return card{
		href:    "/expose/" + id + "?ref=serp",
		price:   "349.000 €",
		details: "4 Zimmer · 120 m²",
		address: "Heiligkreuz, Trier (54295)",
	}
}

const detailPage = `<html><body>
<section data-testid="aviv.CDP.Sections.Features">
  <div data-testid="aviv.CDP.Sections.Features.Feature"><span class="css-1az3ztj">Balkon</span></div>
  <div data-testid="aviv.CDP.Sections.Features.Feature"><span class="css-1az3ztj"> Garten </span></div>
  <div data-testid="aviv.CDP.Sections.Features.Feature"><span class="other">ignored</span></div>
</section>
<div data-testid="aviv.CDP.Location.Address">Musterstraße 1, 54295 Trier</div>
<button aria-label="Adresse auf Karte ansehen"><img src="https://maps.example/static/6.6412,49.7490,14/600x400.png"></button>
<picture>
  <source srcset="https://img.example/a.jpg?ci_seal=abc&amp;w=800&amp;h=600 800w, https://img.example/a-small.jpg 400w">
  <img src="https://img.example/a.jpg?ci_seal=abc&amp;w=400">
</picture>
<picture>
  <img src="https://img.example/b.jpg?h=300">
</picture>
</body></html>`
