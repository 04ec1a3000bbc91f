package immowelt

import (
	"net/url"
	"strings"

	"immo-tracker/scraper/dom"
	"immo-tracker/utils"
)

// keptImageParam is the only query parameter image URLs keep; it signs the
// original-size rendition.
const keptImageParam = "ci_seal"

// CleanImageURL strips sizing parameters so the URL points at the original
// image. Only ci_seal survives in the query string.
func CleanImageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	kept := url.Values{}
	if v := q.Get(keptImageParam); v != "" {
		kept.Set(keptImageParam, v)
	}
	u.RawQuery = kept.Encode()
	return u.String()
}

// ExtractImages collects image URLs from every picture element: the first
// srcset candidate of each source, then the img src. URLs are cleaned and
// deduplicated in order of first appearance.
func ExtractImages(doc dom.Node) []string {
	var urls []string
	for _, pic := range doc.FindAll("picture") {
		for _, src := range pic.FindAll("source") {
			set, ok := src.Attr("srcset")
			if !ok {
				continue
			}
			if u := CleanImageURL(firstSrcsetURL(set)); u != "" {
				urls = append(urls, u)
			}
		}
		if img, ok := pic.Find("img"); ok {
			if src, ok := img.Attr("src"); ok {
				if u := CleanImageURL(src); u != "" {
					urls = append(urls, u)
				}
			}
		}
	}
	return utils.Dedupe(urls)
}

func firstSrcsetURL(srcset string) string {
	first := strings.TrimSpace(strings.SplitN(srcset, ",", 2)[0])
	if fields := strings.Fields(first); len(fields) > 0 {
		return fields[0]
	}
	return ""
}
