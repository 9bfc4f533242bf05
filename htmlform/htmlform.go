// Package htmlform inspects the HTML pages and redirect URLs returned by the
// VK mobile login flow. It holds no state and performs no I/O.
package htmlform

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractFormAction returns the submit target of the first form in the page
// that declares a non-empty action attribute.
func ExtractFormAction(html string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	var action string
	doc.Find("form").EachWithBreak(func(_ int, form *goquery.Selection) bool {
		value, ok := form.Attr("action")
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			return true
		}
		action = value
		return false
	})

	return action, action != ""
}

// DecodeURLQuery decodes the query parameters of rawURL into a flat map.
// Parameters carried in the fragment are included as well, since the OAuth2
// implicit grant hands the token back as blank.html#access_token=...
// When a key repeats, the first value wins and the query takes precedence
// over the fragment. Unparseable input yields an empty map.
func DecodeURLQuery(rawURL string) map[string]string {
	result := make(map[string]string)

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return result
	}

	merge(result, parsed.RawQuery)
	merge(result, parsed.Fragment)

	return result
}

func merge(dst map[string]string, encoded string) {
	if encoded == "" {
		return
	}
	values, err := url.ParseQuery(encoded)
	if err != nil && len(values) == 0 {
		return
	}
	for key, vals := range values {
		if _, exists := dst[key]; exists || len(vals) == 0 {
			continue
		}
		dst[key] = vals[0]
	}
}
