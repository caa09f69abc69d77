package ves

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/sig-0/ris/storage/types"
)

const (
	// DefaultBCVURL is the BCV home page, which carries the official rates
	DefaultBCVURL = "https://www.bcv.org.ve/"

	// dollarSectionID is the page section holding the USD rate
	dollarSectionID = "dolar"

	// ratePlaces is the precision the BCV publishes
	ratePlaces = 8
)

var errInvalidRate = errors.New("invalid rate")

// BCVScraper fetches the official USD/VES rate from the BCV website
type BCVScraper struct {
	client *http.Client
	url    string
}

// NewBCVScraper creates a new instance of the BCV website scraper
func NewBCVScraper(url string, timeout time.Duration) *BCVScraper {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: true, //nolint:gosec // the BCV serves an incomplete chain
	}

	return &BCVScraper{
		client: &http.Client{
			Timeout:   timeout,
			Transport: tr,
		},
		url: url,
	}
}

// FetchReference fetches the current official USD/VES rate
func (p *BCVScraper) FetchReference(ctx context.Context) (*types.ExchangeRate, error) {
	// Prepare the request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("unable to create new GET request: %w", err)
	}

	// Execute the request
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to execute GET request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("invalid status code received: %d", resp.StatusCode)
	}

	// Construct document for parsing
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to construct query doc: %w", err)
	}

	rate, err := sectionRate(doc, dollarSectionID)
	if err != nil {
		return nil, err
	}

	var (
		fetchTime     = time.Now().UTC()
		effectiveDate = fetchTime
	)

	// Fetch as-of date
	if parsed := parseEffectiveDate(doc); parsed != nil {
		effectiveDate = *parsed
	}

	return &types.ExchangeRate{
		AsOf:      effectiveDate,
		FetchedAt: fetchTime,
		Base:      types.CurrencyUSD,
		Target:    types.CurrencyVES,
		RateType:  types.RateTypeMID,
		Source:    types.SourceBCV,
		Rate:      rate,
	}, nil
}

// sectionRate extracts the rate from the given currency section
func sectionRate(doc *goquery.Document, sectionID string) (decimal.Decimal, error) {
	sel := doc.Find("#" + sectionID)

	if sel.Length() == 0 {
		return decimal.Zero, fmt.Errorf("missing element #%s", sectionID)
	}

	txt := sel.Find(".col-sm-6.col-xs-6.centrado").First().Text()
	if strings.TrimSpace(txt) == "" {
		txt = sel.Find(".centrado").First().Text()
	}

	v, err := parseBCVNumber(txt)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse rate value for %s: %w", sectionID, err)
	}

	return v.Round(ratePlaces), nil
}

// parseBCVNumber parses the rate number from the BCV website
func parseBCVNumber(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errInvalidRate
	}

	// BCV uses comma as decimal separator, and dots for thousands:
	// "1.234,56" -> "1234.56"
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse rate %q: %w", s, err)
	}

	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", errInvalidRate, d)
	}

	return d, nil
}

// parseEffectiveDate parses the "Fecha Valor" date on the BCV website
func parseEffectiveDate(doc *goquery.Document) *time.Time {
	// Best source: the machine-readable datetime
	sel := doc.Find(`span.date-display-single[property="dc:date"]`).First()
	if sel.Length() == 0 {
		sel = doc.Find("span.date-display-single").First()
	}

	if sel.Length() == 0 {
		return nil
	}

	if content, ok := sel.Attr("content"); ok && strings.TrimSpace(content) != "" {
		// Example: "2026-01-13T00:00:00-04:00"
		if t, err := time.Parse(time.RFC3339, strings.TrimSpace(content)); err == nil {
			u := t.UTC()

			return &u
		}
	}

	// Fallback: parse the rendered Spanish text
	txt := strings.TrimSpace(sel.Text())
	if txt == "" {
		return nil
	}

	t, err := parseBCVDate(txt)
	if err != nil {
		return nil
	}

	return &t
}

var spanishMonths = map[string]time.Month{
	"enero":      time.January,
	"febrero":    time.February,
	"marzo":      time.March,
	"abril":      time.April,
	"mayo":       time.May,
	"junio":      time.June,
	"julio":      time.July,
	"agosto":     time.August,
	"septiembre": time.September,
	"setiembre":  time.September,
	"octubre":    time.October,
	"noviembre":  time.November,
	"diciembre":  time.December,
}

// parseBCVDate parses a rendered date like "Martes, 13 Enero 2026".
// The day of week is optional
func parseBCVDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ","); i != -1 {
		s = strings.TrimSpace(s[i+1:])
	}

	parts := strings.Fields(s)
	if len(parts) < 3 {
		return time.Time{}, fmt.Errorf("date format is invalid %q", s)
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse effective date day: %w", err)
	}

	mo, ok := spanishMonths[strings.ToLower(parts[1])]
	if !ok {
		return time.Time{}, fmt.Errorf("month is invalid %q", parts[1])
	}

	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse effective date year: %w", err)
	}

	return time.Date(year, mo, day, 0, 0, 0, 0, time.UTC), nil
}
