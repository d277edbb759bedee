// Package scraper reads display metadata straight from a page's HTML when the extractors report none.
package scraper

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"fetcharr/internal/domain/consts"
	"fetcharr/internal/parsing"
	"fetcharr/internal/utils/logging"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"
	"golang.org/x/net/publicsuffix"
)

// Page selectors, tried in order.
var (
	titleSelectors = []string{
		`meta[property="og:title"]`,
		`meta[name="twitter:title"]`,
	}
	descSelectors = []string{
		`meta[property="og:description"]`,
		`meta[name="description"]`,
		`meta[name="twitter:description"]`,
	}
	imageSelectors = []string{
		`meta[property="og:image"]`,
		`meta[property="og:image:url"]`,
		`meta[name="twitter:image"]`,
		`meta[name="twitter:image:src"]`,
		`link[rel="image_src"]`,
	}
	dateSelectors = []string{
		`meta[property="article:published_time"]`,
		`meta[property="og:video:release_date"]`,
		`meta[itemprop="uploadDate"]`,
		`meta[itemprop="datePublished"]`,
	}
)

// Page holds what could be scraped from a page.
type Page struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Date        string `json:"date,omitempty"`
}

// Scrape visits rawURL and pulls Open Graph and Twitter card metadata.
//
// The request timeout follows the context deadline.
func Scrape(ctx context.Context, rawURL, proxyURL string, cookies []*http.Cookie) (*Page, error) {
	collector, err := initializeCollector(ctx, rawURL, proxyURL, cookies)
	if err != nil {
		return nil, err
	}

	page := &Page{}
	collector.OnHTML("html", func(container *colly.HTMLElement) {
		doc := container.DOM

		page.Title = extractTitle(doc)
		page.Description = extractDescription(doc)
		page.Thumbnail = extractImage(doc, container.Request.AbsoluteURL)
		page.Date = extractDate(doc)
	})

	logging.D(1, "Scraping %q for page metadata...", rawURL)
	if err := collector.Visit(rawURL); err != nil {
		return nil, fmt.Errorf("failed to visit URL %q: %w", rawURL, err)
	}
	collector.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return page, nil
}

// Thumbnail returns the page's preview image, or "" when it has none or cannot be fetched.
func Thumbnail(ctx context.Context, rawURL, proxyURL string, cookies []*http.Cookie) string {
	page, err := Scrape(ctx, rawURL, proxyURL, cookies)
	if err != nil {
		logging.D(1, "Thumbnail scrape failed for %q: %v", rawURL, err)
		return ""
	}
	return page.Thumbnail
}

// initializeCollector initializes Colly with any cookies and the proxy.
func initializeCollector(ctx context.Context, urlStr, proxyURL string, cookies []*http.Cookie) (*colly.Collector, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL %q", urlStr)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if len(cookies) > 0 {
		jar.SetCookies(parsedURL, cookies)
	}

	collector := colly.NewCollector(
		colly.UserAgent(consts.ProgramName + "/" + consts.ProgramVersion),
	)

	timeout := consts.HTTPClientTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = max(time.Until(deadline), time.Millisecond)
	}
	collector.SetRequestTimeout(timeout)
	collector.SetCookieJar(jar)

	if proxyURL != "" {
		if err := collector.SetProxy(proxyURL); err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", proxyURL, err)
		}
	}
	return collector, nil
}

// firstContent returns the first non-empty content (or href) attribute among selectors.
func firstContent(doc *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		node := doc.Find(sel).First()
		v, ok := node.Attr("content")
		if !ok {
			v, _ = node.Attr("href")
		}
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// extractTitle grabs the title from the webpage.
func extractTitle(doc *goquery.Selection) string {
	title := firstContent(doc, titleSelectors)
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title != "" {
		logging.D(2, "Scraped title: %s", title)
	} else {
		logging.D(1, "Title not found")
	}
	return html.UnescapeString(title)
}

// extractDescription grabs the description from the webpage.
func extractDescription(doc *goquery.Selection) string {
	description := html.UnescapeString(firstContent(doc, descSelectors))
	if description == "" {
		logging.D(1, "Description not found")
	}
	return description
}

// extractImage grabs the preview image and makes it absolute.
func extractImage(doc *goquery.Selection, absolute func(string) string) string {
	img := firstContent(doc, imageSelectors)
	if img == "" {
		logging.D(1, "Thumbnail not found")
		return ""
	}
	if abs := absolute(img); abs != "" {
		img = abs
	}
	logging.D(2, "Scraped thumbnail: %s", img)
	return img
}

// extractDate pulls the release date from page metadata.
func extractDate(doc *goquery.Selection) string {
	date := firstContent(doc, dateSelectors)
	if date == "" {
		logging.D(1, "Release date not found")
		return ""
	}
	parsed, err := parsing.NormalizeDate(date)
	if err != nil {
		logging.D(1, "Unparseable release date %q: %v", date, err)
		return ""
	}
	return parsed
}
