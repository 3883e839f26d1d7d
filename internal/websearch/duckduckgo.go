// Package websearch queries the DuckDuckGo HTML endpoint for result snippets.
package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/phuslu/log"
	"golang.org/x/time/rate"
)

const duckDuckGoURL = "https://html.duckduckgo.com/html/"

// Result is one search hit.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Client searches the web through DuckDuckGo's JavaScript-free page.
type Client struct {
	BaseURL    string
	MaxResults int
	httpClient *http.Client
	limiter    *rate.Limiter
	converter  *md.Converter
}

// NewClient creates a search client limited to one request per second.
func NewClient(proxyURL string, maxResults int) *Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Client{
		BaseURL:    duckDuckGoURL,
		MaxResults: maxResults,
		httpClient: &http.Client{Timeout: 20 * time.Second, Transport: transport},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		converter:  md.NewConverter("duckduckgo.com", true, nil),
	}
}

// Search returns up to MaxResults hits for query.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("search rate limit: %w", err)
	}

	endpoint := c.BaseURL + "?" + url.Values{"q": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; FinAgent/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	var results []Result
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find(".result__a").First()
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if title == "" || href == "" {
			return true
		}
		results = append(results, Result{
			Title:   title,
			URL:     resolveRedirect(href),
			Snippet: c.snippet(s.Find(".result__snippet").First()),
		})
		return len(results) < c.MaxResults
	})

	log.Debug().Str("query", query).Int("results", len(results)).Msg("web search done")
	return results, nil
}

func (c *Client) snippet(s *goquery.Selection) string {
	html, err := s.Html()
	if err != nil || strings.TrimSpace(html) == "" {
		return strings.TrimSpace(s.Text())
	}
	converted, err := c.converter.ConvertString(html)
	if err != nil {
		return strings.TrimSpace(s.Text())
	}
	return strings.TrimSpace(converted)
}

// resolveRedirect unwraps DuckDuckGo's "/l/?uddg=" tracking links.
func resolveRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

// Format renders results as a markdown list with sources.
func Format(results []Result) string {
	if len(results) == 0 {
		return "No web results found."
	}
	var b strings.Builder
	for i, r := range results {
		b.WriteString(fmt.Sprintf("%d. [%s](%s)\n", i+1, r.Title, r.URL))
		if r.Snippet != "" {
			b.WriteString("   " + r.Snippet + "\n")
		}
	}
	return b.String()
}
