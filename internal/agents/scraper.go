package agents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/xiaot623/gogo/director/internal/adapter/llm"
	"github.com/xiaot623/gogo/director/internal/textutil"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	maxPageBytes     = 5 << 20
	maxContentChars  = 50000
)

// ScraperAgent fetches a page and extracts its readable text.
type ScraperAgent struct {
	client    *http.Client
	sanitizer *bluemonday.Policy
	cleaner   llm.Generator
	healthURL string
	userAgent string
}

// ScraperOption configures a ScraperAgent.
type ScraperOption func(*ScraperAgent)

// WithHTTPClient overrides the HTTP client used for fetching.
func WithHTTPClient(c *http.Client) ScraperOption {
	return func(s *ScraperAgent) { s.client = c }
}

// WithCleaner post-processes extracted text with a generative backend.
func WithCleaner(g llm.Generator) ScraperOption {
	return func(s *ScraperAgent) { s.cleaner = g }
}

// WithHealthURL sets the page fetched by HealthCheck.
func WithHealthURL(u string) ScraperOption {
	return func(s *ScraperAgent) { s.healthURL = u }
}

// NewScraperAgent creates a scraper.
func NewScraperAgent(opts ...ScraperOption) *ScraperAgent {
	s := &ScraperAgent{
		client:    &http.Client{Timeout: 30 * time.Second},
		sanitizer: bluemonday.StrictPolicy(),
		healthURL: "https://httpbin.org/html",
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Invoke fetches the URL in instruction.
func (s *ScraperAgent) Invoke(ctx context.Context, instruction, correlationID string) (*Output, error) {
	target := strings.TrimSpace(instruction)
	parsed, err := url.Parse(target)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("instruction is not a fetchable URL: %q", truncateText(target, 120))
	}

	body, status, err := s.fetch(ctx, target)
	if err != nil {
		return nil, err
	}

	title, excerpt, content := s.extract(body, parsed)
	report := formatReport(title, excerpt, content)

	meta := map[string]any{
		"url":           target,
		"title":         title,
		"statusCode":    status,
		"contentLength": len(body),
		"cleaned":       false,
	}

	if s.cleaner != nil {
		cleaned, err := s.cleaner.Generate(ctx, cleanupPrompt(target, report))
		if err == nil && strings.TrimSpace(cleaned) != "" {
			meta["cleaned"] = true
			return &Output{Text: strings.TrimSpace(cleaned), Metadata: meta}, nil
		}
	}
	return &Output{Text: report, Metadata: meta}, nil
}

// HealthCheck fetches the probe page.
func (s *ScraperAgent) HealthCheck(ctx context.Context) error {
	_, _, err := s.fetch(ctx, s.healthURL)
	return err
}

func (s *ScraperAgent) fetch(ctx context.Context, target string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("failed to fetch URL: status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// extract prefers readability and falls back to a plain walk of the text nodes.
func (s *ScraperAgent) extract(body []byte, pageURL *url.URL) (title, excerpt, content string) {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return article.Title, article.Excerpt, s.sanitizer.Sanitize(article.TextContent)
	}
	text, docTitle := htmlToText(body)
	return docTitle, "", s.sanitizer.Sanitize(text)
}

func formatReport(title, excerpt, content string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "TITLE: %s\n", title)
	if excerpt != "" {
		fmt.Fprintf(&b, "EXCERPT: %s\n", excerpt)
	}
	b.WriteString("\n-- CONTENT --\n")
	content = textutil.Truncate(content, maxContentChars, "\n... (content truncated) ...")
	b.WriteString(content)
	return b.String()
}

func cleanupPrompt(pageURL, report string) string {
	return `You are an expert content analyst. Turn the extracted webpage text below into a clean, readable summary.

URL: ` + pageURL + `

EXTRACTED TEXT:
` + report + `

Instructions:
1. Keep only the main informational content; drop navigation, ads and boilerplate.
2. Preserve headings, names, dates, numbers and other specific details.
3. Do not add information that is not present in the text.

Provide the cleaned summary:`
}

// htmlToText returns the visible text of an HTML document and its <title>.
func htmlToText(body []byte) (string, string) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return string(body), ""
	}
	var b strings.Builder
	var title string
	var walk func(n *html.Node, hidden bool)
	walk = func(n *html.Node, hidden bool) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "script", "style", "noscript", "head":
				if n.Data == "head" {
					title = findTitle(n)
				}
				hidden = true
			case "br", "p", "div", "li", "tr", "h1", "h2", "h3":
				b.WriteString("\n")
			}
		}
		if !hidden && n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, hidden)
		}
	}
	walk(doc, false)
	return compactWhitespace(b.String()), title
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
		return strings.TrimSpace(n.FirstChild.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func compactWhitespace(s string) string {
	lines := strings.Split(strings.NewReplacer("\t", " ", "\r", " ").Replace(s), "\n")
	out := lines[:0]
	for _, ln := range lines {
		if ln = strings.Join(strings.Fields(ln), " "); ln != "" {
			out = append(out, ln)
		}
	}
	return strings.Join(out, "\n")
}

func truncateText(s string, n int) string {
	return textutil.Truncate(s, n, "...")
}
