package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
	"github.com/kirillkom/grounded-qa/internal/infrastructure/resilience"
	"golang.org/x/net/html"
)

const (
	DefaultWikipediaAPI       = "https://en.wikipedia.org/w/api.php"
	DefaultWikipediaSentences = 8
)

type WikipediaOptions struct {
	APIURL    string
	Pages     []string
	Sentences int
	UserAgent string
	Executor  *resilience.Executor
}

// WikipediaLoader fetches the lead-section summary of each page through the
// MediaWiki extracts API. Every page becomes a Document with topic
// domain.TopicWikipedia.
type WikipediaLoader struct {
	apiURL     string
	pages      []string
	sentences  int
	userAgent  string
	httpClient *http.Client
	executor   *resilience.Executor
}

func NewWikipediaLoader(opts WikipediaOptions) *WikipediaLoader {
	apiURL := strings.TrimSpace(opts.APIURL)
	if apiURL == "" {
		apiURL = DefaultWikipediaAPI
	}
	sentences := opts.Sentences
	if sentences <= 0 {
		sentences = DefaultWikipediaSentences
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "grounded-qa/1.0"
	}
	return &WikipediaLoader{
		apiURL:     apiURL,
		pages:      opts.Pages,
		sentences:  sentences,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		executor:   opts.Executor,
	}
}

func (l *WikipediaLoader) LoadDocuments(ctx context.Context) ([]domain.Document, error) {
	docs := make([]domain.Document, 0, len(l.pages))
	for _, page := range l.pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		text, err := resilience.ExecuteValue(ctx, l.executor, "wikipedia.summary", func(callCtx context.Context) (string, error) {
			return l.summary(callCtx, page)
		}, classifyWikipediaError)
		if err != nil {
			err = resilience.WrapTemporary("wikipedia summary "+page, err, classifyWikipediaError)
			if domain.IsKind(err, domain.ErrTemporary) {
				return nil, err
			}
			return nil, fmt.Errorf("wikipedia summary %s: %w", page, err)
		}
		docs = append(docs, domain.Document{Text: text, Topic: domain.TopicWikipedia})
	}
	return docs, nil
}

type statusError struct {
	StatusCode int
	Status     string
}

func (e *statusError) Error() string {
	return "wikipedia status: " + e.Status
}

var errPageMissing = errors.New("page not found")

func (l *WikipediaLoader) summary(ctx context.Context, page string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("prop", "extracts")
	params.Set("exintro", "1")
	params.Set("exsentences", strconv.Itoa(l.sentences))
	params.Set("redirects", "1")
	params.Set("titles", page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", l.userAgent)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))
		return "", &statusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var body struct {
		Query struct {
			Pages map[string]struct {
				Title   string  `json:"title"`
				Extract string  `json:"extract"`
				Missing *string `json:"missing"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	for _, p := range body.Query.Pages {
		if p.Missing != nil {
			continue
		}
		text, err := HTMLToText(p.Extract)
		if err != nil {
			return "", err
		}
		if text != "" {
			return text, nil
		}
	}
	return "", errPageMissing
}

// HTMLToText returns the visible text of an HTML fragment with whitespace
// collapsed to single spaces.
func HTMLToText(fragment string) (string, error) {
	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if n.Type == html.ElementNode && isBlock(n.Data) {
			parts = append(parts, " ")
		}
	}
	walk(root)
	return strings.Join(strings.Fields(strings.Join(parts, "")), " "), nil
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "li", "ul", "ol", "br", "h1", "h2", "h3", "h4", "h5", "h6", "table", "tr":
		return true
	default:
		return false
	}
}

func classifyWikipediaError(err error) resilience.ErrorClassification {
	if class, ok := resilience.ClassifyCommon(err); ok {
		return class
	}
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		return resilience.ClassifyHTTPStatus(statusErr.StatusCode)
	}
	if errors.Is(err, errPageMissing) {
		return resilience.ErrorClassification{}
	}
	return resilience.ErrorClassification{RecordFailure: true}
}
