package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/matsen/refdeck/internal/reference"
	"github.com/matsen/refdeck/internal/similarity"
)

const (
	// CrossrefWorksURL is the Crossref REST works endpoint.
	CrossrefWorksURL = "https://api.crossref.org/works"

	// SemanticScholarSearchURL is the S2 Graph paper search endpoint.
	SemanticScholarSearchURL = "https://api.semanticscholar.org/graph/v1/paper/search"

	// DBLPSearchURL is the DBLP publication search endpoint.
	DBLPSearchURL = "https://dblp.org/search/publ/api"

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 10 * time.Second

	// RateLimit keeps probes inside the polite-pool limits of all three
	// sources.
	RateLimit = 2.0

	// MatchThreshold is the minimum title similarity for a search hit to
	// count as discoverable.
	MatchThreshold = 0.7

	// SearchRows is how many candidates to score per source.
	SearchRows = 3
)

// Client probes indexed bibliographic sources with rate limiting. It is
// an auxiliary collaborator: the dedup engine never consults it.
type Client struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	mailto      string
	s2APIKey    string
	crossrefURL string
	s2URL       string
	dblpURL     string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithMailto sets the Crossref polite-pool contact address.
func WithMailto(mailto string) ClientOption {
	return func(c *Client) { c.mailto = mailto }
}

// WithS2APIKey sets the Semantic Scholar API key.
func WithS2APIKey(key string) ClientOption {
	return func(c *Client) { c.s2APIKey = key }
}

// WithBaseURLs overrides the source endpoints (for testing).
func WithBaseURLs(crossref, s2, dblp string) ClientOption {
	return func(c *Client) {
		c.crossrefURL = crossref
		c.s2URL = s2
		c.dblpURL = dblp
	}
}

// NewClient creates a discovery client. The S2 API key is picked up from
// the S2_API_KEY environment variable unless overridden.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		limiter:     rate.NewLimiter(rate.Limit(RateLimit), 1),
		crossrefURL: CrossrefWorksURL,
		s2URL:       SemanticScholarSearchURL,
		dblpURL:     DBLPSearchURL,
	}

	if key := os.Getenv("S2_API_KEY"); key != "" {
		c.s2APIKey = key
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// probe is one per-source availability check. It returns confidence and
// URL on a hit, ok=false on a clean miss.
type probe func(ctx context.Context, ref reference.Reference) (confidence float64, link string, ok bool, err error)

// Check probes all indexed sources for one reference. Failures of
// individual sources are absorbed; only all sources failing yields an
// error status. Callers own cancellation via ctx.
func (c *Client) Check(ctx context.Context, ref reference.Reference) Result {
	if ref.Title == "" {
		return Result{
			Status: StatusSkipped,
			Reason: "missing title; cannot run discovery search",
		}
	}

	checks := []struct {
		source Source
		fn     probe
	}{
		{SourceCrossref, c.checkCrossref},
		{SourceSemanticScholar, c.checkSemanticScholar},
		{SourceDBLP, c.checkDBLP},
	}

	var result Result
	failed := 0
	for _, check := range checks {
		confidence, link, ok, err := check.fn(ctx, ref)
		if err != nil {
			failed++
			continue
		}
		if !ok {
			continue
		}
		result.AvailableOn = append(result.AvailableOn, check.source)
		if confidence > result.BestConfidence {
			result.BestConfidence = confidence
			result.BestURL = link
		}
	}

	switch {
	case len(result.AvailableOn) > 0:
		result.Status = StatusAvailable
	case failed == len(checks):
		result.Status = StatusError
		result.Reason = "all indexed sources failed; retry later"
	default:
		result.Status = StatusUnavailable
		result.Reason = "not found in indexed sources"
	}
	return result
}

// getJSON performs one rate-limited GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, rawURL string, header http.Header, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: HTTP %d", ErrBadStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// checkCrossref resolves a DOI directly when present, else scores
// bibliographic search hits by title similarity.
func (c *Client) checkCrossref(ctx context.Context, ref reference.Reference) (float64, string, bool, error) {
	if ref.DOI != "" {
		var body struct {
			Message struct {
				URL string `json:"URL"`
			} `json:"message"`
		}
		err := c.getJSON(ctx, c.crossrefURL+"/"+url.PathEscape(ref.DOI), nil, &body)
		if err != nil {
			return 0, "", false, err
		}
		link := body.Message.URL
		if link == "" {
			link = "https://doi.org/" + ref.DOI
		}
		return 1.0, link, true, nil
	}

	params := url.Values{}
	params.Set("query.bibliographic", ref.Title)
	params.Set("rows", fmt.Sprintf("%d", SearchRows))
	if c.mailto != "" {
		params.Set("mailto", c.mailto)
	}

	var body struct {
		Message struct {
			Items []struct {
				Title []string `json:"title"`
				DOI   string   `json:"DOI"`
				URL   string   `json:"URL"`
			} `json:"items"`
		} `json:"message"`
	}
	if err := c.getJSON(ctx, c.crossrefURL+"?"+params.Encode(), nil, &body); err != nil {
		return 0, "", false, err
	}

	bestScore, bestURL := 0.0, ""
	for _, item := range body.Message.Items {
		if len(item.Title) == 0 {
			continue
		}
		score := similarity.Dice(ref.Title, item.Title[0])
		if score <= bestScore {
			continue
		}
		bestScore = score
		bestURL = item.URL
		if bestURL == "" && item.DOI != "" {
			bestURL = "https://doi.org/" + item.DOI
		}
	}

	if bestScore >= MatchThreshold {
		return bestScore, bestURL, true, nil
	}
	return 0, "", false, nil
}

// checkSemanticScholar scores S2 paper-search hits by title similarity.
func (c *Client) checkSemanticScholar(ctx context.Context, ref reference.Reference) (float64, string, bool, error) {
	params := url.Values{}
	params.Set("query", ref.Title)
	params.Set("limit", fmt.Sprintf("%d", SearchRows))
	params.Set("fields", "title,url,externalIds")

	var header http.Header
	if c.s2APIKey != "" {
		header = http.Header{"X-Api-Key": []string{c.s2APIKey}}
	}

	var body struct {
		Data []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			ExternalIDs struct {
				DOI string `json:"DOI"`
			} `json:"externalIds"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, c.s2URL+"?"+params.Encode(), header, &body); err != nil {
		return 0, "", false, err
	}

	bestScore, bestURL := 0.0, ""
	for _, paper := range body.Data {
		if paper.Title == "" {
			continue
		}
		score := similarity.Dice(ref.Title, paper.Title)
		if score <= bestScore {
			continue
		}
		bestScore = score
		bestURL = paper.URL
		if bestURL == "" && paper.ExternalIDs.DOI != "" {
			bestURL = "https://doi.org/" + paper.ExternalIDs.DOI
		}
	}

	if bestScore >= MatchThreshold {
		return bestScore, bestURL, true, nil
	}
	return 0, "", false, nil
}

// checkDBLP scores DBLP publication-search hits by title similarity.
func (c *Client) checkDBLP(ctx context.Context, ref reference.Reference) (float64, string, bool, error) {
	params := url.Values{}
	params.Set("q", ref.Title)
	params.Set("format", "json")
	params.Set("h", fmt.Sprintf("%d", SearchRows))

	var body struct {
		Result struct {
			Hits struct {
				Hit []struct {
					Info struct {
						Title string `json:"title"`
						URL   string `json:"url"`
						DOI   string `json:"doi"`
					} `json:"info"`
				} `json:"hit"`
			} `json:"hits"`
		} `json:"result"`
	}
	if err := c.getJSON(ctx, c.dblpURL+"?"+params.Encode(), nil, &body); err != nil {
		return 0, "", false, err
	}

	bestScore, bestURL := 0.0, ""
	for _, hit := range body.Result.Hits.Hit {
		if hit.Info.Title == "" {
			continue
		}
		score := similarity.Dice(ref.Title, hit.Info.Title)
		if score <= bestScore {
			continue
		}
		bestScore = score
		bestURL = hit.Info.URL
		if bestURL == "" && hit.Info.DOI != "" {
			bestURL = "https://doi.org/" + hit.Info.DOI
		}
	}

	if bestScore >= MatchThreshold {
		return bestScore, bestURL, true, nil
	}
	return 0, "", false, nil
}
