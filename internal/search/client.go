// Package search queries the Serper web search API and condenses the response
// into an answer or a handful of snippets.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/suPer8Hu/ai-assistant/internal/logx"
	"github.com/suPer8Hu/ai-assistant/internal/retry"
	"golang.org/x/time/rate"
)

const (
	DefaultURL  = "https://google.serper.dev/search"
	maxSnippets = 3
)

var ErrUnavailable = errors.New("web search unavailable")

type Snippet struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Result is either a direct answer or up to three organic snippets.
type Result struct {
	Answer   string    `json:"answer,omitempty"`
	Snippets []Snippet `json:"snippets,omitempty"`
}

func (r Result) Empty() bool {
	return r.Answer == "" && len(r.Snippets) == 0
}

// Format renders the result as context text for a generation prompt.
func (r Result) Format() string {
	if r.Answer != "" {
		return "Here's what I found: " + r.Answer
	}
	if len(r.Snippets) == 0 {
		return "I couldn't find relevant information for that query. Could you try rephrasing your question?"
	}
	parts := make([]string, 0, len(r.Snippets))
	for _, s := range r.Snippets {
		parts = append(parts, fmt.Sprintf("**%s**: %s", s.Title, s.Snippet))
	}
	return "Here are the top search results:\n\n" + strings.Join(parts, "\n\n")
}

// Cache stores results by normalized query. Implementations must be safe for
// concurrent use.
type Cache interface {
	GetSearch(ctx context.Context, query string) (*Result, error)
	SetSearch(ctx context.Context, query string, r Result, ttl time.Duration) error
}

type Options struct {
	URL        string
	APIKey     string
	Policy     retry.Policy
	RatePerSec float64
	Cache      Cache
	CacheTTL   time.Duration
}

type Client struct {
	url      string
	apiKey   string
	http     *http.Client
	policy   retry.Policy
	limiter  *rate.Limiter
	cache    Cache
	cacheTTL time.Duration
	log      *slog.Logger
}

func NewClient(opts Options) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}
	return &Client{
		url:      opts.URL,
		apiKey:   opts.APIKey,
		http:     &http.Client{},
		policy:   opts.Policy,
		limiter:  rate.NewLimiter(limit, 1),
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		log:      logx.Module("search"),
	}
}

type serperReq struct {
	Q string `json:"q"`
}

type serperResp struct {
	AnswerBox *struct {
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
	} `json:"answerBox,omitempty"`
	Organic []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Search returns ErrUnavailable (wrapped) when no attempt succeeded.
func (c *Client) Search(ctx context.Context, query string) (Result, error) {
	query = strings.TrimSpace(query)
	if c.apiKey == "" {
		return Result{}, fmt.Errorf("%w: api key not configured", ErrUnavailable)
	}

	if c.cache != nil {
		if hit, err := c.cache.GetSearch(ctx, query); err != nil {
			c.log.Warn("search cache read failed", "err", err)
		} else if hit != nil {
			return *hit, nil
		}
	}

	var res Result
	_, err := c.policy.Do(ctx, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		r, err := c.do(ctx, query)
		if err != nil {
			return err
		}
		res = r
		return nil
	}, func(attempt int, err error) {
		c.log.Warn("web search attempt failed", "attempt", attempt, "err", err)
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if c.cache != nil && !res.Empty() {
		if err := c.cache.SetSearch(ctx, query, res, c.cacheTTL); err != nil {
			c.log.Warn("search cache write failed", "err", err)
		}
	}
	return res, nil
}

func (c *Client) do(ctx context.Context, query string) (Result, error) {
	b, err := json.Marshal(serperReq{Q: query})
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return Result{}, fmt.Errorf("serper: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded serperResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{}, err
	}

	if decoded.AnswerBox != nil && decoded.AnswerBox.Answer != "" {
		return Result{Answer: decoded.AnswerBox.Answer}, nil
	}

	var out Result
	for _, o := range decoded.Organic {
		if len(out.Snippets) == maxSnippets {
			break
		}
		s := Snippet{Title: o.Title, Snippet: o.Snippet}
		if s.Title == "" {
			s.Title = "No title"
		}
		if s.Snippet == "" {
			s.Snippet = "No description available"
		}
		out.Snippets = append(out.Snippets, s)
	}
	return out, nil
}
