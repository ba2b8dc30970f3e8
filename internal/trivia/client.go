// internal/trivia/client.go
//
// HTTP client for the jeopardy API.
// Endpoints:
//   - GET {base}/categories?count=N → [{"id":1,"title":"..."}, ...]
//   - GET {base}/category?id=N      → {"id":1,"title":"...","clues":[{"question":"...","answer":"..."}]}
//
// Notes:
//   - Answers and questions sometimes arrive as JSON numbers; they are read as text.
//   - Outbound calls share one token bucket so a burst of restarts cannot
//     hammer the service.
//   - Transport errors and 5xx replies wrap ErrRemoteServiceUnavailable.

package trivia

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/robalobadob/jeopardy/internal/game"
)

// DefaultBaseURL is the public jeopardy API.
const DefaultBaseURL = "https://projects.springboard.com/jeopardy/api"

// maxBody bounds how much of a reply is read.
const maxBody = 4 << 20

// Client talks to the jeopardy API over HTTP.
type Client struct {
	base    string
	http    *http.Client
	limiter *rate.Limiter
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithRateLimit caps outbound requests per second (burst = ceil(perSec)).
// perSec <= 0 disables limiting.
func WithRateLimit(perSec float64) ClientOption {
	return func(c *Client) {
		if perSec <= 0 {
			c.limiter = nil
			return
		}
		burst := int(perSec)
		if float64(burst) < perSec {
			burst++
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// NewClient returns a Client for baseURL (DefaultBaseURL if empty).
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type categoryRef struct {
	ID    CategoryID `json:"id"`
	Title text       `json:"title"`
}

type clueDTO struct {
	Question text `json:"question"`
	Answer   text `json:"answer"`
}

type categoryDTO struct {
	ID    CategoryID `json:"id"`
	Title text       `json:"title"`
	Clues []clueDTO  `json:"clues"`
}

// CategoryIDs fetches poolSize categories and returns their ids.
func (c *Client) CategoryIDs(ctx context.Context, poolSize int) ([]CategoryID, error) {
	q := url.Values{"count": {strconv.Itoa(poolSize)}}
	var refs []categoryRef
	if err := c.get(ctx, "/categories", q, &refs); err != nil {
		return nil, err
	}
	ids := make([]CategoryID, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// Category fetches one category with all of its clues.
// Clues with an empty question or answer after cleanup are dropped.
func (c *Client) Category(ctx context.Context, id CategoryID) (CategoryDetail, error) {
	q := url.Values{"id": {strconv.FormatInt(int64(id), 10)}}
	var dto categoryDTO
	if err := c.get(ctx, "/category", q, &dto); err != nil {
		return CategoryDetail{}, err
	}
	out := CategoryDetail{ID: id, Title: cleanText(string(dto.Title))}
	for _, cl := range dto.Clues {
		rc := game.RawClue{Question: cleanText(string(cl.Question)), Answer: cleanText(string(cl.Answer))}
		if rc.Question == "" || rc.Answer == "" {
			continue
		}
		out.Clues = append(out.Clues, rc)
	}
	return out, nil
}

// get performs a rate-limited GET and decodes the JSON reply into dst.
func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrRemoteServiceUnavailable, err)
		}
	}
	u := c.base + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrRemoteServiceUnavailable, path, err)
	}
	defer res.Body.Close()
	log.Debug().Str("path", path).Str("query", q.Encode()).Int("status", res.StatusCode).
		Dur("took", time.Since(start)).Msg("trivia request")

	switch {
	case res.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, q.Encode())
	case res.StatusCode >= 500:
		return fmt.Errorf("%w: GET %s: status %d", ErrRemoteServiceUnavailable, path, res.StatusCode)
	case res.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: GET %s: status %d", ErrBadResponse, path, res.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(res.Body, maxBody)).Decode(dst); err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrBadResponse, path, err)
	}
	return nil
}

// text decodes a JSON string, number or null as a string.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "null":
		*t = ""
	case strings.HasPrefix(s, `"`):
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*t = text(v)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("trivia: expected string or number, got %s", s)
		}
		*t = text(n.String())
	}
	return nil
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// cleanText strips markup, unescapes entities and collapses whitespace.
func cleanText(s string) string {
	s = tagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}
