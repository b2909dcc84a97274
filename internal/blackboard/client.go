// Package blackboard is the REST client for the Learn public API: OAuth2
// client-credentials auth, paged content listings, and course key
// resolution. Each crawl takes its own point-in-time snapshot of the
// course listing, so the whole crawl reflects one listing and repeated
// crawls of the same course observe current content.
package blackboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/campusops/coursemap/internal/coursetree"
)

const (
	apiBase     = "/learn/api/public/v1"
	pageLimit   = 200
	maxAttempts = 3

	contentFields = "id,title,parentId,position,webUrl,links,availability,contentHandler,created,modified,body"
)

// Client talks to one Learn host. Safe for concurrent use; per-course
// listings are not held on the Client, each crawl takes a Snapshot.
type Client struct {
	host       string
	key        string
	secret     string
	httpClient *http.Client
	log        *slog.Logger

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewClient(host, key, secret string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		host:   strings.TrimRight(host, "/"),
		key:    key,
		secret: secret,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: log,
	}
}

// content is the raw wire shape of one content item.
type content struct {
	ID           string `json:"id"`
	ParentID     string `json:"parentId"`
	Title        string `json:"title"`
	Body         string `json:"body"`
	Position     *int   `json:"position"`
	Availability struct {
		Available string `json:"available"`
	} `json:"availability"`
	ContentHandler struct {
		ID        string `json:"id"`
		URL       string `json:"url"`
		LaunchURL string `json:"launchUrl"`
		IsBbPage  bool   `json:"isBbPage"`
	} `json:"contentHandler"`
}

func (c content) record() coursetree.Record {
	handlerURL := strings.TrimSpace(c.ContentHandler.URL)
	if handlerURL == "" {
		handlerURL = strings.TrimSpace(c.ContentHandler.LaunchURL)
	}
	return coursetree.Record{
		ID:         c.ID,
		ParentID:   c.ParentID,
		Title:      c.Title,
		Body:       c.Body,
		Position:   c.Position,
		Available:  c.Availability.Available,
		HandlerID:  c.ContentHandler.ID,
		HandlerURL: handlerURL,
		IsPage:     c.ContentHandler.IsBbPage,
	}
}

type contentPage struct {
	Results []content `json:"results"`
	Paging  struct {
		NextPage string `json:"nextPage"`
	} `json:"paging"`
}

// isPK1 reports whether an id is already an internal key (_N_M form).
func isPK1(id string) bool {
	return strings.HasPrefix(id, "_") && strings.Contains(id[1:], "_")
}

// ResolveCourseKey turns a human course id into the internal key. Keys
// in pk1 form pass through untouched.
func (c *Client) ResolveCourseKey(ctx context.Context, courseID string) (string, error) {
	id := strings.TrimSpace(courseID)
	if id == "" {
		return "", &ResolutionError{CourseID: courseID, Err: fmt.Errorf("empty course id")}
	}
	if isPK1(id) {
		return id, nil
	}

	var course struct {
		ID string `json:"id"`
	}
	u := c.host + apiBase + "/courses/courseId:" + url.PathEscape(id)
	if err := c.getJSON(ctx, u, nil, &course); err != nil {
		return "", &ResolutionError{CourseID: courseID, Err: err}
	}
	if course.ID == "" {
		return "", &ResolutionError{CourseID: courseID, Err: fmt.Errorf("no id in course response")}
	}
	return course.ID, nil
}

// CourseMeta fetches the course code and display name for headers.
func (c *Client) CourseMeta(ctx context.Context, courseKey string) (code, name string, err error) {
	var course struct {
		CourseID string `json:"courseId"`
		Name     string `json:"name"`
	}
	u := c.host + apiBase + "/courses/" + url.PathEscape(courseKey)
	params := url.Values{"fields": {"id,courseId,name"}}
	if err := c.getJSON(ctx, u, params, &course); err != nil {
		return "", "", err
	}
	return course.CourseID, course.Name, nil
}

// snapshot serves child lookups for one crawl from a single recursive
// listing, so sibling order is stable within the crawl and records whose
// parent never appears in the listing surface as top-level children.
type snapshot struct {
	children map[string][]coursetree.Record // parentID -> ordered children
}

// Snapshot pulls the complete recursive listing of a course and returns
// a fetcher that serves the crawl from that listing alone. The handle is
// scoped to one crawl: take a fresh one per job so repeated maps of the
// same course observe current content.
func (c *Client) Snapshot(ctx context.Context, courseKey string) (coursetree.Fetcher, error) {
	items, err := c.fetchAllContents(ctx, courseKey)
	if err != nil {
		return nil, err
	}
	return &snapshot{children: indexByParent(items)}, nil
}

// FetchChildren lists the ordered children of one parent (empty parent
// id means top level).
func (s *snapshot) FetchChildren(_ context.Context, _ string, parentID string) ([]coursetree.Record, error) {
	return s.children[parentID], nil
}

func (c *Client) fetchAllContents(ctx context.Context, courseKey string) ([]coursetree.Record, error) {
	params := url.Values{
		"recursive": {"true"},
		"expand":    {"body,availability,contentHandler"},
		"fields":    {contentFields},
		"limit":     {fmt.Sprint(pageLimit)},
	}
	next := c.host + apiBase + "/courses/" + url.PathEscape(courseKey) + "/contents"

	var out []coursetree.Record
	for next != "" {
		var page contentPage
		if err := c.getJSON(ctx, next, params, &page); err != nil {
			return nil, &FetchError{CourseKey: courseKey, Err: err}
		}
		for _, item := range page.Results {
			out = append(out, item.record())
		}
		next = c.normalizeNextURL(page.Paging.NextPage)
		params = nil // nextPage URLs carry their own query
	}
	return out, nil
}

// normalizeNextURL resolves a paging nextPage value against the host;
// the API returns host-relative paths.
func (c *Client) normalizeNextURL(next string) string {
	switch {
	case next == "":
		return ""
	case strings.HasPrefix(next, "http://"), strings.HasPrefix(next, "https://"):
		return next
	case strings.HasPrefix(next, "/"):
		return c.host + next
	default:
		return c.host + "/" + next
	}
}

// indexByParent groups records by parent id with a stable per-parent
// order: position ascending (missing positions last), then title.
// Records whose parent id never appears in the listing are reparented to
// the top level rather than dropped.
func indexByParent(items []coursetree.Record) map[string][]coursetree.Record {
	known := make(map[string]bool, len(items))
	for _, it := range items {
		known[it.ID] = true
	}

	idx := make(map[string][]coursetree.Record)
	for _, it := range items {
		pid := it.ParentID
		if pid != "" && !known[pid] {
			pid = ""
		}
		idx[pid] = append(idx[pid], it)
	}

	for _, siblings := range idx {
		sort.SliceStable(siblings, func(i, j int) bool {
			pi, pj := positionKey(siblings[i].Position), positionKey(siblings[j].Position)
			if pi != pj {
				return pi < pj
			}
			return siblings[i].Title < siblings[j].Title
		})
	}
	return idx
}

func positionKey(p *int) int {
	if p == nil {
		return int(^uint(0) >> 1) // missing positions sort last
	}
	return *p
}

// getJSON performs an authenticated GET with bounded retries on
// transient statuses.
func (c *Client) getJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff(attempt - 1)):
			}
		}

		status, err := c.getJSONOnce(ctx, rawURL, params, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !transientStatus(status) {
			return err
		}
		c.log.Warn("transient response, retrying",
			"url", rawURL, "status", status, "attempt", attempt+1)
	}
	return lastErr
}

func (c *Client) getJSONOnce(ctx context.Context, rawURL string, params url.Values, out any) (int, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return 0, err
	}

	u := rawURL
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return resp.StatusCode, fmt.Errorf("get %s: status %d: %s", rawURL, resp.StatusCode, string(respBody))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return resp.StatusCode, nil
}

// ensureToken returns a valid bearer token, requesting or refreshing the
// client-credentials grant as needed.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExp) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.host+apiBase+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.SetBasicAuth(c.key, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("oauth token request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("oauth token request: status %d: %s", resp.StatusCode, string(respBody))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("oauth token response missing access_token")
	}

	c.token = tok.AccessToken
	ttl := time.Duration(tok.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	c.tokenExp = time.Now().Add(ttl - 30*time.Second)
	return c.token, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
