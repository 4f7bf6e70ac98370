package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	REDDIT_AUTH_URL = "https://www.reddit.com/api/v1/access_token"
	REDDIT_API_URL  = "https://oauth.reddit.com"
	USER_AGENT      = "openmod-bot/2.0"

	MAX_RETRIES     = 5
	INITIAL_BACKOFF = 1 * time.Second
	MAX_BACKOFF     = 32 * time.Second
)

// HTTPClient is the production Client, authenticated with OAuth client
// credentials. It refreshes its token on 401 and backs off on 429, and
// reports missing entities as (nil, nil).
type HTTPClient struct {
	config *clientcredentials.Config
	client *http.Client
	mu     sync.Mutex

	// homeSubreddit is the community this instance is installed in.
	homeSubreddit string
}

func NewHTTPClient(homeSubreddit string) *HTTPClient {
	conf := &clientcredentials.Config{
		ClientID:     os.Getenv("REDDIT_CLIENT_ID"),
		ClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		TokenURL:     REDDIT_AUTH_URL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	return &HTTPClient{
		config:        conf,
		client:        conf.Client(context.Background()),
		homeSubreddit: homeSubreddit,
	}
}

func (c *HTTPClient) refreshClient() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client = c.config.Client(context.Background())
}

var errNotFound = fmt.Errorf("not found")

func (c *HTTPClient) request(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	backoff := INITIAL_BACKOFF

	for attempt := 0; attempt < MAX_RETRIES; attempt++ {
		var body io.Reader
		if form != nil {
			body = strings.NewReader(form.Encode())
		}

		req, err := http.NewRequestWithContext(ctx, method, REDDIT_API_URL+path, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", USER_AGENT)
		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}

		switch resp.StatusCode {
		case http.StatusOK:
			data, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			return data, err
		case http.StatusNotFound, http.StatusForbidden:
			// forbidden covers users who have blocked the app
			resp.Body.Close()
			return nil, errNotFound
		case http.StatusUnauthorized:
			resp.Body.Close()
			slog.Warn("[RedditClient] Token expired - refreshing and retrying...")
			c.refreshClient()
			continue
		case http.StatusTooManyRequests:
			resp.Body.Close()
			slog.Warn("[RedditClient] 429 Too Many Requests - retrying with backoff",
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff))
			time.Sleep(backoff)
			backoff *= 2
			if backoff > MAX_BACKOFF {
				backoff = MAX_BACKOFF
			}
			continue
		default:
			resp.Body.Close()
			return nil, fmt.Errorf("[RedditClient] unexpected status %d for %s", resp.StatusCode, path)
		}
	}
	return nil, fmt.Errorf("[RedditClient] max retries reached for %s", path)
}

// thingListing is the envelope /api/info wraps results in.
type thingListing struct {
	Data struct {
		Children []struct {
			Kind string          `json:"kind"`
			Data json.RawMessage `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type commentData struct {
	ID             string  `json:"id"`
	AuthorFullname string  `json:"author_fullname"`
	Author         string  `json:"author"`
	Body           string  `json:"body"`
	Permalink      string  `json:"permalink"`
	SubredditID    string  `json:"subreddit_id"`
	Edited         any     `json:"edited"` // false or an epoch-seconds float
	CreatedUTC     float64 `json:"created_utc"`
}

type postData struct {
	ID             string  `json:"id"`
	AuthorFullname string  `json:"author_fullname"`
	Author         string  `json:"author"`
	Title          string  `json:"title"`
	Selftext       string  `json:"selftext"`
	URL            string  `json:"url"`
	Permalink      string  `json:"permalink"`
	SubredditID    string  `json:"subreddit_id"`
	Edited         any     `json:"edited"`
	CreatedUTC     float64 `json:"created_utc"`
}

func editedTimes(edited any, createdUTC float64) (bool, int64, int64) {
	created := int64(createdUTC * 1000)
	if at, ok := edited.(float64); ok && at > 0 {
		return true, created, int64(at * 1000)
	}
	return false, created, created
}

func (c *HTTPClient) info(ctx context.Context, id string) (*thingListing, error) {
	data, err := c.request(ctx, http.MethodGet, "/api/info.json?id="+url.QueryEscape(id), nil)
	if err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, err
	}

	var listing thingListing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("[RedditClient] failed to decode info listing: %w", err)
	}
	if len(listing.Data.Children) == 0 {
		return nil, nil
	}
	return &listing, nil
}

func (c *HTTPClient) CommentByID(ctx context.Context, id string) (*Comment, error) {
	listing, err := c.info(ctx, id)
	if err != nil || listing == nil {
		return nil, err
	}

	var d commentData
	if err := json.Unmarshal(listing.Data.Children[0].Data, &d); err != nil {
		return nil, err
	}

	edited, created, modified := editedTimes(d.Edited, d.CreatedUTC)
	return &Comment{
		ID:             "t1_" + d.ID,
		AuthorID:       d.AuthorFullname,
		AuthorName:     d.Author,
		Body:           d.Body,
		Permalink:      d.Permalink,
		SubredditID:    d.SubredditID,
		Edited:         edited,
		CreatedAt:      created,
		LastModifiedAt: modified,
	}, nil
}

func (c *HTTPClient) PostByID(ctx context.Context, id string) (*Post, error) {
	listing, err := c.info(ctx, id)
	if err != nil || listing == nil {
		return nil, err
	}

	var d postData
	if err := json.Unmarshal(listing.Data.Children[0].Data, &d); err != nil {
		return nil, err
	}

	edited, created, modified := editedTimes(d.Edited, d.CreatedUTC)
	return &Post{
		ID:          "t3_" + d.ID,
		AuthorID:    d.AuthorFullname,
		AuthorName:  d.Author,
		Title:       d.Title,
		Body:        d.Selftext,
		URL:         d.URL,
		Permalink:   d.Permalink,
		SubredditID: d.SubredditID,
		Edited:      edited,
		CreatedAt:   created,
		UpdatedAt:   modified,
	}, nil
}

type userAbout struct {
	Data struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		IsEmployee bool   `json:"is_employee"`
	} `json:"data"`
}

func (c *HTTPClient) UserByUsername(ctx context.Context, username string) (*User, error) {
	data, err := c.request(ctx, http.MethodGet, "/user/"+url.PathEscape(username)+"/about.json", nil)
	if err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, err
	}

	var about userAbout
	if err := json.Unmarshal(data, &about); err != nil {
		return nil, err
	}
	if about.Data.Name == "" {
		return nil, nil
	}

	return &User{
		ID:       "t2_" + about.Data.ID,
		Username: about.Data.Name,
		IsAdmin:  about.Data.IsEmployee,
	}, nil
}

func (c *HTTPClient) UserByID(ctx context.Context, id string) (*User, error) {
	data, err := c.request(ctx, http.MethodGet, "/api/user_data_by_account_ids.json?ids="+url.QueryEscape(id), nil)
	if err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, err
	}

	var users map[string]struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, err
	}

	entry, ok := users[id]
	if !ok || entry.Name == "" {
		return nil, nil
	}

	// the bulk endpoint does not expose admin status
	return c.UserByUsername(ctx, entry.Name)
}

type subredditAbout struct {
	Data struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
	} `json:"data"`
}

func (c *HTTPClient) SubredditInfoByID(ctx context.Context, id string) (*SubredditInfo, error) {
	listing, err := c.info(ctx, id)
	if err != nil || listing == nil {
		return nil, err
	}

	var d struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
	}
	if err := json.Unmarshal(listing.Data.Children[0].Data, &d); err != nil {
		return nil, err
	}
	if d.DisplayName == "" {
		return nil, nil
	}
	return &SubredditInfo{ID: d.Name, Name: d.DisplayName}, nil
}

func (c *HTTPClient) CurrentSubredditName(ctx context.Context) (string, error) {
	if c.homeSubreddit == "" {
		return "", fmt.Errorf("[RedditClient] home subreddit is not configured")
	}
	return c.homeSubreddit, nil
}

type modLogListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Action      string `json:"action"`
				Mod         string `json:"mod"`
				Details     string `json:"details"`
				Description string `json:"description"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (c *HTTPClient) ModerationLog(ctx context.Context, subreddit, thingID string) ([]ModLogEntry, error) {
	path := "/r/" + url.PathEscape(subreddit) + "/about/log.json?limit=100&target=" + url.QueryEscape(thingID)
	data, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, err
	}

	var listing modLogListing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, err
	}

	entries := make([]ModLogEntry, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		entries = append(entries, ModLogEntry{
			Type:          child.Data.Action,
			ModeratorName: child.Data.Mod,
			Details:       child.Data.Details,
			Description:   child.Data.Description,
		})
	}
	return entries, nil
}

func (c *HTTPClient) SubmitPost(ctx context.Context, opts SubmitPostOptions) (*Post, error) {
	form := url.Values{
		"sr":       {opts.SubredditName},
		"kind":     {"self"},
		"title":    {opts.Title},
		"text":     {opts.Text},
		"api_type": {"json"},
	}

	data, err := c.request(ctx, http.MethodPost, "/api/submit", form)
	if err != nil {
		return nil, err
	}

	var resp struct {
		JSON struct {
			Errors [][]string `json:"errors"`
			Data   struct {
				Name string `json:"name"`
				URL  string `json:"url"`
			} `json:"data"`
		} `json:"json"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	if len(resp.JSON.Errors) > 0 {
		return nil, fmt.Errorf("[RedditClient] submit rejected: %v", resp.JSON.Errors)
	}

	return &Post{
		ID:        resp.JSON.Data.Name,
		Title:     opts.Title,
		Body:      opts.Text,
		URL:       resp.JSON.Data.URL,
		Permalink: resp.JSON.Data.URL,
	}, nil
}

type wikiPageResponse struct {
	Data struct {
		ContentMD  string `json:"content_md"`
		RevisionID string `json:"revision_id"`
		RevisionBy struct {
			Data struct {
				Name string `json:"name"`
			} `json:"data"`
		} `json:"revision_by"`
	} `json:"data"`
}

func (c *HTTPClient) WikiPage(ctx context.Context, subreddit, page string) (*WikiPage, error) {
	path := "/r/" + url.PathEscape(subreddit) + "/wiki/" + page + ".json"
	data, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, err
	}

	var resp wikiPageResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}

	return &WikiPage{
		Content:        resp.Data.ContentMD,
		RevisionID:     resp.Data.RevisionID,
		RevisionAuthor: resp.Data.RevisionBy.Data.Name,
	}, nil
}

func (c *HTTPClient) UpdateWikiPage(ctx context.Context, subreddit, page, content string) error {
	form := url.Values{
		"page":    {page},
		"content": {content},
	}

	_, err := c.request(ctx, http.MethodPost, "/r/"+url.PathEscape(subreddit)+"/api/wiki/edit", form)
	if err != nil {
		return fmt.Errorf("[RedditClient] failed to update wiki page %s in %s: %w", page, subreddit, err)
	}
	return nil
}
