// Package x implements the social capability against the X (Twitter) v2 API
// with OAuth 1.0a user-context signing.
package x

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/dghubble/oauth1"

	"github.com/boardroomhq/boardroom/capability"
	"github.com/boardroomhq/boardroom/logging"
)

// MaxPostLen is the platform character limit for one post.
const MaxPostLen = 280

const defaultBaseURL = "https://api.twitter.com"

// Credentials is the OAuth 1.0a user-context credential set.
type Credentials struct {
	APIKey            string
	APISecret         string
	AccessToken       string
	AccessTokenSecret string
}

// Complete reports whether every credential field is set.
func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.APISecret != "" && c.AccessToken != "" && c.AccessTokenSecret != ""
}

// Options configure optional client collaborators.
type Options struct {
	Logger logging.Logger
	// BaseURL overrides the API endpoint, for tests.
	BaseURL string
	// HTTPClient overrides the signing client, for tests.
	HTTPClient *http.Client
}

// Client is a capability.Social posting via the v2 create-tweet endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     logging.Logger
}

var _ capability.Social = (*Client)(nil)

// New builds the client from a complete credential set.
func New(creds Credentials, optFns ...func(o *Options)) (*Client, error) {
	if !creds.Complete() {
		return nil, fmt.Errorf("x: incomplete credentials")
	}

	opts := Options{Logger: logging.NoOpLogger{}, BaseURL: defaultBaseURL}
	for _, fn := range optFns {
		fn(&opts)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		config := oauth1.NewConfig(creds.APIKey, creds.APISecret)
		token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)
		httpClient = config.Client(oauth1.NoContext, token)
	}

	return &Client{httpClient: httpClient, baseURL: opts.BaseURL, logger: opts.Logger}, nil
}

type createTweetRequest struct {
	Text string `json:"text"`
}

type createTweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// Publish posts the text. Texts over the platform limit are rejected before
// any network call.
func (c *Client) Publish(ctx context.Context, text string) (capability.Post, error) {
	if n := utf8.RuneCountInString(text); n > MaxPostLen {
		return capability.Post{}, fmt.Errorf("x: post is %d characters, limit is %d", n, MaxPostLen)
	}

	body, err := json.Marshal(createTweetRequest{Text: text})
	if err != nil {
		return capability.Post{}, fmt.Errorf("x: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return capability.Post{}, fmt.Errorf("x: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return capability.Post{}, fmt.Errorf("x: create post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return capability.Post{}, fmt.Errorf("x: create post: status %d: %s", resp.StatusCode, payload)
	}

	var decoded createTweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return capability.Post{}, fmt.Errorf("x: decode response: %w", err)
	}

	post := capability.Post{
		ID:  decoded.Data.ID,
		URL: fmt.Sprintf("https://x.com/i/web/status/%s", decoded.Data.ID),
	}
	c.logger.Info("social post published", "post_id", post.ID)
	return post, nil
}
