// Package codeforces is a minimal client for the public Codeforces API,
// covering the two read-only methods the roster service needs.
package codeforces

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const handleDelimiter = ";"

// User is one profile object from the user.info result list.
type User struct {
	Handle        string `json:"handle"`
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	Country       string `json:"country,omitempty"`
	City          string `json:"city,omitempty"`
	Organization  string `json:"organization,omitempty"`
	Rank          string `json:"rank,omitempty"`
	MaxRank       string `json:"maxRank,omitempty"`
	Rating        int    `json:"rating,omitempty"`
	MaxRating     int    `json:"maxRating,omitempty"`
	Contribution  int    `json:"contribution"`
	FriendOfCount int    `json:"friendOfCount"`
	Avatar        string `json:"avatar,omitempty"`
	TitlePhoto    string `json:"titlePhoto,omitempty"`
	LastOnline    int64  `json:"lastOnlineTimeSeconds,omitempty"`
	Registration  int64  `json:"registrationTimeSeconds,omitempty"`
}

type submission struct {
	CreationTimeSeconds int64 `json:"creationTimeSeconds"`
}

// envelope is the common Codeforces response wrapper.
type envelope struct {
	Status  string          `json:"status"`
	Comment string          `json:"comment,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetUsers fetches profiles for many handles in a single user.info call.
// Handles are joined with a semicolon; one malformed handle fails the whole
// query on the Codeforces side, so callers validate first.
func (c *Client) GetUsers(ctx context.Context, handles []string) ([]User, error) {
	if len(handles) == 0 {
		return nil, nil
	}

	q := url.Values{}
	q.Set("handles", strings.Join(handles, handleDelimiter))

	var users []User
	if err := c.get(ctx, "/user.info", q, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// LastSubmissionTime returns the creation time of the handle's most recent
// submission, or nil when the handle has none.
func (c *Client) LastSubmissionTime(ctx context.Context, handle string) (*time.Time, error) {
	q := url.Values{}
	q.Set("handle", handle)
	q.Set("from", "1")
	q.Set("count", "1")

	var subs []submission
	if err := c.get(ctx, "/user.status", q, &subs); err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, nil
	}
	t := time.Unix(subs[0].CreationTimeSeconds, 0).UTC()
	return &t, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("codeforces request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("codeforces: decoding %s response: %w", path, err)
	}

	// Codeforces returns the FAILED envelope with non-200 codes too, so the
	// status discriminator is checked before the HTTP code.
	if env.Status != "OK" {
		if env.Comment != "" {
			return fmt.Errorf("codeforces: %s", env.Comment)
		}
		return fmt.Errorf("codeforces: request failed with status %d", resp.StatusCode)
	}

	return json.Unmarshal(env.Result, result)
}
