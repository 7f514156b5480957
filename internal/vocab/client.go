package vocab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public FreeDictionary API host.
const DefaultBaseURL = "https://api.dictionaryapi.dev"

// Client looks words up against a FreeDictionary-compatible API.
type Client struct {
	http    *http.Client
	baseURL string
}

// ClientOption tweaks a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different dictionary host.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// NewClient builds a dictionary client, defaulting to the public API.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: DefaultBaseURL,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// apiEntry is one element of the API's response array, one entry per
// etymology.
type apiEntry struct {
	Word      string `json:"word"`
	Phonetic  string `json:"phonetic"`
	Phonetics []struct {
		Text  string `json:"text"`
		Audio string `json:"audio"`
	} `json:"phonetics"`
	Meanings []Meaning `json:"meanings"`
}

// Define fetches the dictionary entry for word. Entries across
// etymologies collapse into one, keeping the meanings in API order.
func (c *Client) Define(ctx context.Context, word string) (*Entry, error) {
	u := c.baseURL + "/api/v2/entries/en/" + url.PathEscape(word)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrNotFound
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("dictionary lookup: HTTP %d", resp.StatusCode)
	}

	var entries []apiEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode dictionary response: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}

	e := &Entry{Word: entries[0].Word}
	for _, ae := range entries {
		if e.Phonetic == "" {
			e.Phonetic = ae.Phonetic
		}
		for _, p := range ae.Phonetics {
			if e.Phonetic != "" {
				break
			}
			e.Phonetic = p.Text
		}
		e.Meanings = append(e.Meanings, ae.Meanings...)
	}
	return e, nil
}
