// Package gist stores drawings and event backups as GitHub gists.
package gist

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	gh "github.com/google/go-github/v82/github"
	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/gregjones/httpcache"
)

var (
	ErrNoToken      = errors.New("no github token configured")
	ErrFileNotFound = errors.New("gist has no such file")
)

type Client struct {
	gh *gh.Client
}

// NewClient stacks an ETag cache and the secondary rate limit handler under
// an authenticated go-github client.
func NewClient(token string) (*Client, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	return &Client{gh: gh.NewClient(rateLimitClient).WithAuthToken(token)}, nil
}

// NewClientWithHTTPClient points the client at baseURL, for tests.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u
	return &Client{gh: client}, nil
}

type File struct {
	Name    string
	Content string
}

type Gist struct {
	ID  string
	URL string
}

func toGist(g *gh.Gist) Gist {
	return Gist{ID: g.GetID(), URL: g.GetHTMLURL()}
}

func files(fs []File) map[gh.GistFilename]gh.GistFile {
	out := make(map[gh.GistFilename]gh.GistFile, len(fs))
	for _, f := range fs {
		out[gh.GistFilename(f.Name)] = gh.GistFile{
			Filename: gh.Ptr(f.Name),
			Content:  gh.Ptr(f.Content),
		}
	}
	return out
}

// Create uploads a new secret gist.
func (c *Client) Create(ctx context.Context, description string, fs ...File) (Gist, error) {
	g, _, err := c.gh.Gists.Create(ctx, &gh.Gist{
		Description: gh.Ptr(description),
		Public:      gh.Ptr(false),
		Files:       files(fs),
	})
	if err != nil {
		return Gist{}, fmt.Errorf("creating gist: %w", err)
	}
	return toGist(g), nil
}

// Update replaces the given files of an existing gist. Other files are left
// alone.
func (c *Client) Update(ctx context.Context, id string, fs ...File) (Gist, error) {
	g, _, err := c.gh.Gists.Edit(ctx, id, &gh.Gist{Files: files(fs)})
	if err != nil {
		return Gist{}, fmt.Errorf("updating gist %s: %w", id, err)
	}
	return toGist(g), nil
}

// Read returns the content of one file. An empty filename reads the first
// file in the gist.
func (c *Client) Read(ctx context.Context, id, filename string) (string, error) {
	g, _, err := c.gh.Gists.Get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("reading gist %s: %w", id, err)
	}
	if filename != "" {
		f, ok := g.Files[gh.GistFilename(filename)]
		if !ok {
			return "", ErrFileNotFound
		}
		return f.GetContent(), nil
	}
	for _, f := range g.Files {
		return f.GetContent(), nil
	}
	return "", ErrFileNotFound
}
