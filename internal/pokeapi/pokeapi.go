package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"
	"yeetbot.dev/yeet/internal/log"
)

const DefaultBaseURL = "https://pokeapi.co/api/v2/"

var ErrNotFound = errors.New("pokeapi has no such pokémon")

type Client struct {
	HTTP    *http.Client
	BaseURL string
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

func (c *Client) get(ctx context.Context, endpoint string, qry any, v any) error {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.JoinPath(base, endpoint)
	if err != nil {
		return err
	}
	if qry != nil {
		values, err := query.Values(qry)
		if err != nil {
			return err
		}
		if enc := values.Encode(); enc != "" {
			u += "?" + enc
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		log.DumpResponse(resp, true, log.LevelError, "pokeapi %s: %s", endpoint, resp.Status)
		return fmt.Errorf("pokeapi %s: %s", endpoint, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

type Pokemon struct {
	ID      int
	Name    string
	Sprite  string
	Artwork string
	Types   []string
}

type pokemonJSON struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Sprites struct {
		FrontDefault string `json:"front_default"`
		Other        struct {
			OfficialArtwork struct {
				FrontDefault string `json:"front_default"`
			} `json:"official-artwork"`
		} `json:"other"`
	} `json:"sprites"`
	Types []struct {
		Slot int `json:"slot"`
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
	} `json:"types"`
}

// Pokemon looks up a pokémon by dex number or PokeAPI slug.
func (c *Client) Pokemon(ctx context.Context, idOrName string) (Pokemon, error) {
	slug := strings.ToLower(strings.Join(strings.Fields(idOrName), "-"))
	var raw pokemonJSON
	if err := c.get(ctx, "pokemon/"+url.PathEscape(slug), nil, &raw); err != nil {
		return Pokemon{}, err
	}
	p := Pokemon{
		ID:      raw.ID,
		Name:    raw.Name,
		Sprite:  raw.Sprites.FrontDefault,
		Artwork: raw.Sprites.Other.OfficialArtwork.FrontDefault,
	}
	for _, t := range raw.Types {
		p.Types = append(p.Types, t.Type.Name)
	}
	return p, nil
}

type ListOptions struct {
	Limit  int `url:"limit,omitempty"`
	Offset int `url:"offset,omitempty"`
}

type listJSON struct {
	Count   int    `json:"count"`
	Next    string `json:"next"`
	Results []struct {
		Name string `json:"name"`
	} `json:"results"`
}

// Species pages through every species name.
func (c *Client) Species(ctx context.Context) ([]string, error) {
	opts := ListOptions{Limit: 200}
	var names []string
	for {
		var page listJSON
		if err := c.get(ctx, "pokemon-species", opts, &page); err != nil {
			return nil, err
		}
		for _, r := range page.Results {
			names = append(names, r.Name)
		}
		if page.Next == "" || len(page.Results) == 0 {
			return names, nil
		}
		opts.Offset += len(page.Results)
	}
}
