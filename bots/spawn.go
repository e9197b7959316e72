package bots

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/api/cmdroute"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/state"
	"yeetbot.dev/yeet/internal/log"
	"yeetbot.dev/yeet/internal/spawn"
	"yeetbot.dev/yeet/resource"
)

type SpawnConfig struct {
	Source string `toml:"source"`
}

const spawnCacheFile = "pokemon.csv"

var (
	pokedexOnce sync.Once
	pokedex     *spawn.Pokedex
	pokedexErr  error
)

// loadPokedex prefers the table downloaded by update-spawns over the bundled
// one.
func loadPokedex() (*spawn.Pokedex, error) {
	pokedexOnce.Do(func() {
		cached := filepath.Join(config.Dirs.Cache, spawnCacheFile)
		if data, err := os.ReadFile(cached); err == nil {
			pokedex, pokedexErr = spawn.Load(bytes.NewReader(data))
			if pokedexErr == nil {
				return
			}
			log.Warn("cached spawn table is unreadable, using bundled one: %s", pokedexErr)
		}
		pokedex, pokedexErr = spawn.Load(bytes.NewReader(resource.PokemonCSV))
	})
	return pokedex, pokedexErr
}

func pokemonChoices(dex *spawn.Pokedex, query string) api.AutocompleteChoices {
	var names []string
	for _, s := range dex.Suggest(query, 25) {
		names = append(names, s.Name)
	}
	return stringChoices(names)
}

func speciesEmbed(dex *spawn.Pokedex, s spawn.Species, charm bool) (discord.Embed, error) {
	chance, err := dex.Chance(s)
	if err != nil {
		return discord.Embed{}, err
	}
	shinyLabel := "Shiny chance"
	if charm {
		shinyLabel += " (shiny charm)"
	}
	types := make([]string, len(s.Types))
	for i, t := range s.Types {
		types[i] = strings.ToUpper(t[:1]) + t[1:]
	}
	return discord.Embed{
		Title: fmt.Sprintf("#%d %s", s.ID, s.Name),
		Fields: []discord.EmbedField{
			{Name: "Spawn chance", Value: spawn.FormatChance(chance)},
			{Name: shinyLabel, Value: spawn.FormatChance(spawn.ShinyChance(chance, charm))},
			{Name: "Rarity", Value: string(s.Rarity), Inline: true},
			{Name: "Region", Value: s.Region, Inline: true},
			{Name: "Type", Value: strings.Join(types, " / "), Inline: true},
		},
	}, nil
}

func setupSpawn(s *state.State, r *cmdroute.Router, ir *interactionRouter) error {
	dex, err := loadPokedex()
	if err != nil {
		return err
	}
	known := []error{spawn.ErrUnknownPokemon, spawn.ErrNotCatchable, spawn.ErrBadGroup, spawn.ErrEmptyGroup}

	r.Sub("spawnrate", func(r *cmdroute.Router) {
		r.AddFunc("pokemon", func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
			name := optString(data.Options, "name")
			species, err := dex.Lookup(name)
			if errors.Is(err, spawn.ErrUnknownPokemon) {
				if suggestions := dex.Suggest(name, 3); len(suggestions) > 0 {
					names := make([]string, len(suggestions))
					for i, s := range suggestions {
						names[i] = s.Name
					}
					return ephemeral(fmt.Sprintf("%s, did you mean %s?", err, strings.Join(names, ", ")))
				}
			}
			if err != nil {
				return commandError(err, known...)
			}
			embed, err := speciesEmbed(dex, species, optBool(data.Options, "shinycharm"))
			if err != nil {
				return commandError(err, known...)
			}
			return &api.InteractionResponseData{Embeds: &[]discord.Embed{embed}}
		})

		r.AddFunc("group", func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
			var options struct {
				Kind  string `discord:"kind"`
				Value string `discord:"value"`
			}
			if err := data.Options.Unmarshal(&options); err != nil {
				return commandError(err)
			}
			chance, n, err := dex.GroupChance(spawn.GroupKind(options.Kind), options.Value)
			if err != nil {
				return commandError(err, known...)
			}
			return &api.InteractionResponseData{
				Embeds: &[]discord.Embed{{
					Title:       fmt.Sprintf("%s: %s", options.Kind, strings.ToLower(options.Value)),
					Description: fmt.Sprintf("%d catchable pokémon", n),
					Fields: []discord.EmbedField{
						{Name: "Spawn chance", Value: spawn.FormatChance(chance)},
						{Name: "Shiny chance", Value: spawn.FormatChance(spawn.ShinyChance(chance, false))},
					},
				}},
			}
		})
	})

	ir.Autocomplete("spawnrate", func(ev *discord.InteractionEvent, focused discord.AutocompleteOption) api.AutocompleteChoices {
		if focused.Name != "name" {
			return api.AutocompleteStringChoices{}
		}
		return pokemonChoices(dex, focused.String())
	})
	return nil
}
