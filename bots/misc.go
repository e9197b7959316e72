package bots

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/api/cmdroute"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/state"
	"github.com/diamondburned/arikawa/v3/utils/json/option"
	"yeetbot.dev/yeet/internal/log"
	"yeetbot.dev/yeet/internal/pokeapi"
	"yeetbot.dev/yeet/internal/spawn"
	"yeetbot.dev/yeet/internal/wordfile"
)

type MiscConfig struct {
	PokeAPI    string   `toml:"pokeapi"`
	Frames     int      `toml:"frames"`
	FrameDelay Duration `toml:"frame_delay"`
}

const (
	wordsFile         = "words.dat"
	maxDice           = 100
	maxSides          = 1000
	defaultFrames     = 4
	defaultFrameDelay = 800 * time.Millisecond
)

var (
	errBadDice   = fmt.Errorf("dice look like 2d6, with at most %d dice of %d sides", maxDice, maxSides)
	errNoChoices = errors.New("give me at least two options separated by commas")
)

// parseDice reads NdM, where N defaults to 1 and a bare number is a single
// die with that many sides.
func parseDice(s string) (int, int, error) {
	s = strings.ToLower(strings.ReplaceAll(s, " ", ""))
	if s == "" {
		return 1, 6, nil
	}
	count, sides := "1", s
	if i := strings.IndexByte(s, 'd'); i >= 0 {
		count, sides = s[:i], s[i+1:]
		if count == "" {
			count = "1"
		}
	}
	n, err := strconv.Atoi(count)
	if err != nil || n < 1 || n > maxDice {
		return 0, 0, errBadDice
	}
	m, err := strconv.Atoi(sides)
	if err != nil || m < 2 || m > maxSides {
		return 0, 0, errBadDice
	}
	return n, m, nil
}

func rollDice(rng *rand.Rand, n, m int) ([]int, int) {
	rolls := make([]int, n)
	var total int
	for i := range rolls {
		rolls[i] = rng.IntN(m) + 1
		total += rolls[i]
	}
	return rolls, total
}

func formatRolls(rolls []int, total int) string {
	if len(rolls) == 1 {
		return fmt.Sprintf("🎲 **%d**", total)
	}
	parts := make([]string, len(rolls))
	for i, r := range rolls {
		parts[i] = strconv.Itoa(r)
	}
	s := strings.Join(parts, " + ")
	if len(s) > 1800 {
		s = s[:1800] + "…"
	}
	return fmt.Sprintf("🎲 %s = **%d**", s, total)
}

func parseChoices(s string) ([]string, error) {
	var out []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	if len(out) < 2 {
		return nil, errNoChoices
	}
	return out, nil
}

var yeetLines = []string{
	"%s yeeted %s into the sun ☀️",
	"%s yeeted %s across the server 💨",
	"%s yeeted %s straight into the shadow realm 🌑",
	"%s yeeted %s over the moon 🌕",
	"%s yeeted %s and they haven't landed yet 🚀",
}

// nameSource picks names for the guessing frames, from the word archive
// when update-spawns has built one.
type nameSource interface {
	Length() int
	Get(int) ([]byte, error)
}

type pokedexNames struct{ dex *spawn.Pokedex }

func (p pokedexNames) Length() int { return p.dex.Len() }
func (p pokedexNames) Get(i int) ([]byte, error) {
	all := p.dex.All()
	if i < 0 || i >= len(all) {
		return nil, wordfile.ErrOutOfRange
	}
	return []byte(all[i].Name), nil
}

func randomNames(rng *rand.Rand, src nameSource, n int) []string {
	var out []string
	if src.Length() == 0 {
		return out
	}
	for len(out) < n {
		word, err := src.Get(rng.IntN(src.Length()))
		if ok, _ := log.Assert(err); ok {
			return out
		}
		out = append(out, displayName(string(word)))
	}
	return out
}

// displayName turns an api slug such as "mr-mime" into "Mr Mime".
func displayName(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// revealPokemon picks the answer the way a wild spawn would, or uniformly
// when nothing in the table can spawn.
func revealPokemon(rng *rand.Rand, dex *spawn.Pokedex) (spawn.Species, bool) {
	if s, ok := dex.Spawn(rng); ok {
		return s, true
	}
	return dex.Random(rng)
}

func guessEmbed(name string) discord.Embed {
	return discord.Embed{
		Title:       "Who's that pokémon?",
		Description: "🤔 " + name + "…",
	}
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func setupMisc(s *state.State, r *cmdroute.Router, ir *interactionRouter) error {
	cfg := config.Bot.Misc
	poke := &pokeapi.Client{
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		BaseURL: cfg.PokeAPI,
	}
	frames := cfg.Frames
	if frames <= 0 {
		frames = defaultFrames
	}
	delay := cfg.FrameDelay.Or(defaultFrameDelay)

	r.AddFunc("ping", func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
		latency := time.Since(data.Event.ID.Time()).Round(time.Millisecond)
		return ephemeral(fmt.Sprintf("pong! %s", latency))
	})

	r.AddFunc("avatar", func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
		user := data.Event.Sender()
		if id := optSnowflake(data.Options, "user"); id.IsValid() {
			if u, ok := data.Data.Resolved.Users[discord.UserID(id)]; ok {
				user = &u
			}
		}
		if user == nil {
			return ephemeral("who?")
		}
		return &api.InteractionResponseData{
			Embeds: &[]discord.Embed{{
				Title: user.Username,
				Image: &discord.EmbedImage{URL: user.AvatarURL() + "?size=1024"},
			}},
		}
	})

	r.AddFunc("coinflip", func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
		side := "heads"
		if rand.IntN(2) == 1 {
			side = "tails"
		}
		return &api.InteractionResponseData{Content: option.NewNullableString("🪙 " + side)}
	})

	r.AddFunc("roll", func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
		n, m, err := parseDice(optString(data.Options, "dice"))
		if err != nil {
			return commandError(err, errBadDice)
		}
		return &api.InteractionResponseData{Content: option.NewNullableString(formatRolls(rollDice(newRand(), n, m)))}
	})

	r.AddFunc("choose", func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
		choices, err := parseChoices(optString(data.Options, "options"))
		if err != nil {
			return commandError(err, errNoChoices)
		}
		return &api.InteractionResponseData{
			Content:         option.NewNullableString("I choose **" + choices[rand.IntN(len(choices))] + "**"),
			AllowedMentions: &api.AllowedMentions{},
		}
	})

	r.AddFunc("yeet", func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
		target := discord.UserID(optSnowflake(data.Options, "user"))
		line := yeetLines[rand.IntN(len(yeetLines))]
		return &api.InteractionResponseData{
			Content: option.NewNullableString(fmt.Sprintf(line, data.Event.SenderID().Mention(), target.Mention())),
			AllowedMentions: &api.AllowedMentions{
				Users: []discord.UserID{target},
			},
		}
	})

	r.AddFunc("randompokemon", func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
		dex, err := loadPokedex()
		if err != nil {
			return commandError(err)
		}
		var src nameSource = pokedexNames{dex}
		wr, err := wordfile.NewWordReader(filepath.Join(config.Dirs.Cache, wordsFile))
		if err == nil && wr.Length() > 0 {
			src = wr
		}
		rng := newRand()
		names := randomNames(rng, src, frames)
		if wr != nil {
			wr.Close()
		}
		if len(names) == 0 {
			names = []string{"???"}
		}
		final, ok := revealPokemon(rng, dex)
		if !ok {
			return ephemeral("there are no pokémon to pick from")
		}
		ev := data.Event

		go func() {
			for _, name := range names[1:] {
				time.Sleep(delay)
				_, err := s.EditInteractionResponse(ev.AppID, ev.Token, api.EditInteractionResponseData{
					Embeds: &[]discord.Embed{guessEmbed(name)},
				})
				if ok, _ := log.Assert(err); ok {
					return
				}
			}
			time.Sleep(delay)

			embed := discord.Embed{
				Title:       fmt.Sprintf("It's %s!", final.Name),
				Description: fmt.Sprintf("#%d", final.ID),
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			p, err := poke.Pokemon(ctx, strconv.Itoa(final.ID))
			if err != nil {
				log.Debug("pokeapi %d: %s", final.ID, err)
			} else if p.Sprite != "" {
				embed.Image = &discord.EmbedImage{URL: p.Sprite}
			}
			_, err = s.EditInteractionResponse(ev.AppID, ev.Token, api.EditInteractionResponseData{
				Embeds: &[]discord.Embed{embed},
			})
			log.Assert(err)
		}()

		return &api.InteractionResponseData{Embeds: &[]discord.Embed{guessEmbed(names[0])}}
	})
	return nil
}
