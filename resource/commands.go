package resource

import (
	"slices"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/utils/json/option"
)

func pokemonOption(description string) *discord.StringOption {
	return &discord.StringOption{
		OptionName:   "pokemon",
		Description:  description,
		Required:     true,
		Autocomplete: true,
	}
}

func imageOption() *discord.AttachmentOption {
	return &discord.AttachmentOption{
		OptionName:  "image",
		Description: "image to work on",
		Required:    true,
	}
}

// Commands holds every slash command, keyed by the component that owns it so
// disabled components are not registered.
var Commands = map[string][]api.CreateCommandData{
	"draw": {
		{
			Name:        "draw",
			Description: "open a drawing board",
			Options: []discord.CommandOption{
				&discord.IntegerOption{
					OptionName:  "height",
					Description: "rows on the board",
					Min:         option.NewInt(5),
					Max:         option.NewInt(17),
				},
				&discord.IntegerOption{
					OptionName:  "width",
					Description: "columns on the board",
					Min:         option.NewInt(5),
					Max:         option.NewInt(17),
				},
				&discord.StringOption{
					OptionName:  "background",
					Description: "emoji to fill the board with",
				},
				&discord.StringOption{
					OptionName:  "gist",
					Description: "gist id of a saved drawing to load",
				},
			},
		},
	},
	"afd": {
		{
			Name:        "afd",
			Description: "april fools draw",
			Options: []discord.CommandOption{
				&discord.SubcommandOption{
					OptionName:  "claim",
					Description: "claim a pokémon to draw",
					Options:     []discord.CommandOptionValue{pokemonOption("pokémon to claim")},
				},
				&discord.SubcommandOption{
					OptionName:  "unclaim",
					Description: "give up a pokémon you claimed",
					Options:     []discord.CommandOptionValue{pokemonOption("pokémon to unclaim")},
				},
				&discord.SubcommandOption{
					OptionName:  "submit",
					Description: "submit your drawing",
					Options: []discord.CommandOptionValue{
						pokemonOption("pokémon you drew"),
						&discord.AttachmentOption{
							OptionName:  "image",
							Description: "your drawing",
						},
						&discord.StringOption{
							OptionName:  "url",
							Description: "link to your drawing",
						},
					},
				},
				&discord.SubcommandOption{
					OptionName:  "view",
					Description: "see who claimed a pokémon",
					Options:     []discord.CommandOptionValue{pokemonOption("pokémon to look up")},
				},
				&discord.SubcommandOption{
					OptionName:  "list",
					Description: "list claims",
					Options: []discord.CommandOptionValue{
						&discord.UserOption{
							OptionName:  "user",
							Description: "whose claims to list",
						},
					},
				},
				&discord.SubcommandOption{
					OptionName:  "random",
					Description: "suggest an unclaimed pokémon",
				},
				&discord.SubcommandOption{
					OptionName:  "stats",
					Description: "event progress",
				},
				&discord.SubcommandOption{
					OptionName:  "approve",
					Description: "approve a submission",
					Options:     []discord.CommandOptionValue{pokemonOption("pokémon to approve")},
				},
				&discord.SubcommandOption{
					OptionName:  "deny",
					Description: "send a submission back",
					Options: []discord.CommandOptionValue{
						pokemonOption("pokémon to deny"),
						&discord.StringOption{
							OptionName:  "note",
							Description: "what needs changing",
						},
					},
				},
				&discord.SubcommandOption{
					OptionName:  "forceunclaim",
					Description: "remove someone's claim",
					Options:     []discord.CommandOptionValue{pokemonOption("pokémon to free")},
				},
			},
		},
	},
	"spawn": {
		{
			Name:        "spawnrate",
			Description: "pokétwo spawn chances",
			Options: []discord.CommandOption{
				&discord.SubcommandOption{
					OptionName:  "pokemon",
					Description: "chance of one pokémon spawning",
					Options: []discord.CommandOptionValue{
						&discord.StringOption{
							OptionName:   "name",
							Description:  "pokémon name or dex number",
							Required:     true,
							Autocomplete: true,
						},
						&discord.BooleanOption{
							OptionName:  "shinycharm",
							Description: "include the shiny charm boost",
						},
					},
				},
				&discord.SubcommandOption{
					OptionName:  "group",
					Description: "chance of any pokémon in a group spawning",
					Options: []discord.CommandOptionValue{
						&discord.StringOption{
							OptionName:  "kind",
							Description: "how to group pokémon",
							Required:    true,
							Choices: []discord.StringChoice{
								{Name: "region", Value: "region"},
								{Name: "type", Value: "type"},
								{Name: "rarity", Value: "rarity"},
							},
						},
						&discord.StringOption{
							OptionName:  "value",
							Description: "region, type or rarity to total",
							Required:    true,
						},
					},
				},
			},
		},
	},
	"resize": {
		{
			Name:        "resize",
			Description: "resize an image",
			Options: []discord.CommandOption{
				imageOption(),
				&discord.IntegerOption{
					OptionName:  "width",
					Description: "new width in pixels",
					Required:    true,
					Min:         option.NewInt(1),
					Max:         option.NewInt(4096),
				},
				&discord.IntegerOption{
					OptionName:  "height",
					Description: "new height in pixels",
					Required:    true,
					Min:         option.NewInt(1),
					Max:         option.NewInt(4096),
				},
				&discord.StringOption{
					OptionName:  "mode",
					Description: "how to handle a different aspect ratio",
					Choices: []discord.StringChoice{
						{Name: "fit", Value: "fit"},
						{Name: "fill", Value: "fill"},
						{Name: "stretch", Value: "stretch"},
					},
				},
				&discord.BooleanOption{
					OptionName:  "pixelated",
					Description: "keep hard pixel edges",
				},
			},
		},
		{
			Name:        "scale",
			Description: "scale an image by a percentage",
			Options: []discord.CommandOption{
				imageOption(),
				&discord.IntegerOption{
					OptionName:  "percent",
					Description: "new size as a percentage",
					Required:    true,
					Min:         option.NewInt(1),
					Max:         option.NewInt(1000),
				},
				&discord.BooleanOption{
					OptionName:  "pixelated",
					Description: "keep hard pixel edges",
				},
			},
		},
		{
			Name:        "emojify",
			Description: "fit an image into emoji size",
			Options:     []discord.CommandOption{imageOption()},
		},
		{
			Name:        "stickerify",
			Description: "fit an image into sticker size",
			Options:     []discord.CommandOption{imageOption()},
		},
	},
	"docs": {
		{
			Name:        "help",
			Description: "list commands",
			Options: []discord.CommandOption{
				&discord.StringOption{
					OptionName:  "command",
					Description: "command to describe",
				},
			},
		},
		{
			Name:        "docs",
			Description: "read the documentation",
			Options: []discord.CommandOption{
				&discord.StringOption{
					OptionName:   "topic",
					Description:  "topic to read",
					Required:     true,
					Autocomplete: true,
				},
				&discord.IntegerOption{
					OptionName:  "page",
					Description: "page to open at",
					Min:         option.NewInt(1),
				},
			},
		},
	},
	"misc": {
		{
			Name:        "ping",
			Description: "check the bot is alive",
		},
		{
			Name:        "avatar",
			Description: "show someone's avatar",
			Options: []discord.CommandOption{
				&discord.UserOption{
					OptionName:  "user",
					Description: "whose avatar to show",
				},
			},
		},
		{
			Name:        "coinflip",
			Description: "flip a coin",
		},
		{
			Name:        "roll",
			Description: "roll dice",
			Options: []discord.CommandOption{
				&discord.StringOption{
					OptionName:  "dice",
					Description: "dice to roll, like 2d6",
				},
			},
		},
		{
			Name:        "choose",
			Description: "pick one of several options",
			Options: []discord.CommandOption{
				&discord.StringOption{
					OptionName:  "options",
					Description: "comma separated options",
					Required:    true,
				},
			},
		},
		{
			Name:        "yeet",
			Description: "yeet someone",
			Options: []discord.CommandOption{
				&discord.UserOption{
					OptionName:  "user",
					Description: "who to yeet",
					Required:    true,
				},
			},
		},
		{
			Name:        "randompokemon",
			Description: "who's that pokémon?",
		},
	},
}

// All returns the commands of every enabled component, sorted by name.
func All(enabled func(component string) bool) []api.CreateCommandData {
	var out []api.CreateCommandData
	for component, cmds := range Commands {
		if enabled != nil && !enabled(component) {
			continue
		}
		out = append(out, cmds...)
	}
	slices.SortFunc(out, func(a, b api.CreateCommandData) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out
}

// Find returns the command with the given name.
func Find(name string) (api.CreateCommandData, bool) {
	for _, cmds := range Commands {
		for _, cmd := range cmds {
			if cmd.Name == name {
				return cmd, true
			}
		}
	}
	return api.CreateCommandData{}, false
}
