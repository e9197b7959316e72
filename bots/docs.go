package bots

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/api/cmdroute"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/state"
	"yeetbot.dev/yeet/internal/docs"
	"yeetbot.dev/yeet/resource"
)

type DocsConfig struct {
	Remote map[string]string `toml:"remote"`
	TTL    Duration          `toml:"ttl"`
}

const (
	helpTopic        = "help"
	docsFetchTimeout = 10 * time.Second
)

type optionInfo struct {
	name, description string
	required          bool
	subcommand        bool
	sub               []optionInfo
}

func describeOption(o any) optionInfo {
	switch o := o.(type) {
	case *discord.SubcommandGroupOption:
		info := optionInfo{name: o.OptionName, description: o.Description, subcommand: true}
		for _, s := range o.Subcommands {
			info.sub = append(info.sub, describeOption(s))
		}
		return info
	case *discord.SubcommandOption:
		info := optionInfo{name: o.OptionName, description: o.Description, subcommand: true}
		for _, s := range o.Options {
			info.sub = append(info.sub, describeOption(s))
		}
		return info
	case *discord.StringOption:
		return optionInfo{o.OptionName, o.Description, o.Required, false, nil}
	case *discord.IntegerOption:
		return optionInfo{o.OptionName, o.Description, o.Required, false, nil}
	case *discord.NumberOption:
		return optionInfo{o.OptionName, o.Description, o.Required, false, nil}
	case *discord.BooleanOption:
		return optionInfo{o.OptionName, o.Description, o.Required, false, nil}
	case *discord.UserOption:
		return optionInfo{o.OptionName, o.Description, o.Required, false, nil}
	case *discord.ChannelOption:
		return optionInfo{o.OptionName, o.Description, o.Required, false, nil}
	case *discord.RoleOption:
		return optionInfo{o.OptionName, o.Description, o.Required, false, nil}
	case *discord.AttachmentOption:
		return optionInfo{o.OptionName, o.Description, o.Required, false, nil}
	}
	return optionInfo{name: "?"}
}

func usage(prefix string, opts []optionInfo) string {
	var sb strings.Builder
	sb.WriteString("`/" + prefix)
	for _, o := range opts {
		if o.required {
			fmt.Fprintf(&sb, " <%s>", o.name)
		} else {
			fmt.Fprintf(&sb, " [%s]", o.name)
		}
	}
	sb.WriteString("`")
	return sb.String()
}

// describeCommand writes a markdown description of a command and its
// options, listing each subcommand on its own line.
func describeCommand(cmd api.CreateCommandData) string {
	var opts []optionInfo
	for _, o := range cmd.Options {
		opts = append(opts, describeOption(o))
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## /%s\n%s\n", cmd.Name, cmd.Description)

	if len(opts) == 0 || !opts[0].subcommand {
		sb.WriteString(usage(cmd.Name, opts) + "\n")
		for _, o := range opts {
			fmt.Fprintf(&sb, "- **%s**: %s\n", o.name, o.description)
		}
		return sb.String()
	}
	for _, o := range opts {
		fmt.Fprintf(&sb, "- %s %s\n", usage(cmd.Name+" "+o.name, o.sub), o.description)
	}
	return sb.String()
}

// helpMarkdown lists every command, one section per command.
func helpMarkdown(cmds []api.CreateCommandData) string {
	var sb strings.Builder
	sb.WriteString("Every command yeet knows, use `/help command:<name>` for details.\n\n")
	for _, cmd := range cmds {
		fmt.Fprintf(&sb, "- `/%s` %s\n", cmd.Name, cmd.Description)
	}
	for _, cmd := range cmds {
		sb.WriteString("\n" + describeCommand(cmd))
	}
	return sb.String()
}

// pageMessage renders page n of a book with buttons to its neighbours.
func pageMessage(book *docs.Book, n int) (*api.InteractionResponseData, error) {
	page, err := book.Page(n)
	if err != nil {
		return nil, err
	}
	embed := discord.Embed{
		Title:       page.Title,
		Description: page.Body,
		Footer:      &discord.EmbedFooter{Text: fmt.Sprintf("%s · page %d of %d", book.Topic, n+1, len(book.Pages))},
	}
	data := &api.InteractionResponseData{Embeds: &[]discord.Embed{embed}}
	if len(book.Pages) > 1 {
		components := discord.ContainerComponents{
			&discord.ActionRowComponent{
				&discord.ButtonComponent{
					CustomID: customID("docs", book.Topic, strconv.Itoa(n-1)),
					Style:    discord.SecondaryButtonStyle(),
					Emoji:    &discord.ComponentEmoji{Name: "◀️"},
					Disabled: n == 0,
				},
				&discord.ButtonComponent{
					CustomID: customID("docs", book.Topic, strconv.Itoa(n+1)),
					Style:    discord.SecondaryButtonStyle(),
					Emoji:    &discord.ComponentEmoji{Name: "▶️"},
					Disabled: n >= len(book.Pages)-1,
				},
			},
		}
		data.Components = &components
	}
	return data, nil
}

func setupDocs(s *state.State, r *cmdroute.Router, ir *interactionRouter) error {
	books, err := docs.LoadBooks(resource.Docs, "docs")
	if err != nil {
		return err
	}
	cmds := resource.All(config.Components.IsEnabled)
	books[helpTopic] = docs.ParseBook(helpTopic, []byte(helpMarkdown(cmds)))
	library := docs.NewLibrary(books, config.Bot.Docs.Remote, lvldb)
	library.TTL = config.Bot.Docs.TTL.Or(docs.DefaultTTL)
	library.HTTP = &http.Client{Timeout: docsFetchTimeout}
	known := []error{docs.ErrUnknownTopic, docs.ErrNoPage}

	r.AddFunc("help", func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
		if name := strings.TrimPrefix(optString(data.Options, "command"), "/"); name != "" {
			cmd, ok := resource.Find(strings.ToLower(name))
			if !ok {
				return ephemeral("there is no command called /" + name)
			}
			return &api.InteractionResponseData{
				Embeds: &[]discord.Embed{{Description: describeCommand(cmd)}},
			}
		}
		msg, err := pageMessage(books[helpTopic], 0)
		if err != nil {
			return commandError(err, known...)
		}
		return msg
	})

	r.AddFunc("docs", func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
		book, err := library.Get(ctx, optString(data.Options, "topic"))
		if err != nil {
			return commandError(err, known...)
		}
		msg, err := pageMessage(book, optInt(data.Options, "page", 1)-1)
		if err != nil {
			return commandError(err, known...)
		}
		return msg
	})

	ir.Autocomplete("docs", func(ev *discord.InteractionEvent, focused discord.AutocompleteOption) api.AutocompleteChoices {
		return stringChoices(library.Search(focused.String(), 25))
	})

	ir.Component("docs", func(ev *discord.InteractionEvent, args []string) *api.InteractionResponse {
		if len(args) != 2 {
			return nil
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), docsFetchTimeout)
		defer cancel()
		book, err := library.Get(ctx, args[0])
		if err != nil {
			return respond(api.MessageInteractionWithSource, commandError(err, known...))
		}
		msg, err := pageMessage(book, n)
		if err != nil {
			return respond(api.MessageInteractionWithSource, commandError(err, known...))
		}
		return respond(api.UpdateMessage, msg)
	})
	return nil
}
