package bots

import (
	"errors"
	"strings"
	"sync"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/utils/json/option"
	"yeetbot.dev/yeet/internal/log"
)

// userError is shown to the user as is. Anything else is logged and shown
// with its trace id.
type userError struct {
	error
}

func userErr(err error) error {
	return userError{err}
}

func isUserError(err error, known ...error) bool {
	var ue userError
	if errors.As(err, &ue) {
		return true
	}
	for _, k := range known {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

func ephemeral(msg string) *api.InteractionResponseData {
	return &api.InteractionResponseData{
		Content:         option.NewNullableString(msg),
		Flags:           discord.EphemeralMessage,
		AllowedMentions: &api.AllowedMentions{},
	}
}

// commandError renders err for the user. Errors in known are sentinel domain
// errors and need no trace.
func commandError(err error, known ...error) *api.InteractionResponseData {
	if isUserError(err, known...) {
		return ephemeral(err.Error())
	}
	return log.InteractionResponse(log.ErrorQuick(err), "something went wrong, the error has been logged")
}

func respond(typ api.InteractionResponseType, data *api.InteractionResponseData) *api.InteractionResponse {
	return &api.InteractionResponse{Type: typ, Data: data}
}

func ephemeralReply(msg string) *api.InteractionResponse {
	return respond(api.MessageInteractionWithSource, ephemeral(msg))
}

type componentFunc func(ev *discord.InteractionEvent, args []string) *api.InteractionResponse

type autocompleteFunc func(ev *discord.InteractionEvent, focused discord.AutocompleteOption) api.AutocompleteChoices

// interactionRouter handles the interactions cmdroute does not: message
// components and modals, routed on the first field of a custom id such as
// "draw:<view>:<action>", and autocompletion, routed on command name.
type interactionRouter struct {
	mut          sync.RWMutex
	components   map[string]componentFunc
	autocomplete map[string]autocompleteFunc
}

func newInteractionRouter() *interactionRouter {
	return &interactionRouter{
		components:   map[string]componentFunc{},
		autocomplete: map[string]autocompleteFunc{},
	}
}

func (r *interactionRouter) Component(prefix string, f componentFunc) {
	r.mut.Lock()
	defer r.mut.Unlock()
	r.components[prefix] = f
}

func (r *interactionRouter) Autocomplete(command string, f autocompleteFunc) {
	r.mut.Lock()
	defer r.mut.Unlock()
	r.autocomplete[command] = f
}

func customID(parts ...string) discord.ComponentID {
	return discord.ComponentID(strings.Join(parts, ":"))
}

func (r *interactionRouter) HandleInteraction(ev *discord.InteractionEvent) *api.InteractionResponse {
	var id discord.ComponentID
	switch data := ev.Data.(type) {
	case *discord.ButtonInteraction:
		id = data.CustomID
	case *discord.StringSelectInteraction:
		id = data.CustomID
	case *discord.ModalInteraction:
		id = data.CustomID
	case *discord.AutocompleteInteraction:
		return r.handleAutocomplete(ev, data)
	default:
		return nil
	}

	parts := strings.Split(string(id), ":")
	r.mut.RLock()
	f, ok := r.components[parts[0]]
	r.mut.RUnlock()
	if !ok {
		log.Debug("no handler for component %s", id)
		return nil
	}
	return f(ev, parts[1:])
}

func focusedOption(opts []discord.AutocompleteOption) (discord.AutocompleteOption, bool) {
	for _, o := range opts {
		if o.Focused {
			return o, true
		}
		if f, ok := focusedOption(o.Options); ok {
			return f, true
		}
	}
	return discord.AutocompleteOption{}, false
}

func (r *interactionRouter) handleAutocomplete(ev *discord.InteractionEvent, data *discord.AutocompleteInteraction) *api.InteractionResponse {
	r.mut.RLock()
	f, ok := r.autocomplete[data.Name]
	r.mut.RUnlock()
	if !ok {
		return nil
	}
	focused, ok := focusedOption(data.Options)
	if !ok {
		return nil
	}
	return &api.InteractionResponse{
		Type: api.AutocompleteResult,
		Data: &api.InteractionResponseData{
			Choices: f(ev, focused),
		},
	}
}

// textInputValue reads what the user typed into a modal text input.
func textInputValue(c discord.Component) string {
	input, ok := c.(*discord.TextInputComponent)
	if !ok {
		return ""
	}
	return strings.TrimSpace(input.Value)
}

func stringChoices(values []string) api.AutocompleteStringChoices {
	choices := make(api.AutocompleteStringChoices, 0, len(values))
	for _, v := range values {
		choices = append(choices, discord.StringChoice{Name: v, Value: v})
	}
	return choices
}

// option helpers for optional command options, which Options.Unmarshal
// cannot leave unset.

func optString(opts discord.CommandInteractionOptions, name string) string {
	return strings.TrimSpace(opts.Find(name).String())
}

func optInt(opts discord.CommandInteractionOptions, name string, def int) int {
	v, err := opts.Find(name).IntValue()
	if err != nil {
		return def
	}
	return int(v)
}

func optBool(opts discord.CommandInteractionOptions, name string) bool {
	v, err := opts.Find(name).BoolValue()
	return err == nil && v
}

func optSnowflake(opts discord.CommandInteractionOptions, name string) discord.Snowflake {
	v, err := opts.Find(name).SnowflakeValue()
	if err != nil {
		return 0
	}
	return v
}
