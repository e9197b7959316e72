package bots

import (
	"strings"
	"testing"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"yeetbot.dev/yeet/internal/docs"
	"yeetbot.dev/yeet/resource"
)

func TestDescribeCommand(t *testing.T) {
	cmd := api.CreateCommandData{
		Name:        "roll",
		Description: "roll dice",
		Options: []discord.CommandOption{
			&discord.StringOption{OptionName: "dice", Description: "dice to roll", Required: true},
			&discord.BooleanOption{OptionName: "loud", Description: "shout it"},
		},
	}
	out := describeCommand(cmd)
	assert.Contains(t, out, "## /roll\nroll dice\n")
	assert.Contains(t, out, "`/roll <dice> [loud]`")
	assert.Contains(t, out, "- **dice**: dice to roll")
}

func TestDescribeSubcommands(t *testing.T) {
	cmd, ok := resource.Find("afd")
	require.True(t, ok)
	out := describeCommand(cmd)
	assert.Contains(t, out, "`/afd claim <pokemon>`")
	assert.Contains(t, out, "`/afd stats`")
	assert.Contains(t, out, "`/afd submit <pokemon> [image] [url]`")
}

func TestHelpBook(t *testing.T) {
	cmds := resource.All(nil)
	book := docs.ParseBook(helpTopic, []byte(helpMarkdown(cmds)))
	require.Len(t, book.Pages, len(cmds)+1)
	assert.Equal(t, helpTopic, book.Pages[0].Title)
	for _, cmd := range cmds {
		assert.Contains(t, book.Pages[0].Body, "`/"+cmd.Name+"`")
	}
	assert.Equal(t, "/"+cmds[0].Name, book.Pages[1].Title)
}

func TestPageMessage(t *testing.T) {
	book := &docs.Book{Topic: "draw", Pages: []docs.Page{{Title: "one", Body: "a"}, {Title: "two", Body: "b"}}}

	msg, err := pageMessage(book, 0)
	require.NoError(t, err)
	require.NotNil(t, msg.Components)
	row := (*msg.Components)[0].(*discord.ActionRowComponent)
	prev := (*row)[0].(*discord.ButtonComponent)
	next := (*row)[1].(*discord.ButtonComponent)
	assert.True(t, prev.Disabled)
	assert.False(t, next.Disabled)
	assert.Equal(t, discord.ComponentID("docs:draw:1"), next.CustomID)
	assert.True(t, strings.HasSuffix((*msg.Embeds)[0].Footer.Text, "page 1 of 2"))

	_, err = pageMessage(book, 2)
	assert.ErrorIs(t, err, docs.ErrNoPage)

	single, err := pageMessage(&docs.Book{Topic: "x", Pages: []docs.Page{{Title: "only"}}}, 0)
	require.NoError(t, err)
	assert.Nil(t, single.Components)
}
