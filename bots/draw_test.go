package bots

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"yeetbot.dev/yeet/internal/draw"
)

func memLevelDB(t *testing.T) *leveldb.DB {
	t.Helper()
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestView(t *testing.T, size int) *drawView {
	t.Helper()
	b, err := draw.NewBoard(size, size, "")
	require.NoError(t, err)
	return &drawView{key: "123", owner: 1, board: b}
}

func TestPalette(t *testing.T) {
	db := memLevelDB(t)
	user := discord.UserID(42)

	got, err := loadPalette(db, user)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = addToPalette(db, user, "<:pog:123456789012345678>")
	require.NoError(t, err)
	assert.Equal(t, []draw.Colour{"<:pog:123456789012345678>"}, got)

	// defaults and repeats are not stored again
	got, err = addToPalette(db, user, draw.Red)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	got, err = addToPalette(db, user, "<:pog:123456789012345678>")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = loadPalette(db, user)
	require.NoError(t, err)
	assert.Equal(t, []draw.Colour{"<:pog:123456789012345678>"}, got)

	other, err := loadPalette(db, 43)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestPaletteFull(t *testing.T) {
	db := memLevelDB(t)
	emoji := []rune("😀😁😂😃😄😅😆😇😈😉😊😋😌😍😎😏")
	for _, e := range emoji[:maxCustomColours] {
		_, err := addToPalette(db, 1, draw.Colour(string(e)))
		require.NoError(t, err)
	}
	_, err := addToPalette(db, 1, draw.Colour(string(emoji[maxCustomColours])))
	assert.ErrorIs(t, err, errPaletteFull)
}

func TestDrawViewActions(t *testing.T) {
	v := newTestView(t, 5)
	b := v.board

	_, err := v.act("down", nil)
	require.NoError(t, err)
	_, err = v.act("right", nil)
	require.NoError(t, err)
	assert.Equal(t, draw.Point{Row: 1, Col: 1}, b.Cursor)

	_, err = v.act("colour", []string{string(draw.Blue)})
	require.NoError(t, err)
	_, err = v.act("tool", []string{"brush"})
	require.NoError(t, err)
	_, err = v.act("use", nil)
	require.NoError(t, err)
	assert.Equal(t, draw.Blue, b.At(draw.Point{Row: 1, Col: 1}))

	_, err = v.act("undo", nil)
	require.NoError(t, err)
	assert.NotEqual(t, draw.Blue, b.At(draw.Point{Row: 1, Col: 1}))
	_, err = v.act("redo", nil)
	require.NoError(t, err)
	assert.Equal(t, draw.Blue, b.At(draw.Point{Row: 1, Col: 1}))

	_, err = v.act("select", nil)
	require.NoError(t, err)
	assert.True(t, b.Selecting)

	_, err = v.act("explode", nil)
	assert.Error(t, err)
}

func TestDrawViewRejectsLongBoards(t *testing.T) {
	v := newTestView(t, draw.MaxSize)
	long := draw.Colour("<a:" + strings.Repeat("x", 32) + ":123456789012345678>")
	v.board.SetColour(long)
	v.board.SetTool(draw.Clear{})
	v.board.Background = long

	_, err := v.act("use", nil)
	assert.ErrorIs(t, err, errTooLong)
	assert.True(t, renderFits(v.board))
}

func TestDrawViewComponents(t *testing.T) {
	v := newTestView(t, 5)
	v.palette = []draw.Colour{"<:pog:123456789012345678>"}

	rows := v.components()
	require.Len(t, rows, 5)

	colours := (*rows[0].(*discord.ActionRowComponent))[0].(*discord.StringSelectComponent)
	assert.Len(t, colours.Options, len(draw.DefaultPalette)+1)
	assert.Equal(t, discord.ComponentID("draw:123:colour"), colours.CustomID)
	custom := colours.Options[len(colours.Options)-1]
	assert.Equal(t, "pog", custom.Label)
	assert.Equal(t, discord.EmojiID(123456789012345678), custom.Emoji.ID)

	for _, row := range rows[2:] {
		assert.Len(t, *row.(*discord.ActionRowComponent), 5)
	}

	embed := v.embed("")
	assert.Equal(t, v.board.Render(), embed.Description)
	assert.Nil(t, embed.Footer)
}

type fakeEditor struct {
	mut   sync.Mutex
	edits []api.EditInteractionResponseData
	token string
}

func (f *fakeEditor) EditInteractionResponse(_ discord.AppID, token string, data api.EditInteractionResponseData) (*discord.Message, error) {
	f.mut.Lock()
	defer f.mut.Unlock()
	f.edits = append(f.edits, data)
	f.token = token
	return &discord.Message{}, nil
}

func newTestViews(t *testing.T) (*drawViews, *fakeEditor, *drawView) {
	t.Helper()
	editor := &fakeEditor{}
	vs := &drawViews{
		views:   map[string]*drawView{},
		timeout: time.Hour,
		client:  editor,
		db:      memLevelDB(t),
	}
	v := newTestView(t, 5)
	v.token = "first"
	vs.add(v)
	t.Cleanup(func() { v.timer.Stop() })
	return vs, editor, v
}

func press(user discord.UserID, token string) *discord.InteractionEvent {
	return &discord.InteractionEvent{
		User:  &discord.User{ID: user},
		Token: token,
		Data:  &discord.ButtonInteraction{},
	}
}

func replyText(t *testing.T, resp *api.InteractionResponse) string {
	t.Helper()
	require.NotNil(t, resp)
	require.NotNil(t, resp.Data)
	require.NotNil(t, resp.Data.Content)
	return resp.Data.Content.Val
}

func TestDrawHandleRefusesOtherUsers(t *testing.T) {
	vs, _, v := newTestViews(t)

	resp := vs.handle(press(2, "other"), []string{v.key, "right"})
	assert.Equal(t, api.MessageInteractionWithSource, resp.Type)
	assert.Equal(t, errNotYourBoard.Error(), replyText(t, resp))
	assert.Equal(t, draw.Point{Row: 2, Col: 2}, v.board.Cursor)
	assert.Equal(t, "first", v.token)
}

func TestDrawHandleUnknownBoard(t *testing.T) {
	vs, _, _ := newTestViews(t)

	resp := vs.handle(press(1, "t"), []string{"999", "right"})
	assert.Equal(t, drawExpired, replyText(t, resp))
	assert.Nil(t, vs.handle(press(1, "t"), []string{"999"}))
}

func TestDrawHandleMovesAndKeepsToken(t *testing.T) {
	vs, _, v := newTestViews(t)

	resp := vs.handle(press(1, "second"), []string{v.key, "right"})
	require.NotNil(t, resp)
	assert.Equal(t, api.UpdateMessage, resp.Type)
	assert.Equal(t, draw.Point{Row: 2, Col: 3}, v.board.Cursor)
	assert.Equal(t, "second", v.token)
	require.NotNil(t, resp.Data.Components)
	assert.Len(t, *resp.Data.Components, 5)
}

func TestDrawHandleStop(t *testing.T) {
	vs, editor, v := newTestViews(t)

	resp := vs.handle(press(1, "second"), []string{v.key, "stop"})
	assert.Equal(t, api.UpdateMessage, resp.Type)
	require.NotNil(t, resp.Data.Components)
	assert.Empty(t, *resp.Data.Components)

	_, ok := vs.get(v.key)
	assert.False(t, ok)
	assert.Equal(t, drawExpired, replyText(t, vs.handle(press(1, "third"), []string{v.key, "right"})))

	vs.expire(v)
	assert.Empty(t, editor.edits)
}

func TestDrawExpireStripsComponents(t *testing.T) {
	vs, editor, v := newTestViews(t)

	vs.expire(v)

	require.Len(t, editor.edits, 1)
	assert.Equal(t, "first", editor.token)
	edit := editor.edits[0]
	require.NotNil(t, edit.Components)
	assert.Empty(t, *edit.Components)
	require.NotNil(t, edit.Embeds)
	require.NotNil(t, (*edit.Embeds)[0].Footer)
	assert.Equal(t, "timed out", (*edit.Embeds)[0].Footer.Text)

	assert.Equal(t, drawExpired, replyText(t, vs.handle(press(1, "late"), []string{v.key, "right"})))
	vs.expire(v)
	assert.Len(t, editor.edits, 1)
}

func TestDrawHandleAddColour(t *testing.T) {
	vs, _, v := newTestViews(t)

	resp := vs.handle(press(1, "second"), []string{v.key, "addcolour"})
	assert.Equal(t, api.ModalResponse, resp.Type)

	ev := &discord.InteractionEvent{
		User:  &discord.User{ID: 1},
		Token: "modal",
		Data: &discord.ModalInteraction{
			CustomID: v.id("colourmodal"),
			Components: discord.ContainerComponents{
				&discord.ActionRowComponent{
					&discord.TextInputComponent{CustomID: "colour", Value: " 😀 "},
				},
			},
		},
	}
	resp = vs.handle(ev, []string{v.key, "colourmodal"})
	assert.Equal(t, api.UpdateMessage, resp.Type)
	assert.Equal(t, draw.Colour("😀"), v.board.Colour)
	assert.Equal(t, []draw.Colour{"😀"}, v.palette)

	stored, err := loadPalette(vs.db, 1)
	require.NoError(t, err)
	assert.Equal(t, []draw.Colour{"😀"}, stored)

	ev.Data.(*discord.ModalInteraction).Components = discord.ContainerComponents{
		&discord.ActionRowComponent{
			&discord.TextInputComponent{CustomID: "colour", Value: "中"},
		},
	}
	resp = vs.handle(ev, []string{v.key, "colourmodal"})
	assert.Equal(t, draw.ErrInvalidColour.Error(), replyText(t, resp))
}

func TestTextInputValue(t *testing.T) {
	assert.Equal(t, "🟦", textInputValue(&discord.TextInputComponent{Value: "  🟦\n"}))
	assert.Empty(t, textInputValue(&discord.ButtonComponent{}))
	assert.Empty(t, textInputValue(nil))
}
