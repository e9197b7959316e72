package bots

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/api/cmdroute"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/state"
	"github.com/diamondburned/arikawa/v3/utils/json/option"
	"github.com/syndtr/goleveldb/leveldb"
	"yeetbot.dev/yeet/internal/draw"
	"yeetbot.dev/yeet/internal/gist"
	"yeetbot.dev/yeet/internal/log"
	"yeetbot.dev/yeet/internal/stats"
)

type DrawConfig struct {
	Timeout     Duration          `toml:"timeout"`
	MaxHistory  int               `toml:"max_history"`
	StatChannel discord.ChannelID `toml:"stat_channel"`
}

const (
	defaultDrawTimeout = 10 * time.Minute
	maxCustomColours   = 15
	embedLimit         = 4096
	drawFile           = "drawing.txt"
)

var (
	errNotYourBoard = errors.New("this isn't your board, start your own with /draw")
	errTooLong      = errors.New("the board would be too long to show with those emoji")
	errPaletteFull  = fmt.Errorf("you can only keep %d custom colours", maxCustomColours)
)

var colourNames = map[draw.Colour]string{
	draw.Red:    "Red",
	draw.Orange: "Orange",
	draw.Yellow: "Yellow",
	draw.Green:  "Green",
	draw.Blue:   "Blue",
	draw.Purple: "Purple",
	draw.Brown:  "Brown",
	draw.Black:  "Black",
	draw.White:  "White",
}

func paletteKey(user discord.UserID) []byte {
	return []byte("PALETTE_" + user.String())
}

func loadPalette(db *leveldb.DB, user discord.UserID) ([]draw.Colour, error) {
	raw, err := db.Get(paletteKey(user), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	var out []draw.Colour
	for _, line := range strings.Split(string(raw), "\n") {
		if line != "" {
			out = append(out, draw.Colour(line))
		}
	}
	return out, nil
}

// addToPalette stores c for user unless it is already available.
func addToPalette(db *leveldb.DB, user discord.UserID, c draw.Colour) ([]draw.Colour, error) {
	palette, err := loadPalette(db, user)
	if err != nil {
		return nil, err
	}
	for _, have := range append(palette, draw.DefaultPalette...) {
		if have == c {
			return palette, nil
		}
	}
	if len(palette) >= maxCustomColours {
		return palette, errPaletteFull
	}
	palette = append(palette, c)
	lines := make([]string, len(palette))
	for i, p := range palette {
		lines[i] = string(p)
	}
	return palette, db.Put(paletteKey(user), []byte(strings.Join(lines, "\n")), nil)
}

func colourEmoji(c draw.Colour) *discord.ComponentEmoji {
	name, id, animated := c.EmojiParts()
	e := &discord.ComponentEmoji{Name: name, Animated: animated}
	if id != "" {
		if n, err := strconv.ParseUint(id, 10, 64); err == nil {
			e.ID = discord.EmojiID(n)
		}
	}
	return e
}

func colourLabel(c draw.Colour, i int) string {
	if name, ok := colourNames[c]; ok {
		return name
	}
	if name, id, _ := c.EmojiParts(); id != "" {
		return name
	}
	return fmt.Sprintf("Custom %d", i+1)
}

// drawView is a board attached to one message. It belongs to the user who
// ran /draw and expires after a period without input.
type drawView struct {
	mut     sync.Mutex
	key     string
	owner   discord.UserID
	board   *draw.Board
	palette []draw.Colour
	appID   discord.AppID
	token   string
	timer   *time.Timer
	closed  bool
}

type interactionEditor interface {
	EditInteractionResponse(appID discord.AppID, token string, data api.EditInteractionResponseData) (*discord.Message, error)
}

type drawViews struct {
	mut     sync.Mutex
	views   map[string]*drawView
	timeout time.Duration
	client  interactionEditor
	db      *leveldb.DB
	onSave  func()
}

func (vs *drawViews) add(v *drawView) {
	vs.mut.Lock()
	defer vs.mut.Unlock()
	vs.views[v.key] = v
	v.timer = time.AfterFunc(vs.timeout, func() { vs.expire(v) })
}

func (vs *drawViews) get(key string) (*drawView, bool) {
	vs.mut.Lock()
	defer vs.mut.Unlock()
	v, ok := vs.views[key]
	return v, ok
}

func (vs *drawViews) remove(v *drawView) {
	vs.mut.Lock()
	defer vs.mut.Unlock()
	delete(vs.views, v.key)
	v.timer.Stop()
}

// expire strips the controls from the message so it reads as finished.
func (vs *drawViews) expire(v *drawView) {
	vs.remove(v)
	v.mut.Lock()
	defer v.mut.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	_, err := vs.client.EditInteractionResponse(v.appID, v.token, api.EditInteractionResponseData{
		Embeds:     &[]discord.Embed{v.embed("timed out")},
		Components: &discord.ContainerComponents{},
	})
	log.Assert(err)
}

func (v *drawView) id(action string) discord.ComponentID {
	return customID("draw", v.key, action)
}

func (v *drawView) embed(status string) discord.Embed {
	b := v.board
	footer := status
	if b.Selecting {
		sel := b.Selection()
		footer = strings.TrimSpace(fmt.Sprintf("selecting %d×%d %s", sel.Max.Col-sel.Min.Col+1, sel.Max.Row-sel.Min.Row+1, status))
	}
	e := discord.Embed{
		Description: b.Render(),
		Fields: []discord.EmbedField{
			{Name: "Tool", Value: b.Tool.Emoji() + " " + b.Tool.Name(), Inline: true},
			{Name: "Colour", Value: string(b.Colour), Inline: true},
			{Name: "Cursor", Value: fmt.Sprintf("%d, %d", b.Cursor.Col+1, b.Cursor.Row+1), Inline: true},
		},
	}
	if footer != "" {
		e.Footer = &discord.EmbedFooter{Text: footer}
	}
	return e
}

func (v *drawView) button(action, emoji string, style discord.ButtonComponentStyle, disabled bool) *discord.ButtonComponent {
	return &discord.ButtonComponent{
		CustomID: v.id(action),
		Style:    style,
		Emoji:    &discord.ComponentEmoji{Name: emoji},
		Disabled: disabled,
	}
}

func (v *drawView) components() discord.ContainerComponents {
	b := v.board
	grey := discord.SecondaryButtonStyle()

	colours := make([]discord.SelectOption, 0, len(draw.DefaultPalette)+len(v.palette))
	for i, c := range append(append([]draw.Colour{}, draw.DefaultPalette...), v.palette...) {
		colours = append(colours, discord.SelectOption{
			Label:   colourLabel(c, i-len(draw.DefaultPalette)),
			Value:   string(c),
			Emoji:   colourEmoji(c),
			Default: c == b.Colour,
		})
	}
	tools := make([]discord.SelectOption, 0, len(draw.Tools))
	for _, t := range draw.Tools {
		tools = append(tools, discord.SelectOption{
			Label:   t.Name(),
			Value:   t.Name(),
			Emoji:   &discord.ComponentEmoji{Name: t.Emoji()},
			Default: t.Name() == b.Tool.Name(),
		})
	}
	selectStyle := grey
	if b.Selecting {
		selectStyle = discord.SuccessButtonStyle()
	}

	return discord.ContainerComponents{
		&discord.ActionRowComponent{
			&discord.StringSelectComponent{CustomID: v.id("colour"), Options: colours, Placeholder: "colour"},
		},
		&discord.ActionRowComponent{
			&discord.StringSelectComponent{CustomID: v.id("tool"), Options: tools, Placeholder: "tool"},
		},
		&discord.ActionRowComponent{
			v.button("upleft", "↖️", grey, false),
			v.button("up", "⬆️", grey, false),
			v.button("upright", "↗️", grey, false),
			v.button("undo", "↩️", discord.PrimaryButtonStyle(), !b.CanUndo()),
			v.button("redo", "↪️", discord.PrimaryButtonStyle(), !b.CanRedo()),
		},
		&discord.ActionRowComponent{
			v.button("left", "⬅️", grey, false),
			v.button("use", b.Tool.Emoji(), discord.SuccessButtonStyle(), false),
			v.button("right", "➡️", grey, false),
			v.button("select", "🔲", selectStyle, false),
			v.button("addcolour", "➕", discord.PrimaryButtonStyle(), false),
		},
		&discord.ActionRowComponent{
			v.button("downleft", "↙️", grey, false),
			v.button("down", "⬇️", grey, false),
			v.button("downright", "↘️", grey, false),
			v.button("save", "💾", discord.PrimaryButtonStyle(), gists == nil),
			v.button("stop", "⏹️", discord.DangerButtonStyle(), false),
		},
	}
}

func (v *drawView) message(status string) *api.InteractionResponseData {
	components := v.components()
	return &api.InteractionResponseData{
		Embeds:     &[]discord.Embed{v.embed(status)},
		Components: &components,
	}
}

var moves = map[string]draw.Direction{
	"up":        draw.Up,
	"down":      draw.Down,
	"left":      draw.Left,
	"right":     draw.Right,
	"upleft":    draw.UpLeft,
	"upright":   draw.UpRight,
	"downleft":  draw.DownLeft,
	"downright": draw.DownRight,
}

func renderFits(b *draw.Board) bool {
	return utf8.RuneCountInString(b.Render()) <= embedLimit
}

// act applies a button or select action to the board and returns a status
// line for the footer.
func (v *drawView) act(action string, values []string) (string, error) {
	b := v.board
	if d, ok := moves[action]; ok {
		b.Move(d)
		return "", nil
	}
	switch action {
	case "use":
		if !b.UseTool() {
			return "", nil
		}
		if !renderFits(b) {
			b.Undo()
			return "", errTooLong
		}
	case "undo":
		b.Undo()
	case "redo":
		if b.Redo() && !renderFits(b) {
			b.Undo()
			return "", errTooLong
		}
	case "select":
		b.ToggleSelect()
	case "colour":
		if len(values) > 0 {
			b.SetColour(draw.Colour(values[0]))
		}
	case "tool":
		if len(values) > 0 {
			if t, ok := draw.ToolByName(values[0]); ok {
				b.SetTool(t)
			}
		}
	default:
		return "", fmt.Errorf("unknown draw action %q", action)
	}
	return "", nil
}

func setupDraw(s *state.State, r *cmdroute.Router, ir *interactionRouter) error {
	cfg := config.Bot.Draw
	drawStat := &stats.Stat{
		Name:      "Drawings",
		Client:    s.Client,
		ChannelID: cfg.StatChannel,
		LevelDB:   lvldb,
		Delay:     time.Second * 5,
		OnError:   func(err error) { log.ErrorQuick(err) },
	}
	if err := drawStat.Initialise(); err != nil {
		return err
	}
	views := &drawViews{
		views:   map[string]*drawView{},
		timeout: cfg.Timeout.Or(defaultDrawTimeout),
		client:  s.Client,
		db:      lvldb,
		onSave:  func() { drawStat.Increment(1) },
	}
	known := []error{draw.ErrBadSize, draw.ErrBadBoard, draw.ErrInvalidColour, errTooLong, errPaletteFull, gist.ErrFileNotFound}

	r.AddFunc("draw", func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
		var background draw.Colour
		if bg := optString(data.Options, "background"); bg != "" {
			c, err := draw.ParseColour(bg)
			if err != nil {
				return commandError(err, known...)
			}
			background = c
		}

		var board *draw.Board
		var err error
		if id := optString(data.Options, "gist"); id != "" {
			if gists == nil {
				return ephemeral("loading drawings is not set up")
			}
			var content string
			content, err = gists.Read(ctx, id, drawFile)
			if errors.Is(err, gist.ErrFileNotFound) {
				content, err = gists.Read(ctx, id, "")
			}
			if err != nil {
				return commandError(err, known...)
			}
			board, err = draw.Parse(content, background)
		} else {
			height := optInt(data.Options, "height", draw.DefaultSize)
			width := optInt(data.Options, "width", height)
			board, err = draw.NewBoard(height, width, background)
		}
		if err != nil {
			return commandError(err, known...)
		}
		if cfg.MaxHistory > 0 {
			board.MaxHistory = cfg.MaxHistory
		}
		if !renderFits(board) {
			return commandError(errTooLong, known...)
		}

		owner := data.Event.SenderID()
		palette, err := loadPalette(views.db, owner)
		if err != nil {
			return commandError(err)
		}
		v := &drawView{
			key:     data.Event.ID.String(),
			owner:   owner,
			board:   board,
			palette: palette,
			appID:   data.Event.AppID,
			token:   data.Event.Token,
		}
		views.add(v)
		return v.message("")
	})

	ir.Component("draw", views.handle)
	return nil
}

const drawExpired = "this board has expired, start a new one with /draw"

// handle answers a press on one of a board's controls. args are the board key
// and the action.
func (vs *drawViews) handle(ev *discord.InteractionEvent, args []string) *api.InteractionResponse {
	if len(args) != 2 {
		return nil
	}
	v, ok := vs.get(args[0])
	if !ok {
		return ephemeralReply(drawExpired)
	}
	if ev.SenderID() != v.owner {
		return ephemeralReply(errNotYourBoard.Error())
	}
	v.timer.Reset(vs.timeout)

	v.mut.Lock()
	defer v.mut.Unlock()
	if v.closed {
		return ephemeralReply(drawExpired)
	}
	action := args[1]

	switch action {
	case "stop":
		v.closed = true
		vs.remove(v)
		return respond(api.UpdateMessage, &api.InteractionResponseData{
			Embeds:     &[]discord.Embed{v.embed("finished")},
			Components: &discord.ContainerComponents{},
		})

	case "addcolour":
		return respond(api.ModalResponse, &api.InteractionResponseData{
			CustomID: option.NewNullableString(string(v.id("colourmodal"))),
			Title:    option.NewNullableString("Add a colour"),
			Components: discord.ComponentsPtr(&discord.TextInputComponent{
				CustomID:    "colour",
				Style:       discord.TextInputShortStyle,
				Label:       "emoji",
				Placeholder: "🟦 or a custom one",
				Required:    true,
			}),
		})

	case "colourmodal":
		data, ok := ev.Data.(*discord.ModalInteraction)
		if !ok {
			return nil
		}
		c, err := draw.ParseColour(textInputValue(data.Components.Find("colour")))
		if err != nil {
			return ephemeralReply(err.Error())
		}
		palette, err := addToPalette(vs.db, v.owner, c)
		if errors.Is(err, errPaletteFull) {
			return ephemeralReply(err.Error())
		} else if err != nil {
			return respond(api.MessageInteractionWithSource, commandError(err))
		}
		v.palette = palette
		v.board.SetColour(c)
		v.token = ev.Token
		return respond(api.UpdateMessage, v.message(""))

	case "save":
		if gists == nil {
			return ephemeralReply("saving drawings is not set up")
		}
		content := v.board.Export()
		name := "someone"
		if u := ev.Sender(); u != nil {
			name = u.Username
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			msg := ""
			g, err := gists.Create(ctx, "Drawing by "+name, gist.File{Name: drawFile, Content: content})
			if ok, _ := log.Assert(err); ok {
				msg = "could not save the drawing, the error has been logged"
			} else {
				if vs.onSave != nil {
					vs.onSave()
				}
				msg = fmt.Sprintf("saved to %s, load it again with `/draw gist:%s`", g.URL, g.ID)
			}
			_, err = vs.client.EditInteractionResponse(ev.AppID, ev.Token, api.EditInteractionResponseData{
				Content: option.NewNullableString(msg),
			})
			log.Assert(err)
		}()
		return ephemeralReply("saving…")
	}

	var values []string
	if sel, ok := ev.Data.(*discord.StringSelectInteraction); ok {
		values = sel.Values
	}
	status, err := v.act(action, values)
	if err != nil {
		if errors.Is(err, errTooLong) {
			return ephemeralReply(err.Error())
		}
		return respond(api.MessageInteractionWithSource, commandError(err))
	}
	v.token = ev.Token
	return respond(api.UpdateMessage, v.message(status))
}
