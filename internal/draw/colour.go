package draw

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Colour is a single board cell, rendered as an emoji. Custom server emoji
// are kept in their <:name:id> form.
type Colour string

const (
	Red    Colour = "🟥"
	Orange Colour = "🟧"
	Yellow Colour = "🟨"
	Green  Colour = "🟩"
	Blue   Colour = "🟦"
	Purple Colour = "🟪"
	Brown  Colour = "🟫"
	Black  Colour = "⬛"
	White  Colour = "⬜"
)

var DefaultPalette = []Colour{Red, Orange, Yellow, Green, Blue, Purple, Brown, Black, White}

var ErrInvalidColour = errors.New("that is not a single emoji")

var customEmoji = regexp.MustCompile(`^<a?:\w{2,32}:\d{15,21}>`)

const keycap = '\u20e3'

func isRegionalIndicator(r rune) bool { return r >= 0x1f1e6 && r <= 0x1f1ff }

// SplitColours splits a row of emoji into cells, one grapheme cluster or
// custom emoji each. Whitespace between cells is ignored.
func SplitColours(s string) []Colour {
	var (
		cells   []Colour
		cluster string
	)
	state := -1
	for len(s) > 0 {
		if loc := customEmoji.FindStringIndex(s); loc != nil {
			cells = append(cells, Colour(s[:loc[1]]))
			s = s[loc[1]:]
			state = -1
			continue
		}

		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		if strings.TrimSpace(strings.ReplaceAll(cluster, "\u200b", "")) == "" {
			continue
		}
		cells = append(cells, Colour(cluster))
	}
	return cells
}

// looksLikeEmoji accepts custom emoji, flags, keycaps, and symbol clusters
// that render two columns wide.
func looksLikeEmoji(c Colour) bool {
	s := string(c)
	if customEmoji.MatchString(s) {
		return true
	}
	r, size := utf8.DecodeRuneInString(s)
	switch {
	case r >= '0' && r <= '9', r == '#', r == '*':
		return strings.ContainsRune(s, keycap)
	case isRegionalIndicator(r):
		next, _ := utf8.DecodeRuneInString(s[size:])
		return isRegionalIndicator(next)
	case !unicode.Is(unicode.So, r):
		return false
	}
	return uniseg.StringWidth(s) == 2
}

// ParseColour validates user input as exactly one emoji.
func ParseColour(s string) (Colour, error) {
	cells := SplitColours(strings.TrimSpace(s))
	if len(cells) != 1 || !looksLikeEmoji(cells[0]) {
		return "", ErrInvalidColour
	}
	return cells[0], nil
}

// EmojiParts returns the name and id of a custom emoji, or the emoji itself
// and an empty id for unicode emoji.
func (c Colour) EmojiParts() (name string, id string, animated bool) {
	s := string(c)
	if !customEmoji.MatchString(s) {
		return s, "", false
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "<"), ">")
	animated = strings.HasPrefix(s, "a:")
	parts := strings.Split(s, ":")
	return parts[1], parts[2], animated
}
