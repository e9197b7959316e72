package spawn

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	ShinyOdds       = 4096
	ShinyCharmBoost = 1.2
)

// Chance is the probability that a single spawn is the given species.
func (p *Pokedex) Chance(s Species) (float64, error) {
	if !s.Catchable || s.Abundance <= 0 || p.total == 0 {
		return 0, ErrNotCatchable
	}
	return float64(s.Abundance) / float64(p.total), nil
}

// OneIn converts a probability into "1 in N" form.
func OneIn(chance float64) int64 {
	if chance <= 0 {
		return 0
	}
	return int64(math.Round(1 / chance))
}

func ShinyChance(chance float64, charm bool) float64 {
	odds := float64(ShinyOdds)
	if charm {
		odds /= ShinyCharmBoost
	}
	return chance / odds
}

type GroupKind string

const (
	GroupRegion GroupKind = "region"
	GroupType   GroupKind = "type"
	GroupRarity GroupKind = "rarity"
)

// GroupChance sums the chance of every catchable species in a region, type or
// rarity, returning the chance and how many species matched.
func (p *Pokedex) GroupChance(kind GroupKind, value string) (float64, int, error) {
	var match func(Species) bool
	value = strings.ToLower(strings.TrimSpace(value))
	switch kind {
	case GroupRegion:
		match = func(s Species) bool { return s.Region == value }
	case GroupType:
		match = func(s Species) bool { return s.HasType(value) }
	case GroupRarity:
		match = func(s Species) bool { return string(s.Rarity) == value }
	default:
		return 0, 0, ErrBadGroup
	}

	var abundance, n int
	for _, s := range p.species {
		if !s.Catchable || s.Abundance <= 0 || !match(s) {
			continue
		}
		abundance += s.Abundance
		n++
	}
	if n == 0 || p.total == 0 {
		return 0, 0, ErrEmptyGroup
	}
	return float64(abundance) / float64(p.total), n, nil
}

var printer = message.NewPrinter(language.English)

// FormatChance renders a probability as "0.1234% (1 in 810)".
func FormatChance(chance float64) string {
	if chance <= 0 {
		return "never"
	}
	return printer.Sprintf("%.4f%% (1 in %d)", chance*100, OneIn(chance))
}
