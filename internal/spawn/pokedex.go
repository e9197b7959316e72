package spawn

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Rarity string

const (
	Common     Rarity = "common"
	Legendary  Rarity = "legendary"
	Mythical   Rarity = "mythical"
	UltraBeast Rarity = "ultra beast"
)

type Species struct {
	ID        int
	Name      string
	Abundance int
	Catchable bool
	Rarity    Rarity
	Region    string
	Types     []string
}

func (s Species) HasType(t string) bool {
	for _, v := range s.Types {
		if strings.EqualFold(v, t) {
			return true
		}
	}
	return false
}

var (
	ErrUnknownPokemon = errors.New("no pokémon goes by that name")
	ErrNotCatchable   = errors.New("that pokémon does not spawn in the wild")
	ErrBadGroup       = errors.New("group must be one of region, type or rarity")
	ErrEmptyGroup     = errors.New("no catchable pokémon are in that group")
	ErrEmptyTable     = errors.New("spawn table has no pokémon")
)

var csvHeader = []string{"id", "name", "abundance", "catchable", "rarity", "region", "type1", "type2"}

type Pokedex struct {
	species []Species
	byName  map[string]int
	byID    map[int]int
	total   int
}

// Load reads a pokédex CSV. Columns are matched by header name, so extra
// upstream columns are ignored.
func Load(r io.Reader) (*Pokedex, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, want := range csvHeader[:4] {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("missing column %q", want)
		}
	}
	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	p := &Pokedex{
		byName: map[string]int{},
		byID:   map[int]int{},
	}
	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		id, err := strconv.Atoi(field(rec, "id"))
		if err != nil {
			return nil, fmt.Errorf("line %d: id: %w", line, err)
		}
		abundance, err := strconv.Atoi(field(rec, "abundance"))
		if err != nil {
			return nil, fmt.Errorf("line %d: abundance: %w", line, err)
		}
		catchable, err := strconv.ParseBool(field(rec, "catchable"))
		if err != nil {
			return nil, fmt.Errorf("line %d: catchable: %w", line, err)
		}
		s := Species{
			ID:        id,
			Name:      field(rec, "name"),
			Abundance: abundance,
			Catchable: catchable,
			Rarity:    Rarity(strings.ToLower(field(rec, "rarity"))),
			Region:    strings.ToLower(field(rec, "region")),
		}
		if s.Rarity == "" {
			s.Rarity = Common
		}
		for _, t := range []string{field(rec, "type1"), field(rec, "type2")} {
			if t != "" {
				s.Types = append(s.Types, strings.ToLower(t))
			}
		}

		p.byID[id] = len(p.species)
		p.byName[Normalise(s.Name)] = len(p.species)
		p.species = append(p.species, s)
		if s.Catchable && s.Abundance > 0 {
			p.total += s.Abundance
		}
	}
	if len(p.species) == 0 {
		return nil, ErrEmptyTable
	}
	return p, nil
}

var genderSymbols = strings.NewReplacer("♀", "f", "♂", "m")

// Normalise folds a pokémon name for comparison: accents, case, spacing and
// punctuation are dropped.
func Normalise(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), genderSymbols.Replace(name))
	if err != nil {
		folded = name
	}
	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (p *Pokedex) Len() int { return len(p.species) }

func (p *Pokedex) All() []Species {
	return append([]Species(nil), p.species...)
}

// Lookup finds a pokémon by dex number or name.
func (p *Pokedex) Lookup(query string) (Species, error) {
	query = strings.TrimPrefix(strings.TrimSpace(query), "#")
	if id, err := strconv.Atoi(query); err == nil {
		if i, ok := p.byID[id]; ok {
			return p.species[i], nil
		}
		return Species{}, ErrUnknownPokemon
	}
	if i, ok := p.byName[Normalise(query)]; ok {
		return p.species[i], nil
	}
	return Species{}, ErrUnknownPokemon
}

// Suggest returns up to n names close to query: prefix matches first, then
// the smallest edit distances.
func (p *Pokedex) Suggest(query string, n int) []Species {
	q := Normalise(query)
	type scored struct {
		s     Species
		score int
	}
	var candidates []scored
	for _, s := range p.species {
		name := Normalise(s.Name)
		score := levenshtein(q, name)
		if q != "" && strings.HasPrefix(name, q) {
			score = -1
		}
		candidates = append(candidates, scored{s, score})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score < candidates[j].score
	})

	var out []Species
	for _, c := range candidates {
		if len(out) >= n {
			break
		}
		if c.score > max(3, len(q)/2) {
			break
		}
		out = append(out, c.s)
	}
	return out
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// Random picks any species uniformly.
func (p *Pokedex) Random(rng *rand.Rand) (Species, bool) {
	if len(p.species) == 0 {
		return Species{}, false
	}
	if rng == nil {
		return p.species[rand.IntN(len(p.species))], true
	}
	return p.species[rng.IntN(len(p.species))], true
}

// Spawn picks a catchable species weighted by abundance, the way a wild
// spawn would.
func (p *Pokedex) Spawn(rng *rand.Rand) (Species, bool) {
	if p.total == 0 {
		return Species{}, false
	}
	var roll int
	if rng == nil {
		roll = rand.IntN(p.total)
	} else {
		roll = rng.IntN(p.total)
	}
	for _, s := range p.species {
		if !s.Catchable || s.Abundance <= 0 {
			continue
		}
		if roll < s.Abundance {
			return s, true
		}
		roll -= s.Abundance
	}
	return Species{}, false
}
