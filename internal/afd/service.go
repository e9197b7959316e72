package afd

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"yeetbot.dev/yeet/internal/spawn"
)

const DefaultMaxClaims = 3

type Service struct {
	Store     Store
	Pokedex   *spawn.Pokedex
	MaxClaims int
	Clock     func() time.Time
	Rand      *rand.Rand

	open atomic.Bool
	mut  sync.Mutex
}

func NewService(store Store, dex *spawn.Pokedex, maxClaims int, open bool) *Service {
	if maxClaims <= 0 {
		maxClaims = DefaultMaxClaims
	}
	s := &Service{Store: store, Pokedex: dex, MaxClaims: maxClaims}
	s.open.Store(open)
	return s
}

func (s *Service) IsOpen() bool      { return s.open.Load() }
func (s *Service) SetOpen(open bool) { s.open.Store(open) }

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) resolve(name string) (spawn.Species, error) {
	return s.Pokedex.Lookup(name)
}

func (s *Service) owned(ctx context.Context, user discord.UserID, name string) (Claim, error) {
	species, err := s.resolve(name)
	if err != nil {
		return Claim{}, err
	}
	c, err := s.Store.Get(ctx, species.Name)
	if err != nil {
		return Claim{}, err
	}
	if c.UserID != user {
		return Claim{}, ErrNotClaimant
	}
	return c, nil
}

func (s *Service) Claim(ctx context.Context, user discord.UserID, name string) (Claim, error) {
	if !s.IsOpen() {
		return Claim{}, ErrClosed
	}
	species, err := s.resolve(name)
	if err != nil {
		return Claim{}, err
	}

	s.mut.Lock()
	defer s.mut.Unlock()

	mine, err := s.Store.ListByUser(ctx, user)
	if err != nil {
		return Claim{}, err
	}
	var active int
	for _, c := range mine {
		if c.Status.Active() {
			active++
		}
	}
	if active >= s.MaxClaims {
		return Claim{}, ErrClaimLimit
	}

	c := Claim{
		Pokemon:   species.Name,
		DexID:     species.ID,
		UserID:    user,
		Status:    StatusClaimed,
		ClaimedAt: s.now(),
	}
	if err := s.Store.Create(ctx, c); err != nil {
		return Claim{}, err
	}
	return c, nil
}

func (s *Service) Unclaim(ctx context.Context, user discord.UserID, name string) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	c, err := s.owned(ctx, user, name)
	if err != nil {
		return err
	}
	if c.Status == StatusApproved {
		return ErrApproved
	}
	return s.Store.Delete(ctx, c)
}

func validImageURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (s *Service) Submit(ctx context.Context, user discord.UserID, name, imageURL string) (Claim, error) {
	if !s.IsOpen() {
		return Claim{}, ErrClosed
	}
	if !validImageURL(imageURL) {
		return Claim{}, ErrBadURL
	}

	s.mut.Lock()
	defer s.mut.Unlock()

	c, err := s.owned(ctx, user, name)
	if err != nil {
		return Claim{}, err
	}
	if c.Status == StatusApproved {
		return Claim{}, ErrApproved
	}
	from := c.Status
	c.Status = StatusSubmitted
	c.ImageURL = imageURL
	c.SubmittedAt = s.now()
	c.Note = ""
	return c, s.Store.Update(ctx, c, from)
}

func (s *Service) review(ctx context.Context, name string) (Claim, error) {
	species, err := s.resolve(name)
	if err != nil {
		return Claim{}, err
	}
	c, err := s.Store.Get(ctx, species.Name)
	if err != nil {
		return Claim{}, err
	}
	switch c.Status {
	case StatusApproved:
		return Claim{}, ErrApproved
	case StatusClaimed:
		return Claim{}, ErrNotSubmitted
	}
	return c, nil
}

// Approve accepts a submission. The caller checks the reviewer is staff.
func (s *Service) Approve(ctx context.Context, reviewer discord.UserID, name string) (Claim, error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	c, err := s.review(ctx, name)
	if err != nil {
		return Claim{}, err
	}
	c.Status = StatusApproved
	c.ReviewedBy = reviewer
	return c, s.Store.Update(ctx, c, StatusSubmitted)
}

// Deny sends a submission back to the claimant with a note.
func (s *Service) Deny(ctx context.Context, reviewer discord.UserID, name, note string) (Claim, error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	c, err := s.review(ctx, name)
	if err != nil {
		return Claim{}, err
	}
	c.Status = StatusClaimed
	c.ImageURL = ""
	c.SubmittedAt = time.Time{}
	c.ReviewedBy = reviewer
	c.Note = note
	return c, s.Store.Update(ctx, c, StatusSubmitted)
}

// ForceUnclaim removes a claim whatever its state.
func (s *Service) ForceUnclaim(ctx context.Context, name string) (Claim, error) {
	species, err := s.resolve(name)
	if err != nil {
		return Claim{}, err
	}

	s.mut.Lock()
	defer s.mut.Unlock()

	c, err := s.Store.Get(ctx, species.Name)
	if err != nil {
		return Claim{}, err
	}
	return c, s.Store.Delete(ctx, c)
}

func (s *Service) View(ctx context.Context, name string) (Claim, error) {
	species, err := s.resolve(name)
	if err != nil {
		return Claim{}, err
	}
	return s.Store.Get(ctx, species.Name)
}

// List returns the claims of one user, or every claim for the zero user.
func (s *Service) List(ctx context.Context, user discord.UserID) ([]Claim, error) {
	if !user.IsValid() {
		return s.Store.List(ctx)
	}
	return s.Store.ListByUser(ctx, user)
}

// Random suggests a pokémon nobody has claimed.
func (s *Service) Random(ctx context.Context) (spawn.Species, error) {
	claims, err := s.Store.List(ctx)
	if err != nil {
		return spawn.Species{}, err
	}
	taken := make(map[string]struct{}, len(claims))
	for _, c := range claims {
		taken[c.Pokemon] = struct{}{}
	}
	var free []spawn.Species
	for _, sp := range s.Pokedex.All() {
		if _, ok := taken[sp.Name]; !ok {
			free = append(free, sp)
		}
	}
	if len(free) == 0 {
		return spawn.Species{}, ErrAllClaimed
	}
	if s.Rand != nil {
		return free[s.Rand.IntN(len(free))], nil
	}
	return free[rand.IntN(len(free))], nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	counts, err := s.Store.Counts(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{
		Claimed:   counts[StatusClaimed],
		Submitted: counts[StatusSubmitted],
		Approved:  counts[StatusApproved],
		Total:     s.Pokedex.Len(),
	}
	st.Unclaimed = max(0, st.Total-st.Claimed-st.Submitted-st.Approved)
	return st, nil
}

var exportHeader = []string{"pokemon", "dex", "user", "status", "image_url", "claimed_at", "submitted_at", "reviewed_by", "note"}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatUser(id discord.UserID) string {
	if !id.IsValid() {
		return ""
	}
	return id.String()
}

// ExportCSV writes every claim in dex order.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	claims, err := s.Store.List(ctx)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, c := range claims {
		err := cw.Write([]string{
			c.Pokemon,
			strconv.Itoa(c.DexID),
			formatUser(c.UserID),
			string(c.Status),
			c.ImageURL,
			formatTime(c.ClaimedAt),
			formatTime(c.SubmittedAt),
			formatUser(c.ReviewedBy),
			c.Note,
		})
		if err != nil {
			return fmt.Errorf("writing %s: %w", c.Pokemon, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
