// Package afd runs the April Fools Draw: every pokémon is claimed by one
// artist, drawn, submitted and approved by staff.
package afd

import (
	"context"
	"errors"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"yeetbot.dev/yeet/internal/spawn"
)

type Status string

const (
	StatusClaimed   Status = "claimed"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
)

// Active reports whether the claim counts towards the claim limit.
func (s Status) Active() bool {
	return s == StatusClaimed || s == StatusSubmitted
}

type Claim struct {
	Pokemon     string
	DexID       int
	UserID      discord.UserID
	Status      Status
	ImageURL    string
	ClaimedAt   time.Time
	SubmittedAt time.Time
	ReviewedBy  discord.UserID
	Note        string
}

var (
	ErrClosed         = errors.New("the event is not taking claims right now")
	ErrUnknownPokemon = spawn.ErrUnknownPokemon
	ErrAlreadyClaimed = errors.New("somebody already claimed that pokémon")
	ErrClaimLimit     = errors.New("you have too many unfinished claims")
	ErrNotClaimed     = errors.New("nobody has claimed that pokémon")
	ErrNotClaimant    = errors.New("that pokémon is claimed by someone else")
	ErrApproved       = errors.New("that drawing has already been approved")
	ErrNotSubmitted   = errors.New("nothing has been submitted for that pokémon")
	ErrBadURL         = errors.New("submissions must be an http or https link")
	ErrAllClaimed     = errors.New("every pokémon has been claimed")
	ErrClaimChanged   = errors.New("that claim changed in the meantime, try again")
)

// Store persists claims. Get returns ErrNotClaimed and Create returns
// ErrAlreadyClaimed. Update and Delete only touch the row while it still
// belongs to c.UserID in the expected status, and return ErrClaimChanged
// otherwise. Update never reassigns the claimant.
type Store interface {
	Get(ctx context.Context, pokemon string) (Claim, error)
	Create(ctx context.Context, c Claim) error
	Update(ctx context.Context, c Claim, from Status) error
	Delete(ctx context.Context, c Claim) error
	ListByUser(ctx context.Context, user discord.UserID) ([]Claim, error)
	List(ctx context.Context) ([]Claim, error)
	Counts(ctx context.Context) (map[Status]int, error)
}

type Stats struct {
	Claimed   int
	Submitted int
	Approved  int
	Unclaimed int
	Total     int
}

// Complete is the share of the pokédex with an approved drawing, as a
// percentage.
func (s Stats) Complete() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Approved) / float64(s.Total) * 100
}
