package afd

import (
	"bytes"
	"context"
	"encoding/csv"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"yeetbot.dev/yeet/internal/spawn"
)

type memStore struct {
	mut    sync.Mutex
	claims map[string]Claim
}

func newMemStore() *memStore {
	return &memStore{claims: map[string]Claim{}}
}

func (m *memStore) Get(_ context.Context, pokemon string) (Claim, error) {
	m.mut.Lock()
	defer m.mut.Unlock()
	c, ok := m.claims[pokemon]
	if !ok {
		return Claim{}, ErrNotClaimed
	}
	return c, nil
}

func (m *memStore) Create(_ context.Context, c Claim) error {
	m.mut.Lock()
	defer m.mut.Unlock()
	if _, ok := m.claims[c.Pokemon]; ok {
		return ErrAlreadyClaimed
	}
	m.claims[c.Pokemon] = c
	return nil
}

func (m *memStore) Update(_ context.Context, c Claim, from Status) error {
	m.mut.Lock()
	defer m.mut.Unlock()
	cur, ok := m.claims[c.Pokemon]
	if !ok || cur.UserID != c.UserID || cur.Status != from {
		return ErrClaimChanged
	}
	c.DexID, c.ClaimedAt = cur.DexID, cur.ClaimedAt
	m.claims[c.Pokemon] = c
	return nil
}

func (m *memStore) Delete(_ context.Context, c Claim) error {
	m.mut.Lock()
	defer m.mut.Unlock()
	cur, ok := m.claims[c.Pokemon]
	if !ok || cur.UserID != c.UserID || cur.Status != c.Status {
		return ErrClaimChanged
	}
	delete(m.claims, c.Pokemon)
	return nil
}

// staleStore answers Get with a snapshot taken before another process
// changed the claim.
type staleStore struct {
	*memStore
	snapshot Claim
}

func (s *staleStore) Get(context.Context, string) (Claim, error) {
	return s.snapshot, nil
}

func (m *memStore) list(keep func(Claim) bool) []Claim {
	m.mut.Lock()
	defer m.mut.Unlock()
	var out []Claim
	for _, c := range m.claims {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DexID < out[j].DexID })
	return out
}

func (m *memStore) ListByUser(_ context.Context, user discord.UserID) ([]Claim, error) {
	return m.list(func(c Claim) bool { return c.UserID == user }), nil
}

func (m *memStore) List(context.Context) ([]Claim, error) {
	return m.list(func(Claim) bool { return true }), nil
}

func (m *memStore) Counts(context.Context) (map[Status]int, error) {
	out := map[Status]int{}
	for _, c := range m.list(func(Claim) bool { return true }) {
		out[c.Status]++
	}
	return out, nil
}

const testDex = `id,name,abundance,catchable,rarity,region,type1,type2
1,Bulbasaur,45,true,,kanto,grass,poison
4,Charmander,45,true,,kanto,fire,
7,Squirtle,45,true,,kanto,water,
25,Pikachu,190,true,,kanto,electric,
669,Flabébé,225,true,,kalos,fairy,
`

const (
	alice discord.UserID = 1001
	bob   discord.UserID = 1002
	staff discord.UserID = 2000
)

func newTestService(t *testing.T) (*Service, *memStore) {
	t.Helper()
	dex, err := spawn.Load(strings.NewReader(testDex))
	require.NoError(t, err)
	store := newMemStore()
	svc := NewService(store, dex, 2, true)
	svc.Clock = func() time.Time { return time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestClaim(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	c, err := svc.Claim(ctx, alice, "flabebe")
	require.NoError(t, err)
	assert.Equal(t, "Flabébé", c.Pokemon)
	assert.Equal(t, 669, c.DexID)
	assert.Equal(t, StatusClaimed, c.Status)
	assert.Equal(t, 2026, c.ClaimedAt.Year())

	_, err = svc.Claim(ctx, bob, "Flabébé")
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	_, err = svc.Claim(ctx, bob, "agumon")
	assert.ErrorIs(t, err, ErrUnknownPokemon)

	svc.SetOpen(false)
	_, err = svc.Claim(ctx, bob, "pikachu")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClaimLimitCountsActiveOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Claim(ctx, alice, "bulbasaur")
	require.NoError(t, err)
	_, err = svc.Claim(ctx, alice, "charmander")
	require.NoError(t, err)
	_, err = svc.Claim(ctx, alice, "squirtle")
	assert.ErrorIs(t, err, ErrClaimLimit)

	_, err = svc.Submit(ctx, alice, "bulbasaur", "https://example.com/bulba.png")
	require.NoError(t, err)
	_, err = svc.Claim(ctx, alice, "squirtle")
	assert.ErrorIs(t, err, ErrClaimLimit, "submitted claims are still active")

	_, err = svc.Approve(ctx, staff, "bulbasaur")
	require.NoError(t, err)
	_, err = svc.Claim(ctx, alice, "squirtle")
	assert.NoError(t, err)
}

func TestUnclaim(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Unclaim(ctx, alice, "pikachu"), ErrNotClaimed)

	_, err := svc.Claim(ctx, alice, "pikachu")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Unclaim(ctx, bob, "pikachu"), ErrNotClaimant)
	require.NoError(t, svc.Unclaim(ctx, alice, "#25"))
	assert.Empty(t, store.claims)

	_, err = svc.Claim(ctx, alice, "pikachu")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, alice, "pikachu", "https://example.com/p.png")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, staff, "pikachu")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Unclaim(ctx, alice, "pikachu"), ErrApproved)
}

func TestSubmitAndReview(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Claim(ctx, alice, "squirtle")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, staff, "squirtle")
	assert.ErrorIs(t, err, ErrNotSubmitted)

	for _, bad := range []string{"", "ftp://example.com/a.png", "not a url", "https://"} {
		_, err = svc.Submit(ctx, alice, "squirtle", bad)
		assert.ErrorIs(t, err, ErrBadURL, bad)
	}
	_, err = svc.Submit(ctx, bob, "squirtle", "https://example.com/s.png")
	assert.ErrorIs(t, err, ErrNotClaimant)

	c, err := svc.Submit(ctx, alice, "squirtle", "https://example.com/s.png")
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, c.Status)
	assert.False(t, c.SubmittedAt.IsZero())

	c, err = svc.Deny(ctx, staff, "squirtle", "needs more squirtle")
	require.NoError(t, err)
	assert.Equal(t, StatusClaimed, c.Status)
	assert.Empty(t, c.ImageURL)
	assert.True(t, c.SubmittedAt.IsZero())
	assert.Equal(t, "needs more squirtle", c.Note)

	c, err = svc.Submit(ctx, alice, "squirtle", "https://example.com/s2.png")
	require.NoError(t, err)
	assert.Empty(t, c.Note)

	c, err = svc.Approve(ctx, staff, "squirtle")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, c.Status)
	assert.Equal(t, staff, c.ReviewedBy)

	_, err = svc.Approve(ctx, staff, "squirtle")
	assert.ErrorIs(t, err, ErrApproved)
	_, err = svc.Submit(ctx, alice, "squirtle", "https://example.com/s3.png")
	assert.ErrorIs(t, err, ErrApproved)
}

func TestForceUnclaimAndView(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ForceUnclaim(ctx, "pikachu")
	assert.ErrorIs(t, err, ErrNotClaimed)

	_, err = svc.Claim(ctx, bob, "pikachu")
	require.NoError(t, err)

	c, err := svc.View(ctx, "PIKACHU")
	require.NoError(t, err)
	assert.Equal(t, bob, c.UserID)

	c, err = svc.ForceUnclaim(ctx, "pikachu")
	require.NoError(t, err)
	assert.Equal(t, bob, c.UserID)

	_, err = svc.View(ctx, "pikachu")
	assert.ErrorIs(t, err, ErrNotClaimed)
}

func TestListRandomStats(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Rand = rand.New(rand.NewPCG(1, 2))
	ctx := context.Background()

	for _, name := range []string{"pikachu", "bulbasaur"} {
		_, err := svc.Claim(ctx, alice, name)
		require.NoError(t, err)
	}
	for _, name := range []string{"charmander", "squirtle"} {
		_, err := svc.Claim(ctx, bob, name)
		require.NoError(t, err)
	}
	_, err := svc.Submit(ctx, bob, "squirtle", "https://example.com/s.png")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, staff, "squirtle")
	require.NoError(t, err)

	mine, err := svc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "Bulbasaur", mine[0].Pokemon)

	all, err := svc.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	for range 10 {
		sp, err := svc.Random(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Flabébé", sp.Name)
	}

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Claimed: 3, Approved: 1, Unclaimed: 1, Total: 5}, st)
	assert.InDelta(t, 20.0, st.Complete(), 0.001)

	_, err = svc.Claim(ctx, bob, "flabebe")
	require.NoError(t, err)
	_, err = svc.Random(ctx)
	assert.ErrorIs(t, err, ErrAllClaimed)
}

func TestExportCSV(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Claim(ctx, alice, "charmander")
	require.NoError(t, err)
	_, err = svc.Claim(ctx, bob, "bulbasaur")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeader, rows[0])
	assert.Equal(t, []string{"Bulbasaur", "1", "1002", "claimed", "", "2026-04-01T12:00:00Z", "", "", ""}, rows[1])
	assert.Equal(t, "Charmander", rows[2][0])
}

func TestStaleSubmitAfterReclaim(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	old, err := svc.Claim(ctx, alice, "pikachu")
	require.NoError(t, err)
	_, err = svc.ForceUnclaim(ctx, "pikachu")
	require.NoError(t, err)
	_, err = svc.Claim(ctx, bob, "pikachu")
	require.NoError(t, err)

	svc.Store = &staleStore{memStore: store, snapshot: old}
	_, err = svc.Submit(ctx, alice, "pikachu", "https://example.com/p.png")
	assert.ErrorIs(t, err, ErrClaimChanged)
	assert.ErrorIs(t, svc.Unclaim(ctx, alice, "pikachu"), ErrClaimChanged)

	c := store.claims["Pikachu"]
	assert.Equal(t, bob, c.UserID)
	assert.Equal(t, StatusClaimed, c.Status)
	assert.Empty(t, c.ImageURL)
}

func TestConcurrentReviews(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Claim(ctx, alice, "squirtle")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, alice, "squirtle", "https://example.com/s.png")
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mut  sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = svc.Approve(ctx, staff, "squirtle")
			} else {
				_, err = svc.Deny(ctx, staff, "squirtle", "again")
			}
			if err == nil {
				mut.Lock()
				wins++
				mut.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.NotEqual(t, StatusSubmitted, store.claims["Squirtle"].Status)
}
