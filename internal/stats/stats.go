package stats

import (
	"encoding/binary"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/syndtr/goleveldb/leveldb"
)

type ChannelModifier interface {
	ModifyChannel(discord.ChannelID, api.ModifyChannelData) error
}

func GetKey(name string) []byte {
	return []byte("STAT_" + name)
}

// Stat is a counter persisted in leveldb and shown as a channel name. Channel
// renames are rate limited hard by discord, so updates are coalesced over
// Delay.
type Stat struct {
	Name      string
	Client    ChannelModifier
	ChannelID discord.ChannelID
	Delay     time.Duration
	LevelDB   *leveldb.DB
	OnError   func(error)

	mut     sync.Mutex
	value   int64
	syncing bool
}

func (s *Stat) Initialise() error {
	val, err := s.LevelDB.Get(GetKey(s.Name), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil
	} else if err != nil {
		return err
	}
	num, n := binary.Varint(val)
	if n <= 0 {
		return errors.New("corrupt stat " + s.Name)
	}
	s.mut.Lock()
	s.value = num
	s.mut.Unlock()
	return nil
}

func (s *Stat) Value() int64 {
	s.mut.Lock()
	defer s.mut.Unlock()
	return s.value
}

func (s *Stat) sync(value int64) error {
	err := s.LevelDB.Put(GetKey(s.Name), binary.AppendVarint(nil, value), nil)
	if err != nil {
		return err
	}
	if s.Client == nil || !s.ChannelID.IsValid() {
		return nil
	}
	return s.Client.ModifyChannel(s.ChannelID, api.ModifyChannelData{
		Name: s.Name + " : " + strconv.FormatInt(value, 10),
	})
}

func (s *Stat) fail(err error) {
	if err != nil && s.OnError != nil {
		s.OnError(err)
	}
}

// update starts a sync loop unless one is running. The loop keeps syncing
// until the value it last wrote is still current, so changes made while a
// rename is held up by rate limits are not lost.
func (s *Stat) update() {
	if s.syncing {
		return
	}
	s.syncing = true
	go func() {
		s.mut.Lock()
		value := s.value
		s.mut.Unlock()
		for {
			s.fail(s.sync(value))
			time.Sleep(s.Delay)

			s.mut.Lock()
			if s.value == value {
				s.syncing = false
				s.mut.Unlock()
				return
			}
			value = s.value
			s.mut.Unlock()
		}
	}()
}

func (s *Stat) Increment(count int64) {
	s.mut.Lock()
	defer s.mut.Unlock()
	s.value += count
	s.update()
}

func (s *Stat) Set(value int64) {
	s.mut.Lock()
	defer s.mut.Unlock()
	s.value = value
	s.update()
}
