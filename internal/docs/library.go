package docs

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"yeetbot.dev/yeet/internal/log"
)

const DefaultTTL = 24 * time.Hour

// Library serves embedded books and fetches remote ones on demand. Remote
// books are kept in leveldb until their TTL runs out.
type Library struct {
	Remote map[string]string
	Cache  *leveldb.DB
	TTL    time.Duration
	HTTP   *http.Client

	mut   sync.RWMutex
	books map[string]*Book
	now   func() time.Time
}

func NewLibrary(books map[string]*Book, remote map[string]string, cache *leveldb.DB) *Library {
	if books == nil {
		books = map[string]*Book{}
	}
	return &Library{
		Remote: remote,
		Cache:  cache,
		TTL:    DefaultTTL,
		books:  books,
	}
}

func (l *Library) clock() time.Time {
	if l.now != nil {
		return l.now()
	}
	return time.Now()
}

// Topics lists every embedded and remote topic.
func (l *Library) Topics() []string {
	l.mut.RLock()
	defer l.mut.RUnlock()
	all := make(map[string]struct{}, len(l.books)+len(l.Remote))
	for k := range l.books {
		all[k] = struct{}{}
	}
	for k := range l.Remote {
		all[k] = struct{}{}
	}
	return sortedKeys(all)
}

// Search returns topics containing query, for autocomplete.
func (l *Library) Search(query string, n int) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	var out []string
	for _, t := range l.Topics() {
		if len(out) >= n {
			break
		}
		if strings.Contains(strings.ToLower(t), query) {
			out = append(out, t)
		}
	}
	return out
}

func (l *Library) Get(ctx context.Context, topic string) (*Book, error) {
	topic = strings.ToLower(strings.TrimSpace(topic))
	l.mut.RLock()
	book, ok := l.books[topic]
	l.mut.RUnlock()
	if ok {
		return book, nil
	}

	url, ok := l.Remote[topic]
	if !ok {
		return nil, ErrUnknownTopic
	}
	if book, ok := l.cached(url); ok {
		return book, nil
	}
	book, err := l.fetch(ctx, topic, url)
	if err != nil {
		return nil, err
	}
	l.store(url, book)
	return book, nil
}

func cacheKey(url string) []byte {
	return []byte("DOCS_" + url)
}

func (l *Library) cached(url string) (*Book, bool) {
	if l.Cache == nil {
		return nil, false
	}
	raw, err := l.Cache.Get(cacheKey(url), nil)
	if err != nil {
		if !errors.Is(err, leveldb.ErrNotFound) {
			log.ErrorQuick(err)
		}
		return nil, false
	}
	if len(raw) < 8 {
		return nil, false
	}
	stored := time.UnixMilli(int64(binary.LittleEndian.Uint64(raw)))
	if l.clock().Sub(stored) > l.TTL {
		return nil, false
	}
	var book Book
	if err := json.Unmarshal(raw[8:], &book); err != nil {
		log.ErrorQuick(err)
		return nil, false
	}
	return &book, true
}

func (l *Library) store(url string, book *Book) {
	if l.Cache == nil {
		return
	}
	data, err := json.Marshal(book)
	if err != nil {
		log.ErrorQuick(err)
		return
	}
	raw := binary.LittleEndian.AppendUint64(nil, uint64(l.clock().UnixMilli()))
	log.Assert(l.Cache.Put(cacheKey(url), append(raw, data...), nil))
}

func (l *Library) fetch(ctx context.Context, topic, url string) (*Book, error) {
	client := l.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", topic, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.DumpResponse(resp, true, log.LevelError, "fetching docs %s: %s", topic, resp.Status)
		return nil, fmt.Errorf("fetching %s: %s", topic, resp.Status)
	}
	md, err := htmlToMarkdown(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", topic, err)
	}
	return ParseBook(topic, []byte(md)), nil
}
