package bots

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/diamondburned/arikawa/v3/api/webhook"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/state"
	"github.com/diamondburned/arikawa/v3/utils/ws"
	netrc "github.com/fhs/go-netrc/netrc"
	"github.com/go-co-op/gocron/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/syndtr/goleveldb/leveldb"
	"yeetbot.dev/yeet/internal/cleanup"
	"yeetbot.dev/yeet/internal/components"
	"yeetbot.dev/yeet/internal/gist"
	"yeetbot.dev/yeet/internal/heartbeat"
	"yeetbot.dev/yeet/internal/log"
	"yeetbot.dev/yeet/internal/platform"
	"yeetbot.dev/yeet/internal/storage/sqlite"
)

type Bots struct{}

const defaultFileMode fs.FileMode = 0700

var cleaner cleanup.Cleaner

var (
	cron        gocron.Scheduler
	lvldb       *leveldb.DB
	sqldb       *sqlite.DB
	gists       *gist.Client
	heartbeater heartbeat.Heartbeater
	tokens      map[string]netrc.Machine
	stop        = make(chan struct{})
)

// Duration reads Go duration strings such as "10m" from the config file.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Or(def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return time.Duration(d)
}

var config struct {
	LogHook    string                `toml:"log_hook"`
	StatusHook string                `toml:"status_hook"`
	LogLevel   int                   `toml:"log_level"`
	Components components.Components `toml:"components"`
	Dirs       struct {
		Run   string `toml:"run"`
		Cache string `toml:"cache"`
		Log   string `toml:"log"`
		Temp  string `toml:"temp"`
	} `toml:"directories"`
	CommandGuild discord.GuildID `toml:"command_guild"`
	Bot          struct {
		AFD    AFDConfig    `toml:"afd"`
		Draw   DrawConfig   `toml:"draw"`
		Resize ResizeConfig `toml:"resize"`
		Spawn  SpawnConfig  `toml:"spawn"`
		Docs   DocsConfig   `toml:"docs"`
		Misc   MiscConfig   `toml:"misc"`
	} `toml:"bot"`
}

func InitConfig() error {
	var path string
	if ed, ok := os.LookupEnv("CONFIGURATION_DIRECTORY"); ok {
		path = filepath.Join(ed, "config.toml")
	} else {
		path = "config.toml"
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewDecoder(f).Decode(&config)
}

func InitDirs() (err error) {
	dirs := []struct {
		dir        *string
		candidates []platform.Candidate
	}{
		{&config.Dirs.Run, []platform.Candidate{
			platform.Value(config.Dirs.Run),
			platform.Env("RUNTIME_DIRECTORY"),
			platform.WorkDir("runtime"),
		}},
		{&config.Dirs.Log, []platform.Candidate{
			platform.Value(config.Dirs.Log),
			platform.Env("LOGS_DIRECTORY"),
			platform.Value(subDir(config.Dirs.Cache, "log")),
			platform.UserCache("yeet/log"),
			platform.WorkDir("log"),
		}},
		{&config.Dirs.Cache, []platform.Candidate{
			platform.Value(config.Dirs.Cache),
			platform.Env("CACHE_DIRECTORY"),
			platform.UserCache("yeet"),
			platform.WorkDir("cache"),
		}},
		{&config.Dirs.Temp, []platform.Candidate{
			platform.Value(config.Dirs.Temp),
			platform.Temp("yeet"),
		}},
	}
	for _, d := range dirs {
		if *d.dir, err = platform.Dir(defaultFileMode, d.candidates...); err != nil {
			return err
		}
	}
	return nil
}

func subDir(dir, sub string) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, sub)
}

func InitLogger() (err error) {
	log.Directory = config.Dirs.Log
	log.PrintLogLevel = config.LogLevel
	log.FileLogLevel = log.LevelError
	log.WebLogLevel = log.LevelError
	if config.LogHook != "" {
		log.Webhook, err = webhook.NewFromURL(config.LogHook)
		if err != nil {
			return err
		}
	}
	log.OnFatal = func() {
		Close()
		os.Exit(1)
	}

	log.Assert(log.CatchCrash())

	ws.WSError = func(err error) {
		log.ErrorQuick(err)
	}
	ws.WSDebug = func(v ...interface{}) {
		log.Debug("%s", fmt.Sprint(v...))
	}

	dirs := reflect.ValueOf(config.Dirs)
	for i := 0; i < dirs.NumField(); i++ {
		log.Debug("%s dir: %s", dirs.Type().Field(i).Name, dirs.Field(i).String())
	}
	return nil
}

func InitHeartbeater() (err error) {
	heartbeater.Filepath = filepath.Join(config.Dirs.Temp, "heartbeat")
	if config.StatusHook != "" {
		heartbeater.Webhook, err = webhook.NewFromURL(config.StatusHook)
	}
	return err
}

func InitCron() (err error) {
	cron, err = gocron.NewScheduler(gocron.WithLogger(&log.SLogCompat{Prefix: "cron"}))
	if err != nil {
		return err
	}
	cleaner.Add(cronCloser{cron})
	return nil
}

type cronCloser struct {
	gocron.Scheduler
}

func (c cronCloser) Close() error {
	return c.Shutdown()
}

func InitTokens() error {
	tokens = map[string]netrc.Machine{}
	mach, _, err := netrc.ParseFile("tokens.netrc")
	if err != nil {
		return err
	}
	for _, e := range mach {
		tokens[e.Name] = *e
	}
	return nil
}

func InitLeveldb() (err error) {
	lvldb, err = leveldb.OpenFile(filepath.Join(config.Dirs.Cache, "leveldb"), nil)
	if err != nil {
		return err
	}
	cleaner.Add(lvldb)
	return nil
}

func InitSqlite() (err error) {
	sqldb, err = sqlite.NewDB(filepath.Join(config.Dirs.Cache, "yeet.db"))
	if err != nil {
		return err
	}
	cleaner.Add(sqldb)
	return sqlite.RunMigrations(sqldb.Writer)
}

// InitGist sets up the gist client when a github token is present. Saving
// drawings and event backups are unavailable without one.
func InitGist() {
	client, err := gist.NewClient(tokens["github"].Password)
	if err != nil {
		log.Warn("gists disabled: %s", err)
		return
	}
	gists = client
}

var botType = reflect.TypeFor[Bots]()

// Run starts every bot method on Bots and waits for each session to be ready.
func Run() {
	cleaner.AddFunc(func() error {
		close(stop)
		return nil
	})

	values := []reflect.Value{
		reflect.ValueOf(Bots{}),
	}
	var waitGroup sync.WaitGroup
	for i := 0; i < botType.NumMethod(); i++ {
		bot := botType.Method(i)
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			for _, r := range bot.Func.Call(values) {
				switch r := r.Interface().(type) {
				case *state.State:
					if r == nil {
						continue
					}
					open(r)
				case error:
					if r != nil {
						log.Fatal("%s: %s", bot.Name, r)
					}
				}
			}
		}()
	}
	waitGroup.Wait()

	cron.Start()
}

const (
	reconnectMin = time.Second
	reconnectMax = time.Minute
)

// backoff doubles the wait between reconnect attempts up to max.
type backoff struct {
	min, max, cur time.Duration
}

func (b *backoff) next() time.Duration {
	switch {
	case b.cur == 0:
		b.cur = b.min
	case b.cur < b.max:
		b.cur = min(b.cur*2, b.max)
	}
	return b.cur
}

func (b *backoff) reset() { b.cur = 0 }

func open(s *state.State) {
	ready := make(chan *gateway.ReadyEvent)
	rm := s.AddHandler(ready)

	go func() {
		ctx := context.Background()
		opts := s.GatewayOpts()
		wait := backoff{min: reconnectMin, max: reconnectMax}
		for {
			if err := s.Open(ctx); err != nil {
				if opts.ErrorIsFatalClose(err) || ctx.Err() != nil {
					log.Fatal("%s", err)
				}
				d := wait.next()
				log.Warn("%s, retrying in %s", err, d)
				time.Sleep(d)
				continue
			}
			wait.reset()
			if err := s.Wait(ctx); err != nil {
				if opts.ErrorIsFatalClose(err) {
					log.Fatal("%s", err)
				}
				if ctx.Err() != nil {
					break
				}
				log.Warn("%s", err)
			}
		}
	}()

	ev := <-ready
	rm()
	close(ready)

	log.Info("%s is ready", ev.User.Username)
	cleaner.Add(s)
}

func Close() int {
	if ok, _ := log.Assert(cleaner.Close()); ok {
		return 1
	}
	return 0
}
