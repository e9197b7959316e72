package bots

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"yeetbot.dev/yeet/internal/log"
	"yeetbot.dev/yeet/internal/pokeapi"
	"yeetbot.dev/yeet/internal/spawn"
	"yeetbot.dev/yeet/internal/stats"
	"yeetbot.dev/yeet/internal/wordfile"
	"yeetbot.dev/yeet/resource"
)

// CommandLine methods are maintenance tasks run as `yeet <task> [args]`
// instead of starting the bot.
type CommandLine struct{}

func countChanges(oldCommands, newCommands []discord.Command) (added, removed int) {
	seen := make(map[discord.CommandID]bool, len(oldCommands))
	for _, c := range oldCommands {
		seen[c.ID] = true
	}
	for _, c := range newCommands {
		if !seen[c.ID] {
			added++
		}
		delete(seen, c.ID)
	}
	return added, len(seen)
}

// UPDATE_COMMANDS registers the commands of every enabled component, in the
// command guild when one is configured. Bulk overwriting already drops
// commands that are no longer defined; "remove" additionally clears the
// global commands when registering to a guild.
func (CommandLine) UPDATE_COMMANDS(args []string) {
	removeGlobal := len(args) >= 1 && args[0] == "remove"

	client := api.NewClient("Bot " + tokens["yeet"].Password)
	app, err := client.CurrentApplication()
	if err != nil {
		log.FatalQuick(err)
	}
	createData := resource.All(config.Components.IsEnabled)

	var oldCommands, newCommands []discord.Command
	where := "global"
	if guildID := config.CommandGuild; guildID.IsValid() {
		guild, err := client.Guild(guildID)
		if err != nil {
			log.FatalQuick(err)
		}
		where = guild.Name
		if oldCommands, err = client.GuildCommands(app.ID, guildID); err != nil {
			log.FatalQuick(err)
		}
		if newCommands, err = client.BulkOverwriteGuildCommands(app.ID, guildID, createData); err != nil {
			log.FatalQuick(err)
		}
		if removeGlobal {
			if _, err := client.BulkOverwriteCommands(app.ID, []api.CreateCommandData{}); err != nil {
				log.FatalQuick(err)
			}
			log.Info("removed global commands")
		}
	} else {
		if oldCommands, err = client.Commands(app.ID); err != nil {
			log.FatalQuick(err)
		}
		if newCommands, err = client.BulkOverwriteCommands(app.ID, createData); err != nil {
			log.FatalQuick(err)
		}
	}

	added, removed := countChanges(oldCommands, newCommands)
	log.Info("Added %d, removed %d, and modified %d commands in %s.", added, removed, len(newCommands)-added, where)
}

func download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.DumpResponse(resp, true, log.LevelError, "GET %s: %s", url, resp.Status)
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// UPDATE_SPAWNS downloads the spawn table, checks it parses and replaces the
// cached copy the bot loads on start.
func (CommandLine) UPDATE_SPAWNS(args []string) {
	source := config.Bot.Spawn.Source
	if len(args) >= 1 {
		source = args[0]
	}
	if source == "" {
		log.Fatal("no spawn table source, set bot.spawn.source or pass a url")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	data, err := download(ctx, source)
	if err != nil {
		log.FatalQuick(err)
	}
	dex, err := spawn.Load(bytes.NewReader(data))
	if err != nil {
		log.Fatal("spawn table from %s is invalid: %s", source, err)
	}

	target := filepath.Join(config.Dirs.Cache, spawnCacheFile)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		log.FatalQuick(err)
	}
	if err := os.Rename(tmp, target); err != nil {
		log.FatalQuick(err)
	}
	log.Info("saved %d species to %s", dex.Len(), target)
}

// UPDATE_WORDS rebuilds the name archive used by the random pokémon game from
// PokeAPI, falling back to the spawn table when PokeAPI is unreachable.
func (CommandLine) UPDATE_WORDS(args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client := &pokeapi.Client{BaseURL: config.Bot.Misc.PokeAPI}
	names, err := client.Species(ctx)
	if err != nil || len(names) == 0 {
		log.Warn("pokeapi species list unavailable, using the spawn table: %v", err)
		dex, err := loadPokedex()
		if err != nil {
			log.FatalQuick(err)
		}
		names = names[:0]
		for _, s := range dex.All() {
			names = append(names, s.Name)
		}
	}

	wr, err := wordfile.NewWordWriter(filepath.Join(config.Dirs.Cache, wordsFile))
	if err != nil {
		log.FatalQuick(err)
	}
	for _, name := range names {
		if err := wr.Add(name); err != nil {
			wr.Close()
			log.FatalQuick(err)
		}
		log.Debug("added word: %s", name)
	}
	if err := wr.Close(); err != nil {
		log.FatalQuick(err)
	}
	log.Info("wrote %d names", len(names))
}

// PRINT_WORD prints the archived names at the given indexes.
func (CommandLine) PRINT_WORD(args []string) {
	wr, err := wordfile.NewWordReader(filepath.Join(config.Dirs.Cache, wordsFile))
	if err != nil {
		log.FatalQuick(err)
	}
	defer wr.Close()

	fmt.Printf("%d words\n", wr.Length())
	for _, arg := range args {
		i, err := strconv.Atoi(arg)
		if err != nil {
			log.Warn("%s is not an index", arg)
			continue
		}
		word, err := wr.Get(i)
		if err != nil {
			log.Warn("%d: %s", i, err)
			continue
		}
		fmt.Printf("%d: %s\n", i, word)
	}
}

// BACKUP_EVENT writes the afd claim table to its backup gist now.
func (CommandLine) BACKUP_EVENT(args []string) {
	svc, err := newAFDService()
	if err != nil {
		log.FatalQuick(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := backupAFD(ctx, svc); err != nil {
		log.FatalQuick(err)
	}
	log.Info("backed up afd claims")
}

// RESET_STATS recounts the stats that can be derived from stored data.
func (CommandLine) RESET_STATS(args []string) {
	svc, err := newAFDService()
	if err != nil {
		log.FatalQuick(err)
	}
	st, err := svc.Stats(context.Background())
	if err != nil {
		log.FatalQuick(err)
	}
	total := int64(st.Claimed + st.Submitted + st.Approved)
	if err := lvldb.Put(stats.GetKey("Claims"), binary.AppendVarint(nil, total), nil); err != nil {
		log.FatalQuick(err)
	}
	log.Info("found %d claims", total)
}

var clType = reflect.TypeFor[CommandLine]()

// RunCommandLine runs the task named by the first argument and reports
// whether there was one.
func RunCommandLine() bool {
	if len(os.Args) <= 1 {
		return false
	}

	toRun, ok := clType.MethodByName(strings.ReplaceAll(strings.ToUpper(os.Args[1]), "-", "_"))
	if !ok {
		return false
	}

	toRun.Func.Call([]reflect.Value{
		reflect.ValueOf(CommandLine{}),
		reflect.ValueOf(os.Args[2:]),
	})
	return true
}
