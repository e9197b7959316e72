package log

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/api/webhook"
	"github.com/diamondburned/arikawa/v3/discord"
)

const logPerms = 0700

const (
	LevelDebug = iota - 1
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
	LevelPanic
	levelLogger
	LevelNone
)

var (
	FileLogLevel  = LevelError
	PrintLogLevel = LevelInfo
	WebLogLevel   = LevelError
	Directory     string
	Webhook       *webhook.Client
	IssueURL      = "https://github.com/yeetbot/yeet/issues/new"
	OnFatal       = func() { os.Exit(1) }
	Output        io.Writer = os.Stdout
)

var outMut sync.Mutex

type pkgPathSubject struct{}

var (
	traceSterliser   *regexp.Regexp = regexp.MustCompile("0[xX][0-9a-fA-F]+|goroutine [0-9]+")
	traceSelfRemover *regexp.Regexp = regexp.MustCompile(regexp.QuoteMeta(reflect.TypeFor[pkgPathSubject]().PkgPath()) + ".+[\n\r]+.+[\n\r]+")
)

var labels = map[int]string{
	LevelPanic: "PNC",
	LevelFatal: "FTL",
	LevelError: "ERR",
	LevelWarn:  "WRN",
	LevelInfo:  "INF",
	LevelDebug: "DBG",
}

// TraceID hashes a log entry with addresses and goroutine numbers removed, so
// the same failure in different runs gets the same id.
func TraceID(long []byte) uint32 {
	hasher := sha1.New()
	hasher.Write(traceSterliser.ReplaceAll(long, []byte("")))
	return binary.BigEndian.Uint32(hasher.Sum(nil))
}

func IDString(id uint32) string {
	return hex.EncodeToString(binary.BigEndian.AppendUint32(nil, id))
}

func web(content string) {
	if Webhook == nil {
		return
	}
	err := Webhook.Execute(webhook.ExecuteData{
		Content: content,
	})
	if err != nil {
		internalError(err)
	}
}

// sendWeb is swapped out in tests.
var sendWeb = web

// out writes the entry under outMut and posts it to the webhook after
// unlocking, so a slow webhook never holds up other log calls.
func out(level int, short string) uint32 {
	id, content := write(level, short)
	if content != "" {
		sendWeb(content)
	}
	return id
}

func write(level int, short string) (uint32, string) {
	outMut.Lock()
	defer outMut.Unlock()

	if level == levelLogger {
		fmt.Fprintf(Output, "[LGR] %s\n", short)
		return 0, ""
	}
	label := labels[level]

	var content string
	if level < FileLogLevel {
		if level >= PrintLogLevel {
			fmt.Fprintf(Output, "[%s] %s\n", label, short)
		}
		if level >= WebLogLevel {
			content = short
		}
		return 0, content
	}

	long := short + "\n\n" + string(debug.Stack())
	id := TraceID([]byte(long))
	idStr := IDString(id)

	if level >= PrintLogLevel {
		fmt.Fprintf(Output, "[%s] (%s) %s\n", label, idStr, short)
	}
	if level >= WebLogLevel {
		content = fmt.Sprintf("`%s` %s", idStr, short)
	}

	if Directory == "" {
		return id, content
	}
	file, err := os.OpenFile(filepath.Join(Directory, idStr+".log"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, logPerms)
	if err != nil {
		internalError(err)
		return id, content
	}
	defer file.Close()
	_, err = file.Write(traceSelfRemover.ReplaceAll([]byte(long), []byte("")))
	if err != nil {
		internalError(err)
	}
	return id, content
}

// Dump logs msg and copies r next to the entry's trace file. Entries below
// FileLogLevel have no trace file, so nothing is dumped for them.
func Dump(r io.Reader, level int, msg string, args ...any) uint32 {
	id := out(level, fmt.Sprintf(msg, args...))
	if Directory == "" || id == 0 {
		return id
	}

	file, err := os.OpenFile(filepath.Join(Directory, IDString(id)+".dmp"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, logPerms)
	if err != nil {
		return id
	}
	defer file.Close()
	io.Copy(file, r)
	return id
}

func DumpResponse(resp *http.Response, body bool, level int, msg string, args ...any) (uint32, error) {
	b, err := httputil.DumpResponse(resp, body)
	if err != nil {
		return 0, err
	}
	return Dump(bytes.NewReader(b), level, msg, args...), nil
}

func internalError(err error) {
	fmt.Fprintf(Output, "[LGR] %s\n", err)
}

func Fatal(msg string, args ...any) {
	out(LevelFatal, fmt.Sprintf(msg, args...))
	OnFatal()
}

func FatalQuick(err error) {
	out(LevelFatal, err.Error())
	OnFatal()
}

func Error(msg string, args ...any) uint32 {
	return out(LevelError, fmt.Sprintf(msg, args...))
}

func ErrorQuick(err error) uint32 {
	return out(LevelError, err.Error())
}

func Warn(msg string, args ...any) uint32 {
	return out(LevelWarn, fmt.Sprintf(msg, args...))
}

func Info(msg string, args ...any) uint32 {
	return out(LevelInfo, fmt.Sprintf(msg, args...))
}

func Debug(msg string, args ...any) uint32 {
	return out(LevelDebug, fmt.Sprintf(msg, args...))
}

// Assert logs the first non-nil error among returns.
func Assert(returns ...any) (bool, uint32) {
	for _, ret := range returns {
		if err, ok := ret.(error); ok && err != nil {
			return true, ErrorQuick(err)
		}
	}
	return false, 0
}

func InteractionResponse(id uint32, title string) *api.InteractionResponseData {
	var stk string
	for i := 1; i < 6; i++ {
		pc, file, line, ok := runtime.Caller(i)
		stk += "\n"
		if !ok {
			stk += "..."
			break
		}
		stk += fmt.Sprintf("%s:%d 0x%x", filepath.Base(file), line, pc)
	}
	idStr := IDString(id)

	return &api.InteractionResponseData{
		Flags: discord.EphemeralMessage,
		Embeds: &[]discord.Embed{
			{
				Author: &discord.EmbedAuthor{
					Name: "There was an error!",
				},
				URL:         IssueURL + "?body=" + url.QueryEscape(fmt.Sprintf("error code: %s\n\n", idStr)),
				Title:       idStr,
				Description: title,
				Footer: &discord.EmbedFooter{
					Text: stk,
				},
			},
		},
	}
}

func CatchCrash() error {
	fp := filepath.Join(Directory, "crash.log")
	b, err := os.ReadFile(fp)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	os.Remove(fp)

	if len(b) > 0 {
		short := string(b)
		if i := bytes.IndexByte(b, '\n'); i >= 0 {
			short = string(b[:i])
		}
		if LevelPanic >= FileLogLevel {
			idStr := IDString(TraceID(b))
			os.WriteFile(filepath.Join(Directory, idStr+".log"), b, logPerms)
			if LevelPanic >= WebLogLevel {
				sendWeb(fmt.Sprintf("`%s` %s", idStr, short))
			}
		} else if LevelPanic >= WebLogLevel {
			sendWeb(short)
		}
	}

	fd, err := os.OpenFile(fp, os.O_WRONLY|os.O_CREATE, logPerms)
	if err != nil {
		return err
	}
	return debug.SetCrashOutput(fd, debug.CrashOptions{})
}
