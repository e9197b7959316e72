package log

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevDir := Output, Directory
	Output = &buf
	Directory = t.TempDir()
	t.Cleanup(func() {
		Output, Directory = prevOut, prevDir
	})
	return &buf
}

func TestInfoPrintsLabel(t *testing.T) {
	buf := captureOutput(t)

	id := Info("hello %s", "there")

	assert.Zero(t, id)
	assert.Equal(t, "[INF] hello there\n", buf.String())
}

func TestDebugBelowPrintLevel(t *testing.T) {
	buf := captureOutput(t)

	Debug("quiet")

	assert.Empty(t, buf.String())
}

func TestErrorWritesTraceFile(t *testing.T) {
	buf := captureOutput(t)

	id := Error("something broke")
	require.NotZero(t, id)

	assert.Contains(t, buf.String(), "[ERR] ("+IDString(id)+") something broke")
	b, err := os.ReadFile(filepath.Join(Directory, IDString(id)+".log"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "something broke")
}

func TestAssert(t *testing.T) {
	captureOutput(t)

	failed, id := Assert(1, nil)
	assert.False(t, failed)
	assert.Zero(t, id)

	var nilErr error
	failed, _ = Assert(nilErr)
	assert.False(t, failed)

	failed, id = Assert("x", errors.New("bad"))
	assert.True(t, failed)
	assert.NotZero(t, id)
}

func TestTraceIDIgnoresAddresses(t *testing.T) {
	a := TraceID([]byte("goroutine 12 at 0xdeadbeef"))
	b := TraceID([]byte("goroutine 99 at 0x1234"))
	assert.Equal(t, a, b)
}

func TestSLogCompatFormatsPairs(t *testing.T) {
	buf := captureOutput(t)

	(&SLogCompat{Prefix: "cron"}).Info("job ran", "name", "backup", "took")

	assert.Equal(t, "[INF] cron: job ran name=backup took\n", buf.String())
}

func TestInteractionResponse(t *testing.T) {
	data := InteractionResponse(0xabcdef01, "could not draw")
	require.NotNil(t, data.Embeds)
	embed := (*data.Embeds)[0]
	assert.Equal(t, "abcdef01", embed.Title)
	assert.Equal(t, "could not draw", embed.Description)
	assert.Contains(t, embed.URL, "error+code%3A+abcdef01")
}

func TestDumpResponseWritesBody(t *testing.T) {
	captureOutput(t)

	resp := &http.Response{
		Status:     "502 Bad Gateway",
		StatusCode: http.StatusBadGateway,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader("upstream fell over")),
	}
	id, err := DumpResponse(resp, true, LevelError, "fetching %s", "docs")
	require.NoError(t, err)
	require.NotZero(t, id)

	b, err := os.ReadFile(filepath.Join(Directory, IDString(id)+".dmp"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "502 Bad Gateway")
	assert.Contains(t, string(b), "upstream fell over")
}

func TestDumpBelowFileLevelWritesNothing(t *testing.T) {
	captureOutput(t)

	id := Dump(strings.NewReader("body"), LevelWarn, "just a warning")
	assert.Zero(t, id)

	entries, err := os.ReadDir(Directory)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWebhookSentOutsideLock(t *testing.T) {
	buf := captureOutput(t)
	prevSend, prevWeb := sendWeb, WebLogLevel
	t.Cleanup(func() { sendWeb, WebLogLevel = prevSend, prevWeb })

	WebLogLevel = LevelWarn
	var sent []string
	sendWeb = func(content string) {
		sent = append(sent, content)
		Info("delivered")
	}

	done := make(chan struct{})
	go func() {
		Warn("disk nearly full")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("logging from the webhook sender deadlocked")
	}

	assert.Equal(t, []string{"disk nearly full"}, sent)
	assert.Equal(t, "[WRN] disk nearly full\n[INF] delivered\n", buf.String())
}
