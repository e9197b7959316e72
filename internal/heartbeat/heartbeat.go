package heartbeat

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/diamondburned/arikawa/v3/api/webhook"
	"github.com/diamondburned/arikawa/v3/gateway"
	"yeetbot.dev/yeet/internal/log"
)

// Heartbeater stores the time of the last heartbeat ack so that downtime can
// be reported after a restart.
type Heartbeater struct {
	Filepath string
	Webhook  *webhook.Client

	interval time.Duration
	now      func() time.Time
	mut      sync.Mutex
}

func (h *Heartbeater) Output(str string) {
	log.Info("%s", str)
	if h.Webhook == nil {
		return
	}
	log.Assert(h.Webhook.Execute(webhook.ExecuteData{Content: str}))
}

func (h *Heartbeater) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

func (h *Heartbeater) Init(hello *gateway.HelloEvent) {
	h.mut.Lock()
	h.interval = hello.HeartbeatInterval.Duration() + 20*time.Second
	h.mut.Unlock()
	h.Heartbeat(nil)
}

func (h *Heartbeater) Heartbeat(*gateway.HeartbeatAckEvent) {
	h.mut.Lock()
	defer h.mut.Unlock()

	timestamp := h.clock()
	last, err := os.ReadFile(h.Filepath)
	switch {
	case err != nil || len(last) < 8:
		h.Output("back online")
	default:
		out := timestamp.Sub(time.UnixMilli(int64(binary.LittleEndian.Uint64(last))))
		if out > h.interval {
			h.Output(fmt.Sprintf("back online, out for %dm.", int(out.Minutes())))
		}
	}

	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(timestamp.UnixMilli()))
	log.Assert(os.WriteFile(h.Filepath, buf, 0600))
}
