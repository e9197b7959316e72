package bots

import (
	"github.com/diamondburned/arikawa/v3/api/cmdroute"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/state"
	"yeetbot.dev/yeet/internal/log"
)

type feature struct {
	name  string
	setup func(s *state.State, r *cmdroute.Router, ir *interactionRouter) error
}

var features = []feature{
	{"afd", setupAFD},
	{"draw", setupDraw},
	{"spawn", setupSpawn},
	{"resize", setupResize},
	{"docs", setupDocs},
	{"misc", setupMisc},
}

// YEET runs the slash command bot with every enabled feature.
func (Bots) YEET() (*state.State, error) {
	s := state.New("Bot " + tokens["yeet"].Password)
	s.AddIntents(gateway.IntentGuilds)

	if config.Components.IsEnabled("heartbeat") {
		s.AddHandler(heartbeater.Init)
		s.AddHandler(heartbeater.Heartbeat)
	}

	router := cmdroute.NewRouter()
	router.Use(cmdroute.Deferrable(s, cmdroute.DeferOpts{}))
	ir := newInteractionRouter()

	for _, f := range features {
		if !config.Components.IsEnabled(f.name) {
			log.Info("%s component has been disabled", f.name)
			continue
		}
		if err := f.setup(s, router, ir); err != nil {
			return nil, err
		}
	}

	s.AddInteractionHandler(router)
	s.AddInteractionHandler(ir)
	return s, nil
}
