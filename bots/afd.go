package bots

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/api/cmdroute"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/state"
	"github.com/diamondburned/arikawa/v3/utils/json/option"
	"github.com/go-co-op/gocron/v2"
	"yeetbot.dev/yeet/internal/afd"
	"yeetbot.dev/yeet/internal/gist"
	"yeetbot.dev/yeet/internal/log"
	"yeetbot.dev/yeet/internal/scheduler"
	"yeetbot.dev/yeet/internal/stats"
	"yeetbot.dev/yeet/internal/storage/sqlite"
)

type AFDConfig struct {
	Open         bool              `toml:"open"`
	MaxClaims    int               `toml:"max_claims"`
	StaffRole    discord.RoleID    `toml:"staff_role"`
	Channel      discord.ChannelID `toml:"channel"`
	ProgressTime Duration          `toml:"progress_time"`
	BackupCron   string            `toml:"backup_cron"`
	BackupGist   string            `toml:"backup_gist"`
	StatChannel  discord.ChannelID `toml:"stat_channel"`
}

const afdBackupFile = "claims.csv"

var afdKnownErrors = []error{
	afd.ErrClosed, afd.ErrUnknownPokemon, afd.ErrAlreadyClaimed, afd.ErrClaimLimit,
	afd.ErrNotClaimed, afd.ErrNotClaimant, afd.ErrApproved, afd.ErrNotSubmitted,
	afd.ErrBadURL, afd.ErrAllClaimed, afd.ErrClaimChanged,
}

func newAFDService() (*afd.Service, error) {
	dex, err := loadPokedex()
	if err != nil {
		return nil, err
	}
	return afd.NewService(sqlite.NewClaimRepo(sqldb), dex, config.Bot.AFD.MaxClaims, config.Bot.AFD.Open), nil
}

// backupAFD writes the claim table to the backup gist, creating the gist the
// first time.
func backupAFD(ctx context.Context, svc *afd.Service) error {
	if gists == nil {
		return gist.ErrNoToken
	}
	var buf bytes.Buffer
	if err := svc.ExportCSV(ctx, &buf); err != nil {
		return err
	}
	file := gist.File{Name: afdBackupFile, Content: buf.String()}

	if id := config.Bot.AFD.BackupGist; id != "" {
		_, err := gists.Update(ctx, id, file)
		return err
	}
	g, err := gists.Create(ctx, "April Fools Draw claims", file)
	if err != nil {
		return err
	}
	config.Bot.AFD.BackupGist = g.ID
	log.Info("created afd backup gist %s, set backup_gist to keep using it", g.URL)
	return nil
}

func isStaff(ev *discord.InteractionEvent) bool {
	if ev.Member == nil {
		return false
	}
	return slices.Contains(ev.Member.RoleIDs, config.Bot.AFD.StaffRole)
}

func mention(id discord.UserID) string {
	if !id.IsValid() {
		return "nobody"
	}
	return id.Mention()
}

func describeClaim(c afd.Claim) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** (#%d) claimed by %s <t:%d:R>, %s", c.Pokemon, c.DexID, mention(c.UserID), c.ClaimedAt.Unix(), c.Status)
	if c.ImageURL != "" {
		fmt.Fprintf(&sb, "\n[submission](%s)", c.ImageURL)
	}
	if c.Note != "" {
		fmt.Fprintf(&sb, "\nnote from %s: %s", mention(c.ReviewedBy), c.Note)
	}
	return sb.String()
}

func progressEmbed(st afd.Stats) discord.Embed {
	return discord.Embed{
		Title:       "April Fools Draw progress",
		Description: fmt.Sprintf("%.1f%% of %d pokémon approved", st.Complete(), st.Total),
		Fields: []discord.EmbedField{
			{Name: "Unclaimed", Value: fmt.Sprint(st.Unclaimed), Inline: true},
			{Name: "Claimed", Value: fmt.Sprint(st.Claimed), Inline: true},
			{Name: "Submitted", Value: fmt.Sprint(st.Submitted), Inline: true},
			{Name: "Approved", Value: fmt.Sprint(st.Approved), Inline: true},
		},
	}
}

func quietReply(content string) *api.InteractionResponseData {
	return &api.InteractionResponseData{
		Content:         option.NewNullableString(content),
		AllowedMentions: &api.AllowedMentions{},
	}
}

func setupAFD(s *state.State, r *cmdroute.Router, ir *interactionRouter) error {
	svc, err := newAFDService()
	if err != nil {
		return err
	}
	cfg := config.Bot.AFD

	claimStat := stats.Stat{
		Name:      "Claims",
		Client:    s.Client,
		ChannelID: cfg.StatChannel,
		LevelDB:   lvldb,
		Delay:     time.Second * 5,
		OnError:   func(err error) { log.ErrorQuick(err) },
	}
	if err := claimStat.Initialise(); err != nil {
		return err
	}
	syncClaims := func(ctx context.Context) {
		st, err := svc.Stats(ctx)
		if ok, _ := log.Assert(err); ok {
			return
		}
		claimStat.Set(int64(st.Claimed + st.Submitted + st.Approved))
	}

	staffOnly := func(next cmdroute.CommandHandlerFunc) cmdroute.CommandHandlerFunc {
		return func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
			if !isStaff(data.Event) {
				return ephemeral("only event staff can do that")
			}
			return next(ctx, data)
		}
	}

	r.Sub("afd", func(r *cmdroute.Router) {
		r.AddFunc("claim", func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
			c, err := svc.Claim(ctx, data.Event.SenderID(), optString(data.Options, "pokemon"))
			if err != nil {
				return commandError(err, afdKnownErrors...)
			}
			syncClaims(ctx)
			return quietReply(fmt.Sprintf("%s claimed **%s**, good luck!", mention(c.UserID), c.Pokemon))
		})

		r.AddFunc("unclaim", func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
			name := optString(data.Options, "pokemon")
			if err := svc.Unclaim(ctx, data.Event.SenderID(), name); err != nil {
				return commandError(err, afdKnownErrors...)
			}
			syncClaims(ctx)
			return ephemeral("unclaimed " + name)
		})

		r.AddFunc("submit", func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
			url := optString(data.Options, "url")
			if id := optSnowflake(data.Options, "image"); id.IsValid() {
				if a, ok := data.Data.Resolved.Attachments[discord.AttachmentID(id)]; ok {
					url = a.URL
				}
			}
			c, err := svc.Submit(ctx, data.Event.SenderID(), optString(data.Options, "pokemon"), url)
			if err != nil {
				return commandError(err, afdKnownErrors...)
			}
			return &api.InteractionResponseData{
				Content: option.NewNullableString(fmt.Sprintf("submitted **%s** for review", c.Pokemon)),
				Embeds: &[]discord.Embed{{
					Title: c.Pokemon,
					Image: &discord.EmbedImage{URL: c.ImageURL},
				}},
			}
		})

		r.AddFunc("view", func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
			c, err := svc.View(ctx, optString(data.Options, "pokemon"))
			if err != nil {
				return commandError(err, afdKnownErrors...)
			}
			return quietReply(describeClaim(c))
		})

		r.AddFunc("list", func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
			user := discord.UserID(optSnowflake(data.Options, "user"))
			claims, err := svc.List(ctx, user)
			if err != nil {
				return commandError(err, afdKnownErrors...)
			}
			if len(claims) == 0 {
				return ephemeral("no claims yet")
			}
			var sb strings.Builder
			for _, c := range claims {
				line := fmt.Sprintf("#%d %s: %s", c.DexID, c.Pokemon, c.Status)
				if !user.IsValid() {
					line += " by " + mention(c.UserID)
				}
				if sb.Len()+len(line)+1 > 4000 {
					sb.WriteString("…")
					break
				}
				sb.WriteString(line + "\n")
			}
			title := "All claims"
			if user.IsValid() {
				title = "Claims"
			}
			return &api.InteractionResponseData{
				Embeds:          &[]discord.Embed{{Title: title, Description: sb.String()}},
				AllowedMentions: &api.AllowedMentions{},
			}
		})

		r.AddFunc("random", func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
			sp, err := svc.Random(ctx)
			if err != nil {
				return commandError(err, afdKnownErrors...)
			}
			return ephemeral(fmt.Sprintf("how about **%s** (#%d)?", sp.Name, sp.ID))
		})

		r.AddFunc("stats", func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
			st, err := svc.Stats(ctx)
			if err != nil {
				return commandError(err)
			}
			return &api.InteractionResponseData{Embeds: &[]discord.Embed{progressEmbed(st)}}
		})

		r.AddFunc("approve", staffOnly(func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
			c, err := svc.Approve(ctx, data.Event.SenderID(), optString(data.Options, "pokemon"))
			if err != nil {
				return commandError(err, afdKnownErrors...)
			}
			return quietReply(fmt.Sprintf("approved %s's **%s** 🎉", mention(c.UserID), c.Pokemon))
		}))

		r.AddFunc("deny", staffOnly(func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
			c, err := svc.Deny(ctx, data.Event.SenderID(), optString(data.Options, "pokemon"), optString(data.Options, "note"))
			if err != nil {
				return commandError(err, afdKnownErrors...)
			}
			return quietReply(fmt.Sprintf("sent **%s** back to %s", c.Pokemon, mention(c.UserID)))
		}))

		r.AddFunc("forceunclaim", staffOnly(func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
			c, err := svc.ForceUnclaim(ctx, optString(data.Options, "pokemon"))
			if err != nil {
				return commandError(err, afdKnownErrors...)
			}
			syncClaims(ctx)
			return quietReply(fmt.Sprintf("removed %s's claim on **%s**", mention(c.UserID), c.Pokemon))
		}))
	})

	ir.Autocomplete("afd", func(ev *discord.InteractionEvent, focused discord.AutocompleteOption) api.AutocompleteChoices {
		if focused.Name != "pokemon" {
			return api.AutocompleteStringChoices{}
		}
		return pokemonChoices(svc.Pokedex, focused.String())
	})

	if cfg.BackupCron != "" {
		_, err := cron.NewJob(gocron.CronJob(cfg.BackupCron, false), gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			log.Assert(backupAFD(ctx, svc))
		}))
		if err != nil {
			return err
		}
	}

	if cfg.Channel.IsValid() {
		go scheduler.Daily(time.Duration(cfg.ProgressTime), stop, func() {
			st, err := svc.Stats(context.Background())
			if ok, _ := log.Assert(err); ok {
				return
			}
			log.Assert(s.SendEmbeds(cfg.Channel, progressEmbed(st)))
		})
	}
	return nil
}
