package bots

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strings"
	"time"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/api/cmdroute"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/state"
	"github.com/diamondburned/arikawa/v3/utils/json/option"
	"github.com/diamondburned/arikawa/v3/utils/sendpart"
	"yeetbot.dev/yeet/internal/imageops"
	"yeetbot.dev/yeet/internal/log"
	"yeetbot.dev/yeet/internal/stats"
)

type ResizeConfig struct {
	MaxBytes    int64             `toml:"max_bytes"`
	Timeout     Duration          `toml:"timeout"`
	StatChannel discord.ChannelID `toml:"stat_channel"`
}

const defaultResizeTimeout = 20 * time.Second

var (
	errNoImage     = errors.New("attach an image to work on")
	errDownloading = errors.New("could not download that image")
)

var resizeKnownErrors = []error{
	errNoImage, errDownloading,
	imageops.ErrTooLarge, imageops.ErrBadDimensions, imageops.ErrUnsupported,
}

type imageJob func(src image.Image, data cmdroute.CommandData) (image.Image, error)

type resizer struct {
	http     *http.Client
	maxBytes int64
	stat     *stats.Stat
}

func (rs *resizer) download(ctx context.Context, a discord.Attachment) (image.Image, error) {
	if rs.maxBytes > 0 && int64(a.Size) > rs.maxBytes {
		return nil, imageops.ErrTooLarge
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := rs.http.Do(req)
	if err != nil {
		log.Debug("downloading %s: %s", a.URL, err)
		return nil, errDownloading
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.DumpResponse(resp, true, log.LevelWarn, "downloading %s: %s", a.URL, resp.Status)
		return nil, errDownloading
	}
	img, _, err := imageops.Decode(resp.Body, rs.maxBytes)
	return img, err
}

func outputName(filename string) string {
	if i := strings.LastIndexByte(filename, '.'); i > 0 {
		filename = filename[:i]
	}
	if filename == "" {
		filename = "image"
	}
	return filename + ".png"
}

// handle wraps an image operation in the download, encode and reply steps
// shared by every image command.
func (rs *resizer) handle(job imageJob) cmdroute.CommandHandlerFunc {
	return func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
		id := optSnowflake(data.Options, "image")
		a, ok := data.Data.Resolved.Attachments[discord.AttachmentID(id)]
		if !id.IsValid() || !ok {
			return commandError(errNoImage, resizeKnownErrors...)
		}
		src, err := rs.download(ctx, a)
		if err != nil {
			return commandError(err, resizeKnownErrors...)
		}
		out, err := job(src, data)
		if err != nil {
			return commandError(err, resizeKnownErrors...)
		}
		var buf bytes.Buffer
		if err := imageops.EncodePNG(&buf, out); err != nil {
			return commandError(err)
		}
		if rs.stat != nil {
			rs.stat.Increment(1)
		}
		b := out.Bounds()
		return &api.InteractionResponseData{
			Content: option.NewNullableString(fmt.Sprintf("%d×%d", b.Dx(), b.Dy())),
			Files:   []sendpart.File{{Name: outputName(a.Filename), Reader: &buf}},
		}
	}
}

func setupResize(s *state.State, r *cmdroute.Router, ir *interactionRouter) error {
	cfg := config.Bot.Resize
	timeout := cfg.Timeout.Or(defaultResizeTimeout)
	rs := &resizer{
		http:     &http.Client{Timeout: timeout},
		maxBytes: cfg.MaxBytes,
		stat: &stats.Stat{
			Name:      "Resizes",
			Client:    s.Client,
			ChannelID: cfg.StatChannel,
			LevelDB:   lvldb,
			Delay:     time.Second * 5,
			OnError:   func(err error) { log.ErrorQuick(err) },
		},
	}
	if rs.maxBytes <= 0 {
		rs.maxBytes = imageops.DefaultMaxBytes
	}
	if err := rs.stat.Initialise(); err != nil {
		return err
	}

	r.AddFunc("resize", rs.handle(func(src image.Image, data cmdroute.CommandData) (image.Image, error) {
		mode := imageops.Mode(optString(data.Options, "mode"))
		if mode == "" {
			mode = imageops.Fit
		}
		return imageops.Resize(src, imageops.Options{
			Width:     optInt(data.Options, "width", 0),
			Height:    optInt(data.Options, "height", 0),
			Mode:      mode,
			Pixelated: optBool(data.Options, "pixelated"),
		})
	}))
	r.AddFunc("scale", rs.handle(func(src image.Image, data cmdroute.CommandData) (image.Image, error) {
		return imageops.Scale(src, optInt(data.Options, "percent", 100), optBool(data.Options, "pixelated"))
	}))
	r.AddFunc("emojify", rs.handle(func(src image.Image, _ cmdroute.CommandData) (image.Image, error) {
		return imageops.Emoji(src)
	}))
	r.AddFunc("stickerify", rs.handle(func(src image.Image, _ cmdroute.CommandData) (image.Image, error) {
		return imageops.Sticker(src)
	}))
	return nil
}
