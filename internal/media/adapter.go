package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"careercoach-backend/internal/content"
	"careercoach-backend/internal/media/huggingface"
	"careercoach-backend/internal/media/luma"
	"careercoach-backend/internal/shared/metrics"
	"careercoach-backend/internal/shared/telemetry"
)

const (
	DefaultPrimaryModel = "stabilityai/stable-diffusion-xl-base-1.0"
	DefaultBackupModel  = "runwayml/stable-diffusion-v1-5"
)

// Config holds provider settings. It is read once at startup.
type Config struct {
	HuggingFaceToken string
	HFBaseURL        string
	PrimaryModel     string
	BackupModel      string
	ImageTimeout     time.Duration

	VideoAPIKey       string
	VideoBaseURL      string
	VideoModel        string
	VideoAspectRatio  string
	VideoPollInterval time.Duration
	VideoMaxWait      time.Duration
}

// Payload is a normalized generation result. Images are inline data URIs;
// videos are plain URLs. Bytes is set for images only.
type Payload struct {
	Data     string
	MimeType string
	Bytes    []byte
}

// ImageModel renders a prompt with a named model.
type ImageModel interface {
	Generate(ctx context.Context, model, prompt string) (huggingface.Image, error)
}

// VideoModel renders a prompt to a hosted video URL.
type VideoModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Adapter routes a prompt to the provider for its content type.
type Adapter struct {
	images  ImageModel
	primary string
	backup  string
	video   VideoModel
}

// NewAdapter wires explicit providers. Either may be nil, in which case
// requests for that type fail with ErrProviderFailure.
func NewAdapter(images ImageModel, primary, backup string, video VideoModel) *Adapter {
	if primary == "" {
		primary = DefaultPrimaryModel
	}
	if backup == "" {
		backup = DefaultBackupModel
	}
	return &Adapter{images: images, primary: primary, backup: backup, video: video}
}

// New builds the provider clients from cfg. Missing credentials leave the
// matching provider unconfigured and are logged.
func New(cfg Config) *Adapter {
	var images ImageModel
	if hf, err := huggingface.NewClient(cfg.HuggingFaceToken, cfg.HFBaseURL, cfg.ImageTimeout); err != nil {
		telemetry.Warn("media.image_provider_disabled", map[string]any{"error": err})
	} else {
		images = hf
	}

	var video VideoModel
	if lc, err := luma.NewClient(luma.Config{
		APIKey:       cfg.VideoAPIKey,
		BaseURL:      cfg.VideoBaseURL,
		Model:        cfg.VideoModel,
		AspectRatio:  cfg.VideoAspectRatio,
		PollInterval: cfg.VideoPollInterval,
		MaxWait:      cfg.VideoMaxWait,
	}); err != nil {
		telemetry.Warn("media.video_provider_disabled", map[string]any{"error": err})
	} else {
		video = lc
	}

	return NewAdapter(images, cfg.PrimaryModel, cfg.BackupModel, video)
}

// Generate produces a payload for prompt.
func (a *Adapter) Generate(ctx context.Context, prompt string, contentType content.Type) (Payload, error) {
	switch contentType {
	case content.TypeImage:
		return a.generateImage(ctx, prompt)
	case content.TypeVideo:
		return a.generateVideo(ctx, prompt)
	default:
		return Payload{}, fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
}

func (a *Adapter) generateImage(ctx context.Context, prompt string) (Payload, error) {
	if a.images == nil {
		return Payload{}, fmt.Errorf("%w: image provider not configured", ErrProviderFailure)
	}

	img, primaryErr := a.callImage(ctx, a.primary, prompt)
	if primaryErr == nil {
		return imagePayload(img), nil
	}
	if ctx.Err() != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrProviderFailure, primaryErr)
	}

	telemetry.Warn("media.image_fallback", map[string]any{
		"primary": a.primary,
		"backup":  a.backup,
		"error":   primaryErr,
	})
	metrics.IncProviderCall("huggingface", "fallback")

	img, backupErr := a.callImage(ctx, a.backup, prompt)
	if backupErr == nil {
		return imagePayload(img), nil
	}
	return Payload{}, fmt.Errorf("%w: %w", ErrProviderFailure, errors.Join(primaryErr, backupErr))
}

func (a *Adapter) callImage(ctx context.Context, model, prompt string) (huggingface.Image, error) {
	start := time.Now()
	img, err := a.images.Generate(ctx, model, prompt)
	record("huggingface", model, start, err)
	return img, err
}

func (a *Adapter) generateVideo(ctx context.Context, prompt string) (Payload, error) {
	if a.video == nil {
		return Payload{}, fmt.Errorf("%w: video provider not configured", ErrProviderFailure)
	}
	start := time.Now()
	videoURL, err := a.video.Generate(ctx, prompt)
	record("luma", "", start, err)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrProviderFailure, err)
	}
	return Payload{Data: videoURL, MimeType: "video/mp4"}, nil
}

func imagePayload(img huggingface.Image) Payload {
	return Payload{
		Data:     content.EncodeDataURI(img.MimeType, img.Bytes),
		MimeType: img.MimeType,
		Bytes:    img.Bytes,
	}
}

func record(provider, model string, start time.Time, err error) {
	latency := metrics.SinceMillis(start)
	metrics.ObserveProviderLatencyMs(provider, latency)

	fields := map[string]any{"provider": provider, "latency_ms": latency}
	if model != "" {
		fields["model"] = model
	}
	if err != nil {
		metrics.IncProviderCall(provider, "error")
		fields["error"] = err
		telemetry.Warn("media.provider_call", fields)
		return
	}
	metrics.IncProviderCall(provider, "ok")
	telemetry.Info("media.provider_call", fields)
}
