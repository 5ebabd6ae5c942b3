package fal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"reelcraft/internal/pipeline"
)

// configString reads a string tunable from a model's free-form config
// blob, falling back when absent.
func configString(cfg map[string]any, key, fallback string) string {
	if v, ok := cfg[key].(string); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

// configInt reads a numeric tunable. Config blobs come through JSON, so
// numbers arrive as float64.
func configInt(cfg map[string]any, key string, fallback int) int {
	switch v := cfg[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}

// FlorenceCaptioner wraps the florence-2 vision model for the analyzer
// stage. The model only produces a caption, so the adapter passes the
// input image through as the stage output and carries the caption in
// metadata.
type FlorenceCaptioner struct {
	client *Client
}

func NewFlorenceCaptioner(client *Client) *FlorenceCaptioner {
	return &FlorenceCaptioner{client: client}
}

func (f *FlorenceCaptioner) ModelName() string { return "florence-2" }

func (f *FlorenceCaptioner) Invoke(ctx context.Context, in pipeline.Invocation) (pipeline.InvocationResult, error) {
	endpoint := configString(in.Config, "endpoint", "fal-ai/florence-2-large/detailed-caption")
	result, err := f.client.Run(ctx, endpoint, map[string]any{
		"image_url": in.InputURL,
	})
	if err != nil {
		return pipeline.InvocationResult{}, err
	}
	caption, _ := result["results"].(string)
	if strings.TrimSpace(caption) == "" {
		return pipeline.InvocationResult{}, errors.New("florence-2: empty caption")
	}
	return pipeline.InvocationResult{
		OutputURL: in.InputURL,
		Metadata:  map[string]any{"product_description": caption},
	}, nil
}

// BirefnetExtractor wraps the BiRefNet background-removal model for the
// extractor stage.
type BirefnetExtractor struct {
	client *Client
}

func NewBirefnetExtractor(client *Client) *BirefnetExtractor {
	return &BirefnetExtractor{client: client}
}

func (b *BirefnetExtractor) ModelName() string { return "birefnet" }

func (b *BirefnetExtractor) Invoke(ctx context.Context, in pipeline.Invocation) (pipeline.InvocationResult, error) {
	endpoint := configString(in.Config, "endpoint", "fal-ai/birefnet/v2")
	result, err := b.client.Run(ctx, endpoint, map[string]any{
		"image_url":            in.InputURL,
		"model":                configString(in.Config, "model_variant", "General Use (Heavy)"),
		"operating_resolution": configString(in.Config, "operating_resolution", "2048x2048"),
		"output_format":        "png",
		"refine_foreground":    true,
	})
	if err != nil {
		return pipeline.InvocationResult{}, err
	}
	url := nestedURL(result, "image")
	if url == "" {
		return pipeline.InvocationResult{}, errors.New("birefnet: response missing image url")
	}
	return pipeline.InvocationResult{OutputURL: url}, nil
}

// FluxFillDesigner wraps the flux inpainting model used by the legacy
// scene-composition stage.
type FluxFillDesigner struct {
	client *Client
}

func NewFluxFillDesigner(client *Client) *FluxFillDesigner {
	return &FluxFillDesigner{client: client}
}

func (f *FluxFillDesigner) ModelName() string { return "flux-fill" }

func (f *FluxFillDesigner) Invoke(ctx context.Context, in pipeline.Invocation) (pipeline.InvocationResult, error) {
	if strings.TrimSpace(in.Prompt) == "" {
		return pipeline.InvocationResult{}, errors.New("flux-fill: scene prompt required")
	}
	endpoint := configString(in.Config, "endpoint", "fal-ai/flux-pro/v1/fill")
	result, err := f.client.Run(ctx, endpoint, map[string]any{
		"image_url":        in.InputURL,
		"prompt":           in.Prompt,
		"output_format":    "png",
		"safety_tolerance": configString(in.Config, "safety_tolerance", "2"),
	})
	if err != nil {
		return pipeline.InvocationResult{}, err
	}
	url := firstImageURL(result)
	if url == "" {
		url = nestedURL(result, "image")
	}
	if url == "" {
		return pipeline.InvocationResult{}, errors.New("flux-fill: response missing image url")
	}
	return pipeline.InvocationResult{OutputURL: url}, nil
}

// KlingVideoGenerator wraps the Kling image-to-video model for the
// cinematographer stage.
type KlingVideoGenerator struct {
	client *Client
}

func NewKlingVideoGenerator(client *Client) *KlingVideoGenerator {
	return &KlingVideoGenerator{client: client}
}

func (k *KlingVideoGenerator) ModelName() string { return "kling-video" }

func (k *KlingVideoGenerator) Invoke(ctx context.Context, in pipeline.Invocation) (pipeline.InvocationResult, error) {
	if strings.TrimSpace(in.Prompt) == "" {
		return pipeline.InvocationResult{}, errors.New("kling-video: prompt required")
	}
	endpoint := configString(in.Config, "endpoint", "fal-ai/kling-video/v1.6/pro/image-to-video")
	input := map[string]any{
		"image_url":    in.InputURL,
		"prompt":       in.Prompt,
		"duration":     configString(in.Config, "duration", "5"),
		"aspect_ratio": configString(in.Config, "aspect_ratio", "9:16"),
	}
	if strings.TrimSpace(in.NegativePrompt) != "" {
		input["negative_prompt"] = in.NegativePrompt
	}
	result, err := k.client.Run(ctx, endpoint, input)
	if err != nil {
		return pipeline.InvocationResult{}, fmt.Errorf("kling-video: %w", err)
	}
	url := nestedURL(result, "video")
	if url == "" {
		return pipeline.InvocationResult{}, errors.New("kling-video: response missing video url")
	}
	return pipeline.InvocationResult{OutputURL: url}, nil
}

// WanVideoGenerator wraps the Wan 2.1 image-to-video model, an
// alternative cinematographer the switchboard can be pointed at via
// model config.
type WanVideoGenerator struct {
	client *Client
}

func NewWanVideoGenerator(client *Client) *WanVideoGenerator {
	return &WanVideoGenerator{client: client}
}

func (w *WanVideoGenerator) ModelName() string { return "wan-video" }

func (w *WanVideoGenerator) Invoke(ctx context.Context, in pipeline.Invocation) (pipeline.InvocationResult, error) {
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		prompt = "Subtle camera movement, cinematic lighting"
	}
	endpoint := configString(in.Config, "endpoint", "fal-ai/wan-i2v")
	input := map[string]any{
		"image_url":           in.InputURL,
		"prompt":              prompt,
		"num_frames":          configInt(in.Config, "num_frames", 81),
		"frames_per_second":   configInt(in.Config, "frames_per_second", 16),
		"resolution":          configString(in.Config, "resolution", "720p"),
		"num_inference_steps": configInt(in.Config, "num_inference_steps", 30),
		"guide_scale":         configInt(in.Config, "guide_scale", 5),
		"aspect_ratio":        "auto",
	}
	if strings.TrimSpace(in.NegativePrompt) != "" {
		input["negative_prompt"] = in.NegativePrompt
	}
	result, err := w.client.Run(ctx, endpoint, input)
	if err != nil {
		return pipeline.InvocationResult{}, fmt.Errorf("wan-video: %w", err)
	}
	url := nestedURL(result, "video")
	if url == "" {
		return pipeline.InvocationResult{}, errors.New("wan-video: response missing video url")
	}
	return pipeline.InvocationResult{OutputURL: url}, nil
}

var (
	_ pipeline.Invoker = (*FlorenceCaptioner)(nil)
	_ pipeline.Invoker = (*BirefnetExtractor)(nil)
	_ pipeline.Invoker = (*FluxFillDesigner)(nil)
	_ pipeline.Invoker = (*KlingVideoGenerator)(nil)
	_ pipeline.Invoker = (*WanVideoGenerator)(nil)
)

// Invokers returns one adapter per supported model, sharing the client.
func Invokers(client *Client) []pipeline.Invoker {
	return []pipeline.Invoker{
		NewFlorenceCaptioner(client),
		NewBirefnetExtractor(client),
		NewFluxFillDesigner(client),
		NewKlingVideoGenerator(client),
		NewWanVideoGenerator(client),
	}
}
