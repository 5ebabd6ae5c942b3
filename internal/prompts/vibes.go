package prompts

import "reelcraft/internal/domain"

// VibePrompt is the static template pair for a vibe preset, used by the
// legacy scene-composition stage.
type VibePrompt struct {
	Template string
	Negative string
}

var vibePrompts = map[domain.Vibe]VibePrompt{
	domain.VibeMinimalist: {
		Template: "Product centered on a seamless white studio backdrop, soft even lighting, generous negative space, clean minimalist composition, muted neutral palette",
		Negative: "clutter, busy background, harsh shadows, saturated colors",
	},
	domain.VibeEcoFriendly: {
		Template: "Product resting on natural wood and stone, surrounded by soft green foliage, warm morning sunlight, organic earthy tones, sustainable lifestyle aesthetic",
		Negative: "plastic, artificial lighting, urban setting, neon colors",
	},
	domain.VibeHighEnergy: {
		Template: "Product bursting through vivid color splashes, dynamic motion streaks, bold saturated background, dramatic rim lighting, energetic sports-commercial look",
		Negative: "dull, static, muted colors, flat lighting",
	},
	domain.VibeLuxuryNoir: {
		Template: "Product on polished black marble, deep shadows with a single dramatic spotlight, gold accent reflections, opulent noir atmosphere, high-contrast luxury editorial style",
		Negative: "bright colors, daylight, casual setting, low contrast",
	},
}

// VibeTemplate returns the prompt pair for a vibe; ok is false for unknown
// vibes.
func VibeTemplate(v domain.Vibe) (VibePrompt, bool) {
	p, ok := vibePrompts[v]
	return p, ok
}
