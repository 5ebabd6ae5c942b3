// Package prompts derives video-generation prompts from product analysis
// output and from vibe presets. Category detection is keyword matching
// over free text, so the table lives as data: adding a category means
// adding a row, not touching orchestration.
package prompts

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// categoryTemplate maps detection keywords to a cinematic prompt template.
// %PRODUCT% is replaced by the extracted product name.
type categoryTemplate struct {
	name     string
	keywords []string
	template string
}

var categories = []categoryTemplate{
	{
		name:     "beverage",
		keywords: []string{"can", "bottle", "drink", "cola", "beverage", "soda", "beer", "water"},
		template: "%PRODUCT% slowly rotating on a reflective dark surface, condensation droplets glistening on the surface, cool blue studio lighting with warm accent lights, premium beverage commercial aesthetic, smooth 360 rotation, cinematic quality",
	},
	{
		name:     "electronics",
		keywords: []string{"phone", "laptop", "device", "electronic", "screen", "tablet", "computer", "camera", "headphone"},
		template: "%PRODUCT% floating and rotating in a minimalist dark environment, subtle holographic reflections, premium tech product showcase, smooth cinematic camera orbit, Apple-style commercial aesthetic",
	},
	{
		name:     "fashion",
		keywords: []string{"shoe", "watch", "bag", "clothing", "jewelry", "accessory", "purse", "wallet", "belt", "hat"},
		template: "%PRODUCT% elegantly displayed with dramatic side lighting, subtle rotation revealing details, luxury fashion photography style, soft shadows, high-end commercial quality",
	},
	{
		name:     "food",
		keywords: []string{"food", "snack", "package", "box", "cookie", "chip", "candy", "chocolate"},
		template: "%PRODUCT% on a clean surface with appetizing presentation, warm golden lighting, gentle camera push-in, food photography commercial style, mouth-watering aesthetic",
	},
	{
		name:     "cosmetics",
		keywords: []string{"cosmetic", "makeup", "perfume", "fragrance", "lipstick", "beauty", "skincare", "lotion"},
		template: "%PRODUCT% on elegant marble surface, soft diffused lighting with subtle pink and gold accents, gentle rotation revealing label, luxury beauty commercial aesthetic, premium product photography",
	},
	{
		name:     "home_decor",
		keywords: []string{"vase", "lamp", "candle", "decor", "furniture", "pillow", "plant"},
		template: "%PRODUCT% in a modern minimalist setting, natural window lighting, slow camera dolly creating depth, interior design magazine aesthetic, warm inviting atmosphere",
	},
	{
		name:     "toys",
		keywords: []string{"toy", "game", "doll", "figure", "puzzle", "card"},
		template: "%PRODUCT% on colorful vibrant background, playful dynamic lighting, gentle rotation showing all angles, fun energetic commercial style, bright cheerful atmosphere",
	},
}

const genericTemplate = "%PRODUCT% product showcase, slowly rotating 360 degrees, professional studio lighting with soft shadows, clean white background, premium commercial photography style, smooth cinematic motion"

// GenericVideoPrompt is the fallback when no product description is available.
const GenericVideoPrompt = "Product showcase, slowly rotating 360 degrees, professional studio lighting with soft shadows, clean background, premium commercial photography style, smooth cinematic motion"

// SmartVideoPrompt generates a category-aware video prompt from a product
// description. Unmatched descriptions get the generic template.
func SmartVideoPrompt(description string) string {
	desc := strings.ToLower(description)
	productName := extractProductName(description)

	for _, cat := range categories {
		for _, kw := range cat.keywords {
			if strings.Contains(desc, kw) {
				return strings.ReplaceAll(cat.template, "%PRODUCT%", productName)
			}
		}
	}
	return strings.ReplaceAll(genericTemplate, "%PRODUCT%", productName)
}

// DefaultNegativePrompt lists the failure modes every product video should
// steer away from.
func DefaultNegativePrompt() string {
	return "blur, distort, low quality, pixelated, shaky, text overlay, watermark, poor lighting, overexposed, underexposed"
}

// extractProductName takes the first significant phrase of the
// description, capped at six words.
func extractProductName(description string) string {
	words := strings.Fields(description)
	if len(words) > 6 {
		words = words[:6]
	}
	name := strings.Join(words, " ")
	if name == "" {
		return name
	}
	first, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(first)) + name[size:]
}
