package generator

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"socialgen/internal/domain"
)

var titleCaser = cases.Title(language.English)

// buildCaptionPrompt renders the chat prompt for one post. Campaign context
// rides along on the request so the generator needs no store access.
func buildCaptionPrompt(req domain.GenerationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create an engaging Instagram caption for the brand '%s'.\n", req.BrandName)
	fmt.Fprintf(&b, "Topic: %s\n", coalesce(req.Topic, "General brand content"))
	fmt.Fprintf(&b, "Key message or brief: %s\n", req.Brief)
	fmt.Fprintf(&b, "Target Audience: %s\n", coalesce(req.TargetAudience, "a general audience"))
	fmt.Fprintf(&b, "Required Tone: %s\n", titleCaser.String(req.Tone))
	if lang := localeLanguage(req.Locale); lang != "" {
		fmt.Fprintf(&b, "Write the caption in %s.\n", lang)
	}
	b.WriteString(`
Requirements:
- The caption must be under 2000 characters.
- It must include 5 to 8 relevant hashtags.
- It must include 2-4 appropriate emojis.
- It must end with a clear call-to-action.
- Do NOT include quotation marks around the final caption.`)
	return b.String()
}

// buildImagePrompt renders the image-generation prompt for one post.
func buildImagePrompt(req domain.GenerationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A professional, high-quality, vibrant Instagram post image for the brand '%s'.\n", req.BrandName)
	fmt.Fprintf(&b, "The image should visually represent the topic: '%s'\n", coalesce(req.Topic, "Brand content"))
	fmt.Fprintf(&b, "The style should be %s and visually appealing to %s.\n",
		strings.ToLower(req.Tone), coalesce(req.TargetAudience, "a general audience"))
	fmt.Fprintf(&b, "Brief: %s\n", req.Brief)
	b.WriteString("Key elements to include: High quality, 1:1 aspect ratio. No text on the image.")
	return b.String()
}

func localeLanguage(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No || base.String() == "en" {
		return ""
	}
	return display(base.String())
}

// display covers the locales the product actually serves; anything else
// falls back to the raw subtag, which the model copes with fine.
func display(base string) string {
	switch base {
	case "id":
		return "Indonesian"
	case "es":
		return "Spanish"
	case "pt":
		return "Portuguese"
	case "de":
		return "German"
	case "fr":
		return "French"
	}
	return base
}

func coalesce(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
