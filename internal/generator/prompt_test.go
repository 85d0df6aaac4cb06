package generator

import (
	"strings"
	"testing"

	"socialgen/internal/domain"
)

func TestBuildCaptionPrompt(t *testing.T) {
	prompt := buildCaptionPrompt(domain.GenerationRequest{
		Title:          "Weekend promo",
		Topic:          "seasonal discount",
		Brief:          "20% off all cold brew",
		BrandName:      "Acme Coffee",
		Tone:           "playful",
		TargetAudience: "students",
		Locale:         "id-ID",
	})
	for _, want := range []string{
		"brand 'Acme Coffee'",
		"Topic: seasonal discount",
		"Key message or brief: 20% off all cold brew",
		"Target Audience: students",
		"Required Tone: Playful",
		"Write the caption in Indonesian.",
		"5 to 8 relevant hashtags",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildCaptionPromptDefaults(t *testing.T) {
	prompt := buildCaptionPrompt(domain.GenerationRequest{
		Brief:     "launch week",
		BrandName: "Acme",
		Tone:      "formal",
	})
	if !strings.Contains(prompt, "Topic: General brand content") {
		t.Errorf("missing topic fallback:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Target Audience: a general audience") {
		t.Errorf("missing audience fallback:\n%s", prompt)
	}
	if strings.Contains(prompt, "Write the caption in") {
		t.Errorf("empty locale should not add a language line:\n%s", prompt)
	}
}

func TestBuildCaptionPromptEnglishLocaleOmitsLanguageLine(t *testing.T) {
	prompt := buildCaptionPrompt(domain.GenerationRequest{
		Brief: "b", BrandName: "Acme", Tone: "casual", Locale: "en-US",
	})
	if strings.Contains(prompt, "Write the caption in") {
		t.Errorf("english locale should not add a language line:\n%s", prompt)
	}
}

func TestBuildImagePrompt(t *testing.T) {
	prompt := buildImagePrompt(domain.GenerationRequest{
		Topic:          "new store opening",
		Brief:          "ribbon cutting at dawn",
		BrandName:      "Acme Coffee",
		Tone:           "Playful",
		TargetAudience: "commuters",
	})
	for _, want := range []string{
		"brand 'Acme Coffee'",
		"topic: 'new store opening'",
		"style should be playful",
		"appealing to commuters",
		"No text on the image.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
