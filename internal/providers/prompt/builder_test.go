package prompt

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"promptpix/internal/domain"
)

func TestBuildEnhancedPrompt(t *testing.T) {
	tests := []struct {
		style domain.Style
		want  string
	}{
		{domain.StyleCartoon, "a cat, cartoon style, animated, colorful, digital art"},
		{domain.StyleRealistic, "a cat, photorealistic, high quality, detailed"},
		{domain.StyleArtistic, "a cat, artistic, painterly, creative style"},
		{domain.StyleDigitalArt, "a cat, digital art, concept art, detailed illustration"},
		{domain.StylePhotographic, "a cat, professional photography, sharp focus, DSLR"},
		{domain.Style("vaporwave"), "a cat"},
		{domain.Style(""), "a cat"},
	}
	for _, tt := range tests {
		if got := BuildEnhancedPrompt("a cat", tt.style); got != tt.want {
			t.Fatalf("BuildEnhancedPrompt(%q) = %q, want %q", tt.style, got, tt.want)
		}
		if again := BuildEnhancedPrompt("a cat", tt.style); again != tt.want {
			t.Fatalf("BuildEnhancedPrompt not stable for %q", tt.style)
		}
	}
}

func TestStaticEnhancerAppendsTwoDistinctAdditions(t *testing.T) {
	enh := NewStaticEnhancer(rand.New(rand.NewPCG(1, 2)))
	for i := 0; i < 50; i++ {
		res, err := enh.Enhance(context.Background(), EnhanceRequest{Prompt: "a lighthouse"})
		if err != nil {
			t.Fatalf("enhance: %v", err)
		}
		if len(res.Additions) != 2 || res.Additions[0] == res.Additions[1] {
			t.Fatalf("additions = %#v", res.Additions)
		}
		want := "a lighthouse, " + strings.Join(res.Additions, ", ")
		if res.Prompt != want {
			t.Fatalf("prompt = %q, want %q", res.Prompt, want)
		}
	}
}

func TestStaticEnhancerRejectsEmptyPrompt(t *testing.T) {
	enh := NewStaticEnhancer(nil)
	if _, err := enh.Enhance(context.Background(), EnhanceRequest{Prompt: "   "}); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("err = %v, want ErrEmptyPrompt", err)
	}
}
