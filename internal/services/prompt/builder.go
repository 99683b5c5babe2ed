package prompt

import (
	"fmt"
	"strings"

	"github.com/phambaophuc/product-copy-generator/internal/models"
)

const (
	TypeObject = "object"
	TypeString = "string"
	TypeArray  = "array"
)

// Schema is the structured-output declaration sent with each request. It
// marshals to the responseSchema shape of the generation API.
type Schema struct {
	Type       string             `json:"type"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Items      *Schema            `json:"items,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

type Prompt struct {
	Instruction string
	Schema      *Schema
	Config      models.GenerationConfig
}

type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build renders the instruction for a clamped copy of cfg. The counts it asks
// for are advisory; callers never validate the returned list lengths.
func (b *Builder) Build(cfg models.GenerationConfig) Prompt {
	cfg = cfg.Clamp()

	return Prompt{
		Instruction: instruction(cfg),
		Schema:      ProductSchema(),
		Config:      cfg,
	}
}

func ProductSchema() *Schema {
	str := func() *Schema { return &Schema{Type: TypeString} }
	list := func() *Schema { return &Schema{Type: TypeArray, Items: str()} }

	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"productName":        str(),
			"marketingCopy":      str(),
			"productDescription": str(),
			"keyFeatures":        list(),
			"hashtags":           list(),
			"imagePrompt":        str(),
		},
		Required: append([]string(nil), models.RequiredProductFields...),
	}
}

func instruction(cfg models.GenerationConfig) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Analyze the product shown in the attached image(s) and write concise marketing content in %s.\n", cfg.Language)
	sb.WriteString("Return a JSON object with exactly these fields:\n")
	sb.WriteString("1. productName: a catchy, short product name\n")
	sb.WriteString("2. marketingCopy: two short, clear marketing sentences\n")
	fmt.Fprintf(&sb, "3. productDescription: %s describing appearance, color, size, benefits, uses, quality and design\n",
		plural(cfg.DescriptionSentences, "sentence", "sentences"))
	fmt.Fprintf(&sb, "4. keyFeatures: %s, each with a short explanation\n",
		plural(cfg.FeaturesCount, "key feature", "key features"))
	fmt.Fprintf(&sb, "5. hashtags: %s relevant to the product\n",
		plural(cfg.HashtagsCount, "hashtag", "hashtags"))
	sb.WriteString("6. imagePrompt: a concise, professional English prompt for generating a similar image\n\n")
	sb.WriteString("Describe only what is visible in the image and do not skip visible details.\n")
	sb.WriteString("Return valid JSON only, without any extra text or formatting.")

	return sb.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
