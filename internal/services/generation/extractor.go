package generation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/phambaophuc/product-copy-generator/internal/failure"
	"github.com/phambaophuc/product-copy-generator/internal/models"
)

// TextSource pulls candidate text out of a response candidate. An empty
// result means the source found nothing usable.
type TextSource struct {
	Name string
	Pick func(c *models.Candidate) string
}

// DecodeStrategy turns cleaned text into a JSON object.
type DecodeStrategy struct {
	Name   string
	Decode func(text string) (map[string]json.RawMessage, error)
}

var (
	// FirstNonEmptyPart returns the first part whose trimmed text is non-empty.
	FirstNonEmptyPart = TextSource{
		Name: "first_non_empty_part",
		Pick: func(c *models.Candidate) string {
			for _, text := range c.PartTexts() {
				if trimmed := strings.TrimSpace(text); trimmed != "" {
					return trimmed
				}
			}
			return ""
		},
	}

	// JoinedParts concatenates every part in order.
	JoinedParts = TextSource{
		Name: "joined_parts",
		Pick: func(c *models.Candidate) string {
			return strings.TrimSpace(strings.Join(c.PartTexts(), "\n"))
		},
	}

	DirectParse = DecodeStrategy{
		Name:   "direct",
		Decode: decodeObject,
	}

	// BraceSlice parses the text between the first '{' and the last '}',
	// dropping commentary the model wrapped around the object.
	BraceSlice = DecodeStrategy{
		Name: "brace_slice",
		Decode: func(text string) (map[string]json.RawMessage, error) {
			sliced, ok := SliceBraces(text)
			if !ok {
				return nil, fmt.Errorf("no JSON object boundaries found")
			}
			return decodeObject(sliced)
		},
	}
)

type Extractor struct {
	sources    []TextSource
	strategies []DecodeStrategy
}

func NewExtractor() *Extractor {
	return &Extractor{
		sources:    []TextSource{FirstNonEmptyPart, JoinedParts},
		strategies: []DecodeStrategy{DirectParse, BraceSlice},
	}
}

func (e *Extractor) Extract(resp *models.RawResponse) (*models.GeneratedProduct, error) {
	candidate := resp.FirstCandidate()
	if candidate == nil {
		return nil, failure.Extraction(failure.ReasonNoCandidates, "response carries no candidates")
	}

	var (
		lastErr error
		tried   []string
	)
	for _, source := range e.sources {
		text := source.Pick(candidate)
		if text == "" || slices.Contains(tried, text) {
			continue
		}
		tried = append(tried, text)

		fields, err := e.decode(StripFences(text))
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", source.Name, err)
			continue
		}
		return buildProduct(fields)
	}

	if lastErr == nil {
		return nil, unparsable(candidate, "response carries no text")
	}
	return nil, unparsable(candidate, lastErr.Error())
}

// decode runs the strategies in order and returns the first object decoded.
func (e *Extractor) decode(cleaned string) (map[string]json.RawMessage, error) {
	var lastErr error
	for _, strategy := range e.strategies {
		fields, err := strategy.Decode(cleaned)
		if err == nil {
			return fields, nil
		}
		lastErr = fmt.Errorf("%s: %w", strategy.Name, err)
	}
	return nil, lastErr
}

// StripFences removes a leading ``` or ```json fence and a trailing ```
// fence. Text without fences is returned trimmed but otherwise unchanged.
func StripFences(text string) string {
	cleaned := strings.TrimSpace(text)

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		if len(cleaned) >= 4 && strings.EqualFold(cleaned[:4], "json") {
			cleaned = cleaned[4:]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	if strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "```"))
	}

	return cleaned
}

func SliceBraces(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func decodeObject(text string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("decoded value is not an object")
	}
	return fields, nil
}

func buildProduct(fields map[string]json.RawMessage) (*models.GeneratedProduct, error) {
	for _, name := range models.RequiredProductFields {
		raw, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, failure.Extraction(failure.ReasonIncompleteSchema, "missing field "+name)
		}
	}

	var product models.GeneratedProduct
	targets := map[string]interface{}{
		"productName":        &product.ProductName,
		"marketingCopy":      &product.MarketingCopy,
		"productDescription": &product.ProductDescription,
		"keyFeatures":        &product.KeyFeatures,
		"hashtags":           &product.Hashtags,
		"imagePrompt":        &product.ImagePrompt,
	}
	for name, target := range targets {
		if err := json.Unmarshal(fields[name], target); err != nil {
			return nil, failure.Extraction(failure.ReasonIncompleteSchema, fmt.Sprintf("field %s has the wrong type", name))
		}
	}

	return &product, nil
}

func unparsable(c *models.Candidate, detail string) error {
	if c.Truncated() {
		return failure.Extraction(failure.ReasonTruncated, detail)
	}
	return failure.Extraction(failure.ReasonMalformedJSON, detail)
}
