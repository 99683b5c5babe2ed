package models

const (
	MinFeaturesCount = 1
	MaxFeaturesCount = 6
	MinHashtagsCount = 1
	MaxHashtagsCount = 8
	MinSentences     = 1
	MaxSentences     = 10

	// Upper bounds for the reduced second attempt.
	RetryMaxFeatures  = 3
	RetryMaxHashtags  = 3
	RetryMaxSentences = 2

	DefaultLanguage = "Arabic"
)

// GenerationConfig holds the user-tunable output parameters. It is passed by
// value so every run works on its own snapshot.
type GenerationConfig struct {
	FeaturesCount        int    `json:"featuresCount"`
	HashtagsCount        int    `json:"hashtagsCount"`
	DescriptionSentences int    `json:"descriptionSentences"`
	Language             string `json:"language,omitempty"`
}

func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		FeaturesCount:        3,
		HashtagsCount:        4,
		DescriptionSentences: 3,
		Language:             DefaultLanguage,
	}
}

// Clamp returns a copy with every count forced into its allowed range.
func (c GenerationConfig) Clamp() GenerationConfig {
	c.FeaturesCount = clamp(c.FeaturesCount, MinFeaturesCount, MaxFeaturesCount)
	c.HashtagsCount = clamp(c.HashtagsCount, MinHashtagsCount, MaxHashtagsCount)
	c.DescriptionSentences = clamp(c.DescriptionSentences, MinSentences, MaxSentences)
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	return c
}

// Reduced returns the smaller config used for the automatic second attempt.
func (c GenerationConfig) Reduced() GenerationConfig {
	c = c.Clamp()
	c.FeaturesCount = min(c.FeaturesCount, RetryMaxFeatures)
	c.HashtagsCount = min(c.HashtagsCount, RetryMaxHashtags)
	c.DescriptionSentences = min(c.DescriptionSentences, RetryMaxSentences)
	return c
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
