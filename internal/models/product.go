package models

// GeneratedProduct is the marketing copy produced for one product.
type GeneratedProduct struct {
	ProductName        string   `json:"productName"`
	MarketingCopy      string   `json:"marketingCopy"`
	ProductDescription string   `json:"productDescription"`
	KeyFeatures        []string `json:"keyFeatures"`
	Hashtags           []string `json:"hashtags"`
	ImagePrompt        string   `json:"imagePrompt"`
}

// RequiredProductFields lists the JSON fields every generated object must carry.
var RequiredProductFields = []string{
	"productName",
	"marketingCopy",
	"productDescription",
	"keyFeatures",
	"hashtags",
	"imagePrompt",
}

type ProductEntry struct {
	ImageIndex int              `json:"imageIndex"`
	ImageName  string           `json:"imageName"`
	Product    GeneratedProduct `json:"product"`
}
