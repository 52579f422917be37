package cost

// OpenAI image pricing, USD per image.
// Source: https://openai.com/api/pricing/

type PricingKey struct {
	Model   string
	Size    string
	Quality string
}

var imagePricing = map[PricingKey]float64{
	{Model: "gpt-image-1", Size: "1024x1024", Quality: "low"}:    0.011,
	{Model: "gpt-image-1", Size: "1024x1024", Quality: "medium"}: 0.042,
	{Model: "gpt-image-1", Size: "1024x1024", Quality: "high"}:   0.167,

	{Model: "gpt-image-1", Size: "1536x1024", Quality: "low"}:    0.016,
	{Model: "gpt-image-1", Size: "1536x1024", Quality: "medium"}: 0.063,
	{Model: "gpt-image-1", Size: "1536x1024", Quality: "high"}:   0.250,

	{Model: "gpt-image-1", Size: "1024x1536", Quality: "low"}:    0.016,
	{Model: "gpt-image-1", Size: "1024x1536", Quality: "medium"}: 0.063,
	{Model: "gpt-image-1", Size: "1024x1536", Quality: "high"}:   0.250,
}

// "auto" is billed at the square medium rate.
const defaultImagePrice = 0.042

func GetImagePrice(model, size, quality string) (float64, bool) {
	if quality == "" || quality == "auto" {
		quality = "medium"
	}
	if size == "" || size == "auto" {
		size = "1024x1024"
	}
	price, ok := imagePricing[PricingKey{Model: model, Size: size, Quality: quality}]
	return price, ok
}
