// Package cost estimates provider spend for log lines.
package cost

import "github.com/manash/adhook/pkg/models"

const CurrencyUSD = "USD"

type Estimate struct {
	PerImage float64
	Total    float64
	Currency string
}

type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Images estimates the cost of count images. Unknown gpt-image-1 sizes fall
// back to the square medium rate; other models are reported as zero.
func (c *Calculator) Images(model, size string, count int) *Estimate {
	if model == "" {
		model = models.DefaultImageModel
	}
	perImage, ok := GetImagePrice(model, size, "")
	if !ok && model == models.DefaultImageModel {
		perImage = defaultImagePrice
	}
	if count < 0 {
		count = 0
	}
	return &Estimate{
		PerImage: perImage,
		Total:    perImage * float64(count),
		Currency: CurrencyUSD,
	}
}
