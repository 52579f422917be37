package models

import (
	"errors"
	"slices"
)

var (
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
	ErrNoImageData = errors.New("image data is required for editing")
)

const (
	DefaultImageModel = "gpt-image-1"
	DefaultTextModel  = "gpt-4o-mini"
	DefaultSize       = "1024x1024"
	DefaultCount      = 4
)

// legacySizes maps sizes offered by older clients onto the sizes the current
// image model accepts.
var legacySizes = map[string]string{
	"1024x1792": "1024x1536",
	"1792x1024": "1536x1024",
}

func SupportedSizes() []string {
	return []string{"1024x1024", "1024x1536", "1536x1024", "auto"}
}

// NormalizeSize maps a requested size onto the allow-list. Unknown values fall
// back to DefaultSize.
func NormalizeSize(size string) string {
	if size == "" {
		return DefaultSize
	}
	if mapped, ok := legacySizes[size]; ok {
		return mapped
	}
	if slices.Contains(SupportedSizes(), size) {
		return size
	}
	return DefaultSize
}

type Request struct {
	Prompt string
	Model  string
	Size   string
	Count  int
}

func NewRequest(prompt string) *Request {
	return &Request{
		Prompt: prompt,
		Model:  DefaultImageModel,
		Size:   DefaultSize,
		Count:  DefaultCount,
	}
}

type EditRequest struct {
	Image  []byte
	Mask   []byte
	Prompt string
	Model  string
	Size   string
	Count  int
}

func NewEditRequest(image []byte, prompt string) *EditRequest {
	return &EditRequest{
		Image:  image,
		Prompt: prompt,
		Model:  DefaultImageModel,
		Size:   DefaultSize,
		Count:  DefaultCount,
	}
}

func (r *EditRequest) Validate() error {
	if r.Image == nil {
		return ErrNoImageData
	}
	if r.Prompt == "" {
		return ErrEmptyPrompt
	}
	return nil
}

type Response struct {
	Images []GeneratedImage
}

type GeneratedImage struct {
	URL    string
	Base64 string
	Index  int
}

// Link returns the hosted URL when the provider returned one, otherwise a
// PNG data URL built from the inline payload. Empty when neither is present.
func (g GeneratedImage) Link() string {
	if g.URL != "" {
		return g.URL
	}
	if g.Base64 != "" {
		return "data:image/png;base64," + g.Base64
	}
	return ""
}

// URLs returns the link of every image in provider order, skipping items
// that carried neither a URL nor a payload.
func (r *Response) URLs() []string {
	urls := make([]string, 0, len(r.Images))
	for _, img := range r.Images {
		if link := img.Link(); link != "" {
			urls = append(urls, link)
		}
	}
	return urls
}

// ChatRequest is a single-turn completion with a system and a user message.
type ChatRequest struct {
	Model        string
	System       string
	User         string
	Temperature  float64
	JSONResponse bool
}
