package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

const DefaultPlatform = "Facebook"

// SuggestedPlatforms are offered by the UI. The server accepts any value.
var SuggestedPlatforms = []string{"Facebook", "Instagram", "TikTok"}

// CopyVariation is one candidate piece of ad copy.
type CopyVariation struct {
	Headline    string   `json:"headline"`
	PrimaryText string   `json:"primary_text"`
	CTA         string   `json:"cta"`
	Keywords    []string `json:"keywords"`
}

const ImageResultType = "images"

type ImageResult struct {
	Type   string   `json:"type"`
	Prompt string   `json:"prompt,omitempty"`
	Images []string `json:"images"`
}

type VariationsKind int

const (
	VariationsUnknown VariationsKind = iota
	VariationsCopy
	VariationsImages
)

func (k VariationsKind) String() string {
	switch k {
	case VariationsCopy:
		return "copy"
	case VariationsImages:
		return "images"
	default:
		return "unknown"
	}
}

// Variations is the stored payload of a generation: either a list of copy
// variations or an image result. The raw JSON is kept so rows written by
// older clients round-trip unchanged.
type Variations struct {
	raw json.RawMessage
}

func CopyVariations(list []CopyVariation) (Variations, error) {
	if list == nil {
		list = []CopyVariation{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return Variations{}, err
	}
	return Variations{raw: data}, nil
}

func ImageVariations(prompt string, images []string) (Variations, error) {
	if images == nil {
		images = []string{}
	}
	data, err := json.Marshal(ImageResult{Type: ImageResultType, Prompt: prompt, Images: images})
	if err != nil {
		return Variations{}, err
	}
	return Variations{raw: data}, nil
}

func RawVariations(data []byte) Variations {
	return Variations{raw: bytes.Clone(data)}
}

func (v Variations) Raw() json.RawMessage {
	return v.raw
}

func (v Variations) IsZero() bool {
	return len(bytes.TrimSpace(v.raw)) == 0
}

// Kind discriminates by shape: arrays are copy variations, objects tagged
// "images" or carrying an images field are image results.
func (v Variations) Kind() VariationsKind {
	trimmed := bytes.TrimSpace(v.raw)
	if len(trimmed) == 0 {
		return VariationsUnknown
	}
	switch trimmed[0] {
	case '[':
		return VariationsCopy
	case '{':
		var probe struct {
			Type   string          `json:"type"`
			Images json.RawMessage `json:"images"`
		}
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return VariationsUnknown
		}
		if probe.Type == ImageResultType || len(probe.Images) > 0 {
			return VariationsImages
		}
	}
	return VariationsUnknown
}

func (v Variations) CopyVariations() ([]CopyVariation, bool) {
	if v.Kind() != VariationsCopy {
		return nil, false
	}
	var list []CopyVariation
	if err := json.Unmarshal(v.raw, &list); err != nil {
		return nil, false
	}
	return list, true
}

func (v Variations) ImageResult() (*ImageResult, bool) {
	if v.Kind() != VariationsImages {
		return nil, false
	}
	var res ImageResult
	if err := json.Unmarshal(v.raw, &res); err != nil {
		return nil, false
	}
	return &res, true
}

func (v Variations) MarshalJSON() ([]byte, error) {
	if v.IsZero() {
		return []byte("null"), nil
	}
	return v.raw, nil
}

func (v *Variations) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		v.raw = nil
		return nil
	}
	v.raw = bytes.Clone(data)
	return nil
}

// RecordID is the identifier assigned by the store. Hosted tables use either
// uuid or integer keys, so integer ids are written back as JSON numbers.
type RecordID string

func (id RecordID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *RecordID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case string(trimmed) == "null":
		*id = ""
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*id = RecordID(s)
	default:
		*id = RecordID(trimmed)
	}
	return nil
}

// Generation is one persisted ad copy or ad image result.
type Generation struct {
	ID          RecordID   `json:"id"`
	UserID      *string    `json:"user_id"`
	ProductName string     `json:"product_name"`
	Description string     `json:"description"`
	Platform    string     `json:"platform"`
	Variations  Variations `json:"variations"`
	CreatedAt   time.Time  `json:"created_at"`
}
