package image

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/manash/adhook/internal/security"
)

const (
	defaultContentType = "image/png"
	defaultMaxBytes    = 20 << 20
	maxRedirects       = 10
)

var (
	ErrTooLarge       = errors.New("image exceeds size limit")
	ErrInvalidDataURL = errors.New("invalid data URL payload")
	ErrTooManyHops    = errors.New("too many redirects")

	dataURLPattern = regexp.MustCompile(`^data:(.+?);base64,(.*)$`)
)

// Blob is fetched image bytes with their declared content type.
type Blob struct {
	Data        []byte
	ContentType string
}

// Fetcher resolves image references (hosted URLs or base64 data URLs) into
// bytes.
type Fetcher struct {
	httpClient *http.Client
	validator  *security.URLValidator
	maxBytes   int64
}

func NewFetcher(timeout time.Duration, validator *security.URLValidator) *Fetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	f := &Fetcher{
		validator: validator,
		maxBytes:  defaultMaxBytes,
	}

	dialer := &net.Dialer{Timeout: 30 * time.Second, Control: f.checkDial}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	f.httpClient = &http.Client{
		Timeout:       timeout,
		Transport:     transport,
		CheckRedirect: f.checkRedirect,
	}
	return f
}

// checkRedirect applies the validator to every hop, not only the URL the
// caller supplied.
func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return ErrTooManyHops
	}
	if f.validator == nil {
		return nil
	}
	if err := f.validator.Validate(req.URL.String()); err != nil {
		return fmt.Errorf("redirect to %s rejected: %w", req.URL.Redacted(), err)
	}
	return nil
}

func (f *Fetcher) checkDial(_, address string, _ syscall.RawConn) error {
	if f.validator == nil {
		return nil
	}
	return f.validator.ValidateAddr(address)
}

func (f *Fetcher) Fetch(ctx context.Context, ref string) (*Blob, error) {
	if strings.HasPrefix(ref, "data:") {
		return decodeDataURL(ref)
	}
	return f.download(ctx, ref)
}

func decodeDataURL(ref string) (*Blob, error) {
	contentType := defaultContentType
	payload := ""
	if m := dataURLPattern.FindStringSubmatch(ref); m != nil {
		contentType = m[1]
		payload = m[2]
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return &Blob{Data: data, ContentType: contentType}, nil
}

// decodeBase64 accepts padded or unpadded payloads in the standard or
// URL-safe alphabet and ignores whitespace.
func decodeBase64(payload string) ([]byte, error) {
	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			return -1
		}
		return r
	}, payload)
	payload = strings.TrimRight(payload, "=")

	enc := base64.RawStdEncoding
	if strings.ContainsAny(payload, "-_") {
		enc = base64.RawURLEncoding
	}
	return enc.DecodeString(payload)
}

func (f *Fetcher) download(ctx context.Context, url string) (*Blob, error) {
	if f.validator != nil {
		if err := f.validator.Validate(url); err != nil {
			return nil, fmt.Errorf("fetch %s rejected: %w", url, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s failed: %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("fetch %s: %w", url, ErrTooLarge)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}
	return &Blob{Data: data, ContentType: contentType}, nil
}

// ExtensionFor maps a content type onto the file extension used for stored
// objects. Unknown types are stored as png.
func ExtensionFor(contentType string) string {
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return "png"
	}
}
