package security

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

var (
	ErrPrivateIP     = errors.New("URL resolves to private IP address")
	ErrInvalidScheme = errors.New("only HTTPS URLs are allowed")
)

// URLValidator guards outbound fetches of caller-supplied image URLs.
type URLValidator struct {
	AllowHTTP    bool
	AllowPrivate bool
	// LookupIP resolves hostnames. Defaults to net.LookupIP.
	LookupIP func(host string) ([]net.IP, error)
}

func (v *URLValidator) Validate(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	switch parsed.Scheme {
	case "https":
	case "http":
		if !v.AllowHTTP {
			return ErrInvalidScheme
		}
	default:
		return ErrInvalidScheme
	}

	if v.AllowPrivate {
		return nil
	}
	return v.validateHostIP(parsed.Hostname())
}

// ValidateAddr checks a dialed host:port. It runs after name resolution, so
// a hostname that re-resolves to a private address is still refused.
func (v *URLValidator) ValidateAddr(address string) error {
	if v.AllowPrivate {
		return nil
	}
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("invalid address %q", address)
	}
	if isPrivateIP(ip) {
		return ErrPrivateIP
	}
	return nil
}

func (v *URLValidator) validateHostIP(host string) error {
	if ip := net.ParseIP(host); ip != nil {
		if isPrivateIP(ip) {
			return ErrPrivateIP
		}
		return nil
	}

	lookup := v.LookupIP
	if lookup == nil {
		lookup = net.LookupIP
	}
	ips, err := lookup(host)
	if err != nil {
		// resolution failures surface when the fetch itself runs
		return nil
	}

	for _, ip := range ips {
		if isPrivateIP(ip) {
			return ErrPrivateIP
		}
	}

	return nil
}

func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsPrivate() || ip.IsUnspecified() {
		return true
	}

	if ip4 := ip.To4(); ip4 != nil {
		switch {
		case ip4[0] == 0: // 0.0.0.0/8
			return true
		case ip4[0] == 100 && ip4[1] >= 64 && ip4[1] <= 127: // 100.64.0.0/10 (CGNAT)
			return true
		case ip4[0] == 192 && ip4[1] == 0 && ip4[2] == 0: // 192.0.0.0/24
			return true
		case ip4[0] >= 224: // multicast and reserved
			return true
		}
	}

	return false
}
