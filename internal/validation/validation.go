package validation

import (
	"net"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// NicknamePattern defines the valid nickname format: letters, digits, dots, hyphens, underscores.
var NicknamePattern = regexp.MustCompile(`^[\p{L}\p{N}._-]+$`)

// MaxTags is the number of tags a post may carry.
const MaxTags = 10

// ValidateNickname checks if a nickname is 2-32 characters of the allowed set.
func ValidateNickname(nickname string) (bool, string) {
	n := len([]rune(nickname))
	if n < 2 || n > 32 {
		return false, "Nickname must be 2-32 characters"
	}
	if !NicknamePattern.MatchString(nickname) {
		return false, "Nickname may only contain letters, numbers, dots, hyphens and underscores"
	}
	return true, ""
}

// NormalizeURL trims input and prepends https:// when no scheme is given.
// Empty input stays empty.
func NormalizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return s
	}
	if strings.Contains(s, "://") {
		return s
	}
	return "https://" + strings.TrimLeft(s, "/")
}

// ValidateURL checks if a URL is valid and uses an allowed scheme (http/https only).
// This rejects javascript:, data:, vbscript: and other dangerous schemes.
func ValidateURL(urlStr string) (bool, string) {
	if urlStr == "" {
		return false, "URL is required"
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return false, "Invalid URL format"
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false, "URL must use http:// or https:// scheme"
	}

	if u.Host == "" {
		return false, "URL must have a valid host"
	}

	return true, ""
}

// Domain returns the host of rawURL without port and leading "www.".
func Domain(rawURL string) string {
	u, err := url.Parse(NormalizeURL(rawURL))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// NormalizeTags lowercases tags, strips whitespace and '#', drops empties and
// duplicates, and keeps at most MaxTags in their original order.
func NormalizeTags(tags []string) []string {
	out := []string{}
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		t := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return unicode.ToLower(r)
		}, tag)
		t = strings.TrimLeft(t, "#")
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}

// IsPrivateIP checks if an IP address is in a private/reserved range.
func IsPrivateIP(ip net.IP) bool {
	if ip == nil {
		return false
	}

	if ip.IsLoopback() || ip.IsUnspecified() || ip.IsPrivate() {
		return true
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}

	// Cloud metadata endpoints (169.254.169.254 is already link-local)
	return ip.Equal(net.ParseIP("168.63.129.16"))
}
