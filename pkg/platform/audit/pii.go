package audit

import (
	"encoding/hex"
	"strings"

	"github.com/mssola/useragent"
	"golang.org/x/crypto/blake2b"
)

// Hasher produces keyed BLAKE2b digests so audited identifiers can be
// correlated without storing them.
type Hasher struct {
	key []byte
}

// NewHasher truncates keys longer than blake2b.Size.
func NewHasher(key string) *Hasher {
	k := []byte(key)
	if len(k) > blake2b.Size {
		k = k[:blake2b.Size]
	}
	return &Hasher{key: k}
}

// Hash returns the hex digest of the normalized value, or "" for blank input.
func (h *Hasher) Hash(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return ""
	}
	mac, err := blake2b.New256(h.key)
	if err != nil {
		// Only reachable with an oversized key, which NewHasher prevents.
		return ""
	}
	mac.Write([]byte(v))
	return hex.EncodeToString(mac.Sum(nil))
}

// DeviceSummary reduces a User-Agent header to "browser on os".
func DeviceSummary(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return "unknown"
	}
	ua := useragent.New(userAgent)
	if ua.Bot() {
		name, _ := ua.Browser()
		if name == "" {
			return "bot"
		}
		return "bot: " + name
	}
	browser, _ := ua.Browser()
	os := ua.OS()
	switch {
	case browser != "" && os != "":
		return browser + " on " + os
	case browser != "":
		return browser
	case os != "":
		return os
	default:
		return "unknown"
	}
}
