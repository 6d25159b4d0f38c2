package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"caixa_scrooper/models"
)

var nonAlnumRegex = regexp.MustCompile(`[^a-z0-9]`)

// Fingerprint keys a record by its detail link and property code. Two visits
// of the same listing produce the same value.
func Fingerprint(rec *models.PropertyRecord) string {
	input := fmt.Sprintf("%s|%s", NormalizeLink(rec.Link), NormalizeCode(rec.PropertyCode))
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:16])
}

// NormalizeCode strips punctuation and spacing from a property code, so
// "8444-4000-0123-4" and "8444400001234" compare equal.
func NormalizeCode(code string) string {
	return nonAlnumRegex.ReplaceAllString(strings.ToLower(code), "")
}

// NormalizeLink lowercases scheme and host and drops any fragment.
func NormalizeLink(link string) string {
	link = strings.TrimSpace(link)
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return link
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return u.String()
}
