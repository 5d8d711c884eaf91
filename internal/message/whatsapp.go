package message

import (
	"net/url"
	"strings"
	"unicode"
)

// SanitizeNumber strips all whitespace from a destination number.
func SanitizeNumber(value string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, value)
}

// WhatsAppNumber reduces a number to dialable digits. Ten-digit local numbers
// get the default country code prepended; eleven or more digits are taken as
// already carrying one.
func WhatsAppNumber(value, defaultCountryCode string) string {
	var digits strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) == 10 {
		return defaultCountryCode + d
	}
	return d
}

// EncodeText URL-encodes message text using %20 for spaces, matching what
// wa.me expects in the text query parameter.
func EncodeText(text string) string {
	return strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

// Link builds a WhatsApp deep link. Destination and text remain available
// separately via SanitizeNumber/WhatsAppNumber and EncodeText, so callers can
// construct other schemes.
func Link(number, text string) string {
	return "https://wa.me/" + url.QueryEscape(SanitizeNumber(number)) + "?text=" + EncodeText(text)
}
