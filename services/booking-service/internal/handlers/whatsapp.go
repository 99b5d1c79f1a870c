package handlers

import (
	"net/url"
	"strings"
)

// WhatsAppURL builds a wa.me click-to-chat link, or nil when phone has no digits.
func WhatsAppURL(phone, text string) *string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		return nil
	}
	link := "https://wa.me/" + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return &link
}
