package models

import "strings"

// GameID derives the stable identifier of a game from its title.
// Lower-cases and trims the title, collapses every run of characters
// outside [a-z0-9] into a single hyphen and strips edge hyphens.
func GameID(title string) string {
	s := strings.TrimSpace(strings.ToLower(title))

	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteByte(c)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
