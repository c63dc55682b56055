package drift

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// DisplayTitle renders a migration name like "create_user_index" as
// "Create User Index" for tables and notifications.
func DisplayTitle(name string) string {
	spaced := make([]rune, 0, len(name))
	for _, r := range name {
		if r == '_' || r == '-' {
			spaced = append(spaced, ' ')
			continue
		}
		spaced = append(spaced, r)
	}
	return titleCaser.String(string(spaced))
}
