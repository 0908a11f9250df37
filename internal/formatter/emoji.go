package formatter

import (
	"github.com/kyokomi/emoji/v2"
)

// RenderShortcodes replaces shortcodes such as :smile: with unicode emoji. Unknown
// shortcodes are left as written.
func RenderShortcodes(text string) string {
	return emoji.Sprint(text)
}
