package render

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"rdm-dashboard/src/models"
)

// Strings is the host-supplied display bundle. Values are opaque; a missing
// key renders as the key itself.
type Strings map[string]string

func (s Strings) Get(key string) string {
	if v, ok := s[key]; ok && v != "" {
		return v
	}
	return key
}

// -----------------------------------------------------------------------------

// TitleFromKey turns a metric key into a heading: underscores become spaces and
// the first letter of every word is upper-cased ("avg_delivery_time" -> "Avg Delivery Time").
func TitleFromKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	wordStart := true
	for _, r := range strings.ReplaceAll(key, "_", " ") {
		isWord := unicode.IsLetter(r) || unicode.IsDigit(r)
		if isWord && wordStart {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune(r)
		}
		wordStart = !isWord
	}
	return b.String()
}

// AvatarGlyph is the first character of a display name, "?" when empty.
func AvatarGlyph(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "?"
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r))
}

// -----------------------------------------------------------------------------

// FormatNumber renders integers with thousands separators and other values
// with at most two decimals.
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return humanize.Comma(int64(f))
	}
	return humanize.CommafWithDigits(f, 2)
}

// FormatScalar renders a stat or amount value. Text values pass through.
func FormatScalar(s models.MScalar) string {
	if s.Numeric {
		return FormatNumber(s.Number)
	}
	return s.Text
}

// FormatAmount prefixes numeric amounts with the currency symbol and forces two
// decimals. Pre-formatted strings from the backend are kept as they are.
func FormatAmount(s models.MScalar, currency string) string {
	f, ok := s.Float()
	if !ok {
		return s.Text
	}
	return currency + humanize.FormatFloat("#,###.##", f)
}

// FormatTrend returns the arrow, CSS class and magnitude text for a trend.
// A zero trend yields empty strings and ok=false.
func FormatTrend(trend float64) (arrow, class, text string, ok bool) {
	switch {
	case trend > 0:
		arrow, class = "↑", "positive"
	case trend < 0:
		arrow, class = "↓", "negative"
	default:
		return "", "", "", false
	}
	return arrow, class, humanize.FtoaWithDigits(math.Abs(trend), 2) + "%", true
}

// ControlID identifies a status-change control on the page.
func ControlID(kind models.ActionKind, entityID int64, value string) string {
	return string(kind) + ":" + strconv.FormatInt(entityID, 10) + ":" + value
}
