// Package sanitize normalizes single fields of raw venue/event records.
//
// Every function is total: malformed input degrades to an empty or nil
// value instead of an error, so a bad field can never abort an
// ingestion batch.
package sanitize

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/net/html"
)

var (
	controlRe = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// ParseDate converts heterogeneous date representations to UTC.
// Accepted: time.Time, numeric epoch (milliseconds when > 1e12,
// seconds otherwise), and strings (RFC3339 first, then a day-first
// liberal parse so ambiguous 01/02/2024-style dates resolve to
// 1 February, then numeric-string epoch). Returns nil when nothing
// parses.
func ParseDate(v any) *time.Time {
	switch d := v.(type) {
	case nil:
		return nil
	case time.Time:
		return utc(d)
	case *time.Time:
		if d == nil {
			return nil
		}
		return utc(*d)
	case int:
		return epochTime(float64(d))
	case int64:
		return epochTime(float64(d))
	case float64:
		return epochTime(d)
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return nil
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return utc(t)
		}
		if t, err := dateparse.ParseAny(s, dateparse.PreferMonthFirst(false)); err == nil {
			return utc(t)
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return epochTime(f)
		}
		return nil
	default:
		return nil
	}
}

func utc(t time.Time) *time.Time {
	u := t.UTC()
	return &u
}

func epochTime(f float64) *time.Time {
	if f > 1e12 { // milliseconds
		f /= 1000
	}
	sec := int64(f)
	t := time.Unix(sec, int64((f-float64(sec))*1e9)).UTC()
	return &t
}

// CleanText strips markup tags (including script/style contents),
// decodes HTML entities, drops control characters, collapses runs of
// whitespace and trims. Idempotent on its own output, with one caveat:
// tag-strip and entity decode happen in a single pass, so an
// entity-encoded tag ("&lt;b&gt;") decodes to a literal tag on the
// first pass and would be stripped by a second. Such output is never
// fed back through.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = controlRe.ReplaceAllString(s, "")
	s = stripMarkup(s)
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CleanTitle cleans an event/venue title, bounded at 500 chars.
func CleanTitle(s string) string {
	return Truncate(CleanText(s), 500)
}

// CleanDescription cleans a description, bounded at 5000 chars.
func CleanDescription(s string) string {
	return Truncate(CleanText(s), 5000)
}

// Truncate shortens s to at most max runes, marking the cut with an
// ellipsis when it fits. max <= 0 means no limit.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// stripMarkup walks the tokenizer over s, keeping text content and
// replacing every tag with a space. Text tokens come back with
// entities already decoded.
func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			if name, _ := z.TagName(); isInvisible(string(name)) {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			if name, _ := z.TagName(); isInvisible(string(name)) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		default:
			b.WriteByte(' ')
		}
	}
}

func isInvisible(tag string) bool {
	return tag == "script" || tag == "style"
}

// ValidateAndCleanURL trims the input, prepends https:// when the
// string is schemeless but host-like, and returns "" (never an error)
// when the result is not a structurally valid http(s) URL.
func ValidateAndCleanURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(raw, "//"):
		raw = "https:" + raw
	case !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://"):
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	host := u.Hostname()
	if host == "" {
		return ""
	}
	if !strings.Contains(host, ".") && host != "localhost" {
		return ""
	}
	return u.String()
}
