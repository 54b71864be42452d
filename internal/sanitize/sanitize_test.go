package sanitize

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/config"
)

func defaultNormalizer() *CityNormalizer {
	cfg := config.Default()
	rules := make([]Alias, 0, len(cfg.CityAliases))
	for _, a := range cfg.CityAliases {
		rules = append(rules, Alias{Raw: a.Alias, Canonical: a.City})
	}
	return NewCityNormalizer(rules)
}

func TestCityNormalizer_AliasTable(t *testing.T) {
	n := defaultNormalizer()

	// every alias in the table must resolve to its canonical city,
	// regardless of case or whitespace padding
	for _, a := range config.Default().CityAliases {
		for _, variant := range []string{
			a.Alias,
			strings.ToUpper(a.Alias),
			"  " + a.Alias + "  ",
			"\t" + strings.ToUpper(a.Alias) + "\n",
		} {
			assert.Equal(t, a.City, n.Normalize(variant), "alias %q variant %q", a.Alias, variant)
		}
	}
}

func TestCityNormalizer_Fallbacks(t *testing.T) {
	n := defaultNormalizer()

	t.Run("unknown city comes back title-cased", func(t *testing.T) {
		assert.Equal(t, "Cape Town", n.Normalize("cape town"))
		assert.Equal(t, "Cape Town", n.Normalize("CAPE TOWN"))
	})

	t.Run("empty input stays empty", func(t *testing.T) {
		assert.Equal(t, "", n.Normalize(""))
		assert.Equal(t, "", n.Normalize("   "))
	})

	t.Run("partial match inside a longer string", func(t *testing.T) {
		assert.Equal(t, "Johannesburg", n.Normalize("Sandton City"))
		assert.Equal(t, "Pretoria", n.Normalize("City of Tshwane Metro"))
	})
}

func TestCityNormalizer_FromAddress(t *testing.T) {
	n := defaultNormalizer()

	tests := []struct {
		address string
		want    string
	}{
		{"123 Main Rd, Sandton, 2196, South Africa", "Johannesburg"},
		{"45 Church St, Hatfield, Pretoria", "Pretoria"},
		{"1 Long St, Cape Town", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			assert.Equal(t, tt.want, n.FromAddress(tt.address))
		})
	}
}

func TestParseDate(t *testing.T) {
	t.Run("ISO datetime", func(t *testing.T) {
		got := ParseDate("2024-12-17T10:30:00Z")
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2024, 12, 17, 10, 30, 0, 0, time.UTC), *got)
	})

	t.Run("date only", func(t *testing.T) {
		got := ParseDate("2024-12-17")
		require.NotNil(t, got)
		assert.Equal(t, 2024, got.Year())
		assert.Equal(t, time.December, got.Month())
		assert.Equal(t, 17, got.Day())
	})

	t.Run("ambiguous slash dates parse day-first", func(t *testing.T) {
		got := ParseDate("01/02/2024")
		require.NotNil(t, got)
		assert.Equal(t, 1, got.Day())
		assert.Equal(t, time.February, got.Month())

		got = ParseDate("17/12/2024")
		require.NotNil(t, got)
		assert.Equal(t, 17, got.Day())
		assert.Equal(t, time.December, got.Month())
	})

	t.Run("human readable", func(t *testing.T) {
		got := ParseDate("December 17, 2024")
		require.NotNil(t, got)
		assert.Equal(t, time.December, got.Month())
		assert.Equal(t, 17, got.Day())
	})

	t.Run("epoch seconds", func(t *testing.T) {
		got := ParseDate(1702800000)
		require.NotNil(t, got)
		assert.Equal(t, time.Unix(1702800000, 0).UTC(), *got)
	})

	t.Run("epoch milliseconds by magnitude", func(t *testing.T) {
		got := ParseDate(float64(1702800000000))
		require.NotNil(t, got)
		assert.Equal(t, time.Unix(1702800000, 0).UTC(), *got)
	})

	t.Run("time.Time passes through in UTC", func(t *testing.T) {
		in := time.Date(2024, 12, 17, 12, 0, 0, 0, time.FixedZone("SAST", 2*3600))
		got := ParseDate(in)
		require.NotNil(t, got)
		assert.Equal(t, in.UTC(), *got)
	})

	t.Run("garbage yields nil", func(t *testing.T) {
		assert.Nil(t, ParseDate("not a date"))
		assert.Nil(t, ParseDate(""))
		assert.Nil(t, ParseDate("   "))
		assert.Nil(t, ParseDate(nil))
		assert.Nil(t, ParseDate(struct{}{}))
	})
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"html tags", "<p>Hello <b>World</b>!</p>", "Hello World !"},
		{"entities", "Tom &amp; Jerry", "Tom & Jerry"},
		{"whitespace runs", "Hello    World\n\t!", "Hello World !"},
		{"script contents dropped", "before<script>alert(1)</script>after", "before after"},
		{"control characters", "a\x00b\x1fc", "abc"},
		{"plain text untouched", "Jazz night at The Orbit", "Jazz night at The Orbit"},
		{"entity-encoded tag decodes literally in one pass", "&lt;b&gt;bold&lt;/b&gt;", "<b>bold</b>"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestCleanText_Idempotent(t *testing.T) {
	inputs := []string{
		"<p>Hello <b>World</b>!</p>",
		"Tom &amp; Jerry",
		"  spaced   out  ",
		"plain",
		"",
		"<div><span>nested</span> markup</div> and &quot;quotes&quot;",
	}
	for _, in := range inputs {
		once := CleanText(in)
		assert.Equal(t, once, CleanText(once), "input %q", in)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("A", 100)
	got := Truncate(long, 50)
	assert.Len(t, got, 50)
	assert.True(t, strings.HasSuffix(got, "..."))

	assert.Equal(t, "short", Truncate("short", 50))
	assert.Equal(t, long, Truncate(long, 0))

	t.Run("max too small for an ellipsis", func(t *testing.T) {
		assert.Equal(t, "he", Truncate("hello", 2))
		assert.Equal(t, "hel", Truncate("hello", 3))
		assert.Equal(t, "h...", Truncate("hello", 4))
		assert.Equal(t, "héllo", Truncate("héllo", 5))
	})
}

func TestValidateAndCleanURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already valid", "https://example.com/event", "https://example.com/event"},
		{"scheme added", "example.com/event", "https://example.com/event"},
		{"protocol relative", "//example.com/event", "https://example.com/event"},
		{"http kept", "http://example.com", "http://example.com"},
		{"whitespace trimmed", "  example.com  ", "https://example.com"},
		{"not a url", "not a url at all", ""},
		{"bad scheme", "ftp://example.com/file", ""},
		{"no dot in host", "justaword", ""},
		{"empty", "", ""},
		{"only spaces", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateAndCleanURL(tt.in))
		})
	}
}
