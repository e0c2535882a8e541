package websearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "lowercases scheme and host",
			raw:  "HTTPS://Example.COM/Path",
			want: "https://example.com/Path",
		},
		{
			name: "strips default https port",
			raw:  "https://example.com:443/a",
			want: "https://example.com/a",
		},
		{
			name: "strips default http port",
			raw:  "http://example.com:80/a",
			want: "http://example.com/a",
		},
		{
			name: "keeps non-default port",
			raw:  "https://example.com:8443/a",
			want: "https://example.com:8443/a",
		},
		{
			name: "strips fragment",
			raw:  "https://example.com/a#section",
			want: "https://example.com/a",
		},
		{
			name: "strips trailing slash",
			raw:  "https://example.com/a/",
			want: "https://example.com/a",
		},
		{
			name: "keeps query string",
			raw:  "https://example.com/a?q=1",
			want: "https://example.com/a?q=1",
		},
		{
			name: "trims whitespace",
			raw:  "  https://example.com/a  ",
			want: "https://example.com/a",
		},
		{
			name: "unparseable input returned as is",
			raw:  "not a url",
			want: "not a url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.raw))
		})
	}
}

func TestNormalizeURLStableKey(t *testing.T) {
	variants := []string{
		"https://Example.com/law/",
		"https://example.com:443/law",
		"https://example.com/law#intro",
	}
	for _, v := range variants {
		assert.Equal(t, "https://example.com/law", NormalizeURL(v))
	}
}
