package macros

import (
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

func Test_stringBasedProcessor_Replace(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		values map[string]interface{}
		want   string
	}{
		{
			name:   "bracket macro",
			url:    "http://tracker.com/error?code=[ERRORCODE]",
			values: map[string]interface{}{MacroKeyErrorCode: 303},
			want:   "http://tracker.com/error?code=303",
		},
		{
			name:   "percent macro",
			url:    "http://tracker.com/error?code=%%ERRORCODE%%&again=[ERRORCODE]",
			values: map[string]interface{}{MacroKeyErrorCode: 301},
			want:   "http://tracker.com/error?code=301&again=301",
		},
		{
			name:   "unknown macro kept",
			url:    "http://tracker.com/error?code=[ERRORCODE]&pos=[CONTENTPLAYHEAD]",
			values: map[string]interface{}{MacroKeyErrorCode: 900},
			want:   "http://tracker.com/error?code=900&pos=[CONTENTPLAYHEAD]",
		},
		{
			name:   "value is escaped",
			url:    "http://tracker.com/error?msg=[ERRORMESSAGE]",
			values: map[string]interface{}{"ERRORMESSAGE": "a b&c"},
			want:   "http://tracker.com/error?msg=a+b%26c",
		},
		{
			name: "timestamp",
			url:  "http://tracker.com/error?ts=[TIMESTAMP]",
			want: "http://tracker.com/error?ts=" + url.QueryEscape("2024-03-01T12:30:00Z"),
		},
		{
			name: "no macro",
			url:  "http://tracker.com/pixel.gif",
			want: "http://tracker.com/pixel.gif",
		},
		{
			name: "brackets that are not macros",
			url:  "http://[::1]:8080/e?list=[a,b]",
			want: "http://[::1]:8080/e?list=[a,b]",
		},
		{
			name: "unterminated",
			url:  "http://tracker.com/e?code=[ERRORCODE",
			want: "http://tracker.com/e?code=[ERRORCODE",
		},
		{
			name: "empty",
			url:  "",
			want: "",
		},
	}
	processor := NewProcessor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := processor.Replace(tt.url, NewProvider(now, tt.values))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// second pass goes through the cached template
			got, err = processor.Replace(tt.url, NewProvider(now, tt.values))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCacheBusting(t *testing.T) {
	got, err := NewProcessor().Replace("http://tracker.com/p?cb=[CACHEBUSTING]", NewProvider(now, nil))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^http://tracker\.com/p\?cb=\d{8}$`), got)
}

func TestReplaceWithoutProvider(t *testing.T) {
	got, err := NewProcessor().Replace("http://tracker.com/p?code=[ERRORCODE]", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://tracker.com/p?code=[ERRORCODE]", got)
}

func BenchmarkStringBasedProcessor(b *testing.B) {
	processor := NewProcessor()
	provider := NewProvider(now, map[string]interface{}{MacroKeyErrorCode: 303})
	for n := 0; n < b.N; n++ {
		_, _ = processor.Replace("http://tracker.com/e?code=[ERRORCODE]&cb=[CACHEBUSTING]&ts=%%TIMESTAMP%%", provider)
	}
}
