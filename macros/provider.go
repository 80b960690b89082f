package macros

import (
	"fmt"
	"math/rand"
	"net/url"
	"strconv"
	"time"
)

const (
	MacroKeyErrorCode    = "ERRORCODE"
	MacroKeyCacheBusting = "CACHEBUSTING"
	MacroKeyTimestamp    = "TIMESTAMP"
)

type Provider interface {
	// GetMacro returns the url-encoded value of the macro and whether it is known.
	GetMacro(key string) (string, bool)
}

type macroProvider struct {
	macros map[string]string
}

// NewProvider returns a provider with the per-ping macros CACHEBUSTING and
// TIMESTAMP computed from now, plus the given values. Given values override
// the computed ones.
func NewProvider(now time.Time, values map[string]interface{}) Provider {
	provider := &macroProvider{macros: make(map[string]string, len(values)+2)}
	provider.macros[MacroKeyCacheBusting] = fmt.Sprintf("%08d", rand.Intn(100000000))
	provider.macros[MacroKeyTimestamp] = now.Format(time.RFC3339)
	for key, value := range values {
		provider.macros[key] = stringify(value)
	}
	return provider
}

func (p *macroProvider) GetMacro(key string) (string, bool) {
	value, ok := p.macros[key]
	if !ok {
		return "", false
	}
	return url.QueryEscape(value), true
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
