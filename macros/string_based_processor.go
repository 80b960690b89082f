package macros

import (
	"bytes"
	"strings"
	"sync"
)

type delimiter struct {
	open  string
	close string
}

var delimiters = []delimiter{
	{open: "[", close: "]"},
	{open: "%%", close: "%%"},
}

type stringBasedProcessor struct {
	templates map[string]urlMetaTemplate
	sync.RWMutex
}

// macroSpan locates one macro in a URL. start and end cover the delimiters,
// name is the macro without them.
type macroSpan struct {
	start int
	end   int
	name  string
}

type urlMetaTemplate struct {
	spans []macroSpan
}

func constructTemplate(url string) urlMetaTemplate {
	tmplt := urlMetaTemplate{spans: []macroSpan{}}
	currentIndex := 0
	for currentIndex < len(url) {
		span, ok := nextMacro(url, currentIndex)
		if !ok {
			break
		}
		tmplt.spans = append(tmplt.spans, span)
		currentIndex = span.end
	}
	return tmplt
}

// nextMacro returns the first macro starting at or after from.
func nextMacro(url string, from int) (macroSpan, bool) {
	for i := from; i < len(url); i++ {
		for _, d := range delimiters {
			if !strings.HasPrefix(url[i:], d.open) {
				continue
			}
			nameStart := i + len(d.open)
			closing := strings.Index(url[nameStart:], d.close)
			if closing <= 0 {
				continue
			}
			name := url[nameStart : nameStart+closing]
			if !isMacroName(name) {
				continue
			}
			return macroSpan{
				start: i,
				end:   nameStart + closing + len(d.close),
				name:  name,
			}, true
		}
	}
	return macroSpan{}, false
}

func isMacroName(name string) bool {
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

func (processor *stringBasedProcessor) Replace(url string, provider Provider) (string, error) {
	tmplt := processor.getTemplate(url)
	if len(tmplt.spans) == 0 || provider == nil {
		return url, nil
	}

	var result bytes.Buffer
	// http://tracker.com/error?code=[ERRORCODE]&cb=%%CACHEBUSTING%%
	currentIndex := 0
	for _, span := range tmplt.spans {
		result.WriteString(url[currentIndex:span.start])
		if value, ok := provider.GetMacro(span.name); ok {
			result.WriteString(value)
		} else {
			result.WriteString(url[span.start:span.end])
		}
		currentIndex = span.end
	}
	result.WriteString(url[currentIndex:])
	return result.String(), nil
}

func (processor *stringBasedProcessor) getTemplate(url string) urlMetaTemplate {
	processor.RLock()
	template, ok := processor.templates[url]
	processor.RUnlock()

	if !ok {
		template = constructTemplate(url)
		processor.Lock()
		processor.templates[url] = template
		processor.Unlock()
	}
	return template
}
