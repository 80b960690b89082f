// Package macros expands the macros of VAST tracking URL templates. Both the
// bracket form, as in "[ERRORCODE]", and the percent form, as in "%%ERRORCODE%%",
// are recognized.
package macros

type Processor interface {
	// Replace expands every macro of url known to the provider. Unknown macros
	// are left in place.
	Replace(url string, provider Provider) (string, error)
}

// NewProcessor returns a processor which caches the macro positions of every URL
// it has seen.
func NewProcessor() Processor {
	return &stringBasedProcessor{
		templates: make(map[string]urlMetaTemplate),
	}
}
