package errortypes

// Defines numeric codes for the VAST errors the resolver reports. The values are
// the ones defined by the IAB VAST error table and end up in the [ERRORCODE] macro.
const (
	UnsupportedVersionErrorCode = 101
	FetchFailureErrorCode       = 301
	WrapperLimitErrorCode       = 302
	NoAdErrorCode               = 303
	UndefinedErrorCode          = 900
)

// Defines numeric codes for errors which never reach a tracking URL.
const (
	InvalidDocumentErrorCode = 10001
	CappingDeniedErrorCode   = 10002
)

// Coder provides an error or warning code with severity.
type Coder interface {
	Code() int
	Severity() Severity
}

// ReadCode returns the error code, or UndefinedErrorCode if unavailable.
func ReadCode(err error) int {
	if e, ok := err.(Coder); ok {
		return e.Code()
	}
	return UndefinedErrorCode
}

// IsTrackable reports whether the code belongs to the VAST error table and may be
// substituted into an error URL template.
func IsTrackable(code int) bool {
	return code >= 100 && code < 1000
}
