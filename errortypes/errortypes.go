package errortypes

import "errors"

// InvalidDocument should be used when the fetched document has no root element or
// its root is not <VAST>.
//
// These errors are returned to the caller and never tracked: there is no document
// to read error URL templates from.
type InvalidDocument struct {
	Message string
}

func (err *InvalidDocument) Error() string {
	return err.Message
}

func (err *InvalidDocument) Code() int {
	return InvalidDocumentErrorCode
}

func (err *InvalidDocument) Severity() Severity {
	return SeverityFatal
}

// UnsupportedVersion flags an <Ad> element holding neither <Wrapper> nor <InLine>.
type UnsupportedVersion struct {
	Message string
}

func (err *UnsupportedVersion) Error() string {
	return err.Message
}

func (err *UnsupportedVersion) Code() int {
	return UnsupportedVersionErrorCode
}

func (err *UnsupportedVersion) Severity() Severity {
	return SeverityWarning
}

// FetchFailure should be used when the transport could not deliver a wrapped document
// (timeout, network error, unsupported environment, unparseable body).
type FetchFailure struct {
	URL   string
	Cause error
}

func (err *FetchFailure) Error() string {
	if err.Cause == nil {
		return "fetch failed: " + err.URL
	}
	return err.Cause.Error()
}

func (err *FetchFailure) Unwrap() error {
	return err.Cause
}

func (err *FetchFailure) Code() int {
	return FetchFailureErrorCode
}

func (err *FetchFailure) Severity() Severity {
	return SeverityWarning
}

// WrapperLimit is used when a wrapper chain is too deep or loops back on a visited URL.
type WrapperLimit struct {
	Message string
}

func (err *WrapperLimit) Error() string {
	return err.Message
}

func (err *WrapperLimit) Code() int {
	return WrapperLimitErrorCode
}

func (err *WrapperLimit) Severity() Severity {
	return SeverityWarning
}

// NoAd is used when the resolution finished without a playable ad.
type NoAd struct {
	Message string
}

func (err *NoAd) Error() string {
	return err.Message
}

func (err *NoAd) Code() int {
	return NoAdErrorCode
}

func (err *NoAd) Severity() Severity {
	return SeverityWarning
}

// CappingDenied is returned by the client when the capping gate refuses a call. It is a
// precondition failure, not a resolution error.
type CappingDenied struct {
	Reason string
}

func (err *CappingDenied) Error() string {
	return "VAST call canceled: " + err.Reason
}

func (err *CappingDenied) Code() int {
	return CappingDeniedErrorCode
}

func (err *CappingDenied) Severity() Severity {
	return SeverityWarning
}

// IsCapped reports whether err, or any error it wraps, is a capping denial.
func IsCapped(err error) bool {
	var denied *CappingDenied
	return errors.As(err, &denied)
}
