package errortypes

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "unsupported-version",
			err:  &UnsupportedVersion{Message: "no InLine or Wrapper"},
			want: 101,
		},
		{
			name: "fetch-failure",
			err:  &FetchFailure{URL: "http://a", Cause: errors.New("timeout")},
			want: 301,
		},
		{
			name: "wrapper-limit",
			err:  &WrapperLimit{Message: "too deep"},
			want: 302,
		},
		{
			name: "no-ad",
			err:  &NoAd{Message: "empty"},
			want: 303,
		},
		{
			name: "invalid-document",
			err:  &InvalidDocument{Message: "bad root"},
			want: InvalidDocumentErrorCode,
		},
		{
			name: "plain-error",
			err:  errors.New("default error"),
			want: UndefinedErrorCode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReadCode(tt.err))
		})
	}
}

func TestFetchFailureKeepsCauseMessage(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &FetchFailure{URL: "http://example.com/vast.xml", Cause: cause}

	assert.Equal(t, "dial tcp: connection refused", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "fetch failed: http://a", (&FetchFailure{URL: "http://a"}).Error())
}

func TestIsCapped(t *testing.T) {
	denied := &CappingDenied{Reason: "free-lunch capping"}

	assert.True(t, IsCapped(denied))
	assert.True(t, IsCapped(fmt.Errorf("client: %w", denied)))
	assert.False(t, IsCapped(&NoAd{}))
	assert.False(t, IsCapped(nil))
	assert.True(t, IsWarning(denied))
	assert.Equal(t, "VAST call canceled: free-lunch capping", denied.Error())
}

func TestIsTrackable(t *testing.T) {
	assert.True(t, IsTrackable(UnsupportedVersionErrorCode))
	assert.True(t, IsTrackable(UndefinedErrorCode))
	assert.False(t, IsTrackable(InvalidDocumentErrorCode))
	assert.False(t, IsTrackable(CappingDeniedErrorCode))
}

func TestFatalOnly(t *testing.T) {
	errs := []error{
		&InvalidDocument{Message: "a"},
		&WrapperLimit{Message: "b"},
		errors.New("c"),
	}

	fatal := FatalOnly(errs)

	assert.Len(t, fatal, 2)
	assert.True(t, ContainsFatalError(errs))
	assert.False(t, ContainsFatalError([]error{&NoAd{}}))
}

func TestAggregateErrors(t *testing.T) {
	agg := NewAggregateErrors("validation errors", []error{errors.New("one"), &NoAd{Message: "two"}})

	assert.Equal(t, "validation errors (2 errors):\n  1: one\n  2: two\n", agg.Error())

	var noAd *NoAd
	assert.True(t, errors.As(agg, &noAd))
	assert.Equal(t, "", NewAggregateErrors("empty", nil).Error())
}
