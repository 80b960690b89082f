// Package vast holds the VAST data model, the element extractor which turns one XML
// document into ads, and the rules which fold a wrapper's data into the ads it wraps.
package vast

import (
	"encoding/json"
	"time"
)

// AdKind tells whether an ad carried <InLine> or <Wrapper> content.
type AdKind string

const (
	KindInline  AdKind = "inline"
	KindWrapper AdKind = "wrapper"
)

// CreativeType tags a creative by the element it was parsed from.
type CreativeType string

const (
	CreativeLinear    CreativeType = "linear"
	CreativeNonLinear CreativeType = "nonlinear"
	CreativeCompanion CreativeType = "companion"
)

// AdSystem is the <AdSystem> element of an ad.
type AdSystem struct {
	Value   string `json:"value"`
	Version string `json:"version,omitempty"`
}

// ExtensionChild is one direct child element of an <Extension>.
type ExtensionChild struct {
	Name       string            `json:"name"`
	Value      string            `json:"value,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Extension is one <Extensions>/<Extension> element.
type Extension struct {
	Type       string            `json:"type,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Value      string            `json:"value,omitempty"`
	Children   []ExtensionChild  `json:"children,omitempty"`
}

// MediaFile is one <MediaFile> of a linear creative.
type MediaFile struct {
	ID                  string `json:"id,omitempty"`
	FileURL             string `json:"file_url"`
	Delivery            string `json:"delivery,omitempty"`
	MIMEType            string `json:"mime_type,omitempty"`
	Codec               string `json:"codec,omitempty"`
	APIFramework        string `json:"api_framework,omitempty"`
	Bitrate             int    `json:"bitrate,omitempty"`
	MinBitrate          int    `json:"min_bitrate,omitempty"`
	MaxBitrate          int    `json:"max_bitrate,omitempty"`
	Width               int    `json:"width,omitempty"`
	Height              int    `json:"height,omitempty"`
	Scalable            *bool  `json:"scalable,omitempty"`
	MaintainAspectRatio *bool  `json:"maintain_aspect_ratio,omitempty"`
}

// Variation is one <NonLinear> or <Companion> rendition.
type Variation struct {
	ID                        string              `json:"id,omitempty"`
	Width                     int                 `json:"width,omitempty"`
	Height                    int                 `json:"height,omitempty"`
	ExpandedWidth             int                 `json:"expanded_width,omitempty"`
	ExpandedHeight            int                 `json:"expanded_height,omitempty"`
	APIFramework              string              `json:"api_framework,omitempty"`
	MinSuggestedDuration      time.Duration       `json:"min_suggested_duration,omitempty"`
	Type                      string              `json:"type,omitempty"`
	StaticResource            string              `json:"static_resource,omitempty"`
	IFrameResource            string              `json:"iframe_resource,omitempty"`
	HTMLResource              string              `json:"html_resource,omitempty"`
	AdParameters              string              `json:"ad_parameters,omitempty"`
	AltText                   string              `json:"alt_text,omitempty"`
	ClickThroughURLTemplate   string              `json:"click_through_url_template,omitempty"`
	ClickTrackingURLTemplates []string            `json:"click_tracking_url_templates,omitempty"`
	TrackingEvents            map[string][]string `json:"tracking_events,omitempty"`
}

// MarshalJSON writes MinSuggestedDuration in seconds.
func (v Variation) MarshalJSON() ([]byte, error) {
	type variation Variation
	return json.Marshal(struct {
		variation
		MinSuggestedDuration float64 `json:"min_suggested_duration,omitempty"`
	}{
		variation:            variation(v),
		MinSuggestedDuration: v.MinSuggestedDuration.Seconds(),
	})
}

// Creative belongs to exactly one Ad. Linear fields are only populated for
// CreativeLinear, Variations only for CreativeNonLinear and CreativeCompanion.
type Creative struct {
	Type           CreativeType        `json:"type"`
	ID             string              `json:"id,omitempty"`
	AdID           string              `json:"ad_id,omitempty"`
	Sequence       int                 `json:"sequence,omitempty"`
	APIFramework   string              `json:"api_framework,omitempty"`
	TrackingEvents map[string][]string `json:"tracking_events"`

	Duration                       time.Duration `json:"duration,omitempty"`
	SkipDelay                      time.Duration `json:"skip_delay,omitempty"`
	AdParameters                   string        `json:"ad_parameters,omitempty"`
	MediaFiles                     []MediaFile   `json:"media_files,omitempty"`
	VideoClickThroughURLTemplate   string        `json:"video_click_through_url_template,omitempty"`
	VideoClickTrackingURLTemplates []string      `json:"video_click_tracking_url_templates,omitempty"`
	VideoCustomClickURLTemplates   []string      `json:"video_custom_click_url_templates,omitempty"`

	Variations []Variation `json:"variations,omitempty"`
}

// MarshalJSON writes Duration and SkipDelay in seconds.
func (c Creative) MarshalJSON() ([]byte, error) {
	type creative Creative
	return json.Marshal(struct {
		creative
		Duration  float64 `json:"duration,omitempty"`
		SkipDelay float64 `json:"skip_delay,omitempty"`
	}{
		creative:  creative(c),
		Duration:  c.Duration.Seconds(),
		SkipDelay: c.SkipDelay.Seconds(),
	})
}

// Ad is a resolved ad: either inline content or a wrapper which will not be followed
// any further. It never carries a wrapper target URL.
//
// ErrorCode and ErrorMessage are set when the ad stands for a failed wrapper branch.
type Ad struct {
	Kind                   AdKind      `json:"kind"`
	ID                     string      `json:"id,omitempty"`
	Sequence               int         `json:"sequence,omitempty"`
	System                 *AdSystem   `json:"system,omitempty"`
	Title                  string      `json:"title,omitempty"`
	Description            string      `json:"description,omitempty"`
	Advertiser             string      `json:"advertiser,omitempty"`
	ImpressionURLTemplates []string    `json:"impression_url_templates"`
	ErrorURLTemplates      []string    `json:"error_url_templates"`
	Creatives              []*Creative `json:"creatives"`
	Extensions             []Extension `json:"extensions"`
	ErrorCode              int         `json:"error_code,omitempty"`
	ErrorMessage           string      `json:"error_message,omitempty"`
}

// Failed reports whether the ad stands for a wrapper branch that could not be resolved.
func (ad *Ad) Failed() bool {
	return ad.ErrorCode != 0
}

// Wrapper is an ad which still points to another document. Besides its own ad data
// it keeps the auxiliary data collected from its creatives, which is merged into
// every ad the target document resolves to.
type Wrapper struct {
	Ad           *Ad
	VASTAdTagURI string

	TrackingEvents                 map[CreativeType]map[string][]string
	VideoClickThroughURLTemplate   string
	VideoClickTrackingURLTemplates []string
	VideoCustomClickURLTemplates   []string
}

// Fail turns the wrapper into a terminal ad carrying the error. Its creatives are
// cleared so the ad cannot be mistaken for playable content.
func (w *Wrapper) Fail(code int, message string) *Ad {
	ad := w.Ad
	ad.ErrorCode = code
	ad.ErrorMessage = message
	ad.Creatives = []*Creative{}
	return ad
}

// DeadEnd turns the wrapper into a terminal ad for a target which resolved to no ads.
func (w *Wrapper) DeadEnd() *Ad {
	ad := w.Ad
	ad.Creatives = []*Creative{}
	return ad
}

// Entry is one extracted <Ad>: either a resolved *Ad or an unresolved *Wrapper.
type Entry interface {
	isEntry()
}

func (*Ad) isEntry()      {}
func (*Wrapper) isEntry() {}

// Response is what one document resolves to.
type Response struct {
	Ads               []*Ad    `json:"ads"`
	ErrorURLTemplates []string `json:"error_url_templates"`
}

// NewResponse returns an empty response with non-nil lists.
func NewResponse() *Response {
	return &Response{
		Ads:               []*Ad{},
		ErrorURLTemplates: []string{},
	}
}
