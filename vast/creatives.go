package vast

import (
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
)

// parseCreativeElement returns one creative per <Linear>, <NonLinearAds> and
// <CompanionAds> child of a <Creative> element.
func parseCreativeElement(element *etree.Element) []*Creative {
	var creatives []*Creative
	for _, child := range element.ChildElements() {
		var creative *Creative
		switch child.Tag {
		case "Linear":
			creative = parseLinear(child)
		case "NonLinearAds":
			creative = parseNonLinear(child)
		case "CompanionAds":
			creative = parseCompanions(child)
		default:
			continue
		}
		creative.ID = element.SelectAttrValue("id", "")
		creative.AdID = element.SelectAttrValue("AdID", element.SelectAttrValue("adId", ""))
		creative.Sequence = parseInt(element.SelectAttrValue("sequence", ""))
		creative.APIFramework = element.SelectAttrValue("apiFramework", "")
		creatives = append(creatives, creative)
	}
	return creatives
}

func newCreative(creativeType CreativeType) *Creative {
	return &Creative{
		Type:           creativeType,
		TrackingEvents: make(map[string][]string),
	}
}

func parseLinear(element *etree.Element) *Creative {
	creative := newCreative(CreativeLinear)
	creative.VideoClickTrackingURLTemplates = []string{}
	creative.VideoCustomClickURLTemplates = []string{}

	if d, ok := parseDuration(nodeText(element.SelectElement("Duration"))); ok {
		creative.Duration = d
	}
	if offset := element.SelectAttrValue("skipoffset", ""); offset != "" {
		creative.SkipDelay = parseOffset(offset, creative.Duration)
	}
	creative.AdParameters = nodeText(element.SelectElement("AdParameters"))

	if clicks := element.SelectElement("VideoClicks"); clicks != nil {
		creative.VideoClickThroughURLTemplate = nodeText(clicks.SelectElement("ClickThrough"))
		for _, node := range clicks.SelectElements("ClickTracking") {
			if url := nodeText(node); url != "" {
				creative.VideoClickTrackingURLTemplates = append(creative.VideoClickTrackingURLTemplates, url)
			}
		}
		for _, node := range clicks.SelectElements("CustomClick") {
			if url := nodeText(node); url != "" {
				creative.VideoCustomClickURLTemplates = append(creative.VideoCustomClickURLTemplates, url)
			}
		}
	}

	parseTrackingEvents(element.SelectElement("TrackingEvents"), creative.TrackingEvents)

	if mediaFiles := element.SelectElement("MediaFiles"); mediaFiles != nil {
		for _, node := range mediaFiles.SelectElements("MediaFile") {
			creative.MediaFiles = append(creative.MediaFiles, parseMediaFile(node))
		}
	}
	return creative
}

func parseNonLinear(element *etree.Element) *Creative {
	creative := newCreative(CreativeNonLinear)
	parseTrackingEvents(element.SelectElement("TrackingEvents"), creative.TrackingEvents)

	for _, node := range element.SelectElements("NonLinear") {
		variation := parseVariation(node)
		variation.ClickThroughURLTemplate = nodeText(node.SelectElement("NonLinearClickThrough"))
		for _, tracking := range node.SelectElements("NonLinearClickTracking") {
			if url := nodeText(tracking); url != "" {
				variation.ClickTrackingURLTemplates = append(variation.ClickTrackingURLTemplates, url)
			}
		}
		if d, ok := parseDuration(node.SelectAttrValue("minSuggestedDuration", "")); ok {
			variation.MinSuggestedDuration = d
		}
		creative.Variations = append(creative.Variations, variation)
	}
	return creative
}

func parseCompanions(element *etree.Element) *Creative {
	creative := newCreative(CreativeCompanion)

	for _, node := range element.SelectElements("Companion") {
		variation := parseVariation(node)
		variation.AltText = nodeText(node.SelectElement("AltText"))
		variation.ClickThroughURLTemplate = nodeText(node.SelectElement("CompanionClickThrough"))
		for _, tracking := range node.SelectElements("CompanionClickTracking") {
			if url := nodeText(tracking); url != "" {
				variation.ClickTrackingURLTemplates = append(variation.ClickTrackingURLTemplates, url)
			}
		}
		events := make(map[string][]string)
		parseTrackingEvents(node.SelectElement("TrackingEvents"), events)
		if len(events) > 0 {
			variation.TrackingEvents = events
		}
		creative.Variations = append(creative.Variations, variation)
	}
	return creative
}

// parseVariation reads the attributes and resources shared by <NonLinear> and <Companion>.
func parseVariation(element *etree.Element) Variation {
	variation := Variation{
		ID:             element.SelectAttrValue("id", ""),
		Width:          parseInt(element.SelectAttrValue("width", "")),
		Height:         parseInt(element.SelectAttrValue("height", "")),
		ExpandedWidth:  parseInt(element.SelectAttrValue("expandedWidth", "")),
		ExpandedHeight: parseInt(element.SelectAttrValue("expandedHeight", "")),
		APIFramework:   element.SelectAttrValue("apiFramework", ""),
		AdParameters:   nodeText(element.SelectElement("AdParameters")),
		IFrameResource: nodeText(element.SelectElement("IFrameResource")),
		HTMLResource:   nodeText(element.SelectElement("HTMLResource")),
	}
	if static := element.SelectElement("StaticResource"); static != nil {
		variation.StaticResource = nodeText(static)
		variation.Type = static.SelectAttrValue("creativeType", "")
	}
	return variation
}

// parseTrackingEvents appends every <Tracking> URL under its event name. Progress
// events are keyed by their offset, as in "progress-00:00:05".
func parseTrackingEvents(element *etree.Element, events map[string][]string) {
	if element == nil {
		return
	}
	for _, node := range element.SelectElements("Tracking") {
		eventName := node.SelectAttrValue("event", "")
		url := nodeText(node)
		if eventName == "" || url == "" {
			continue
		}
		if eventName == "progress" {
			offset := node.SelectAttrValue("offset", "")
			if offset == "" {
				continue
			}
			eventName = "progress-" + offset
		}
		events[eventName] = append(events[eventName], url)
	}
}

func parseMediaFile(element *etree.Element) MediaFile {
	mediaFile := MediaFile{
		ID:           element.SelectAttrValue("id", ""),
		FileURL:      nodeText(element),
		Delivery:     element.SelectAttrValue("delivery", ""),
		MIMEType:     element.SelectAttrValue("type", ""),
		Codec:        element.SelectAttrValue("codec", ""),
		APIFramework: element.SelectAttrValue("apiFramework", ""),
		Bitrate:      parseInt(element.SelectAttrValue("bitrate", "")),
		MinBitrate:   parseInt(element.SelectAttrValue("minBitrate", "")),
		MaxBitrate:   parseInt(element.SelectAttrValue("maxBitrate", "")),
		Width:        parseInt(element.SelectAttrValue("width", "")),
		Height:       parseInt(element.SelectAttrValue("height", "")),
	}
	mediaFile.Scalable = parseBool(element.SelectAttrValue("scalable", ""))
	mediaFile.MaintainAspectRatio = parseBool(element.SelectAttrValue("maintainAspectRatio", ""))
	return mediaFile
}

func parseBool(value string) *bool {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return nil
	}
	return &b
}

// parseDuration reads HH:MM:SS and HH:MM:SS.mmm.
func parseDuration(value string) (time.Duration, bool) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || seconds < 0 || seconds >= 60 {
		return 0, false
	}
	total := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
	return total + time.Duration(seconds*float64(time.Second)), true
}

// parseOffset reads a skipoffset attribute, either a duration or a percentage of the
// creative duration.
func parseOffset(value string, duration time.Duration) time.Duration {
	value = strings.TrimSpace(value)
	if strings.HasSuffix(value, "%") {
		percent, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
		if err != nil || percent < 0 {
			return 0
		}
		return time.Duration(float64(duration) * percent / 100)
	}
	d, _ := parseDuration(value)
	return d
}
