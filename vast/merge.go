package vast

// Merge folds the auxiliary data of parent into child, an ad which parent's target
// document resolved to. Parent lists precede child lists for error, impression and
// extension data; parent tracking and click-tracking URLs are appended after the
// child's. A child click-through is never overwritten.
//
// Merge only touches child. Lists are copied so that several children of the same
// wrapper never share backing arrays.
func Merge(child *Ad, parent *Wrapper) {
	if child == nil || parent == nil || parent.Ad == nil {
		return
	}
	wrapperAd := parent.Ad

	child.ErrorURLTemplates = concat(wrapperAd.ErrorURLTemplates, child.ErrorURLTemplates)
	child.ImpressionURLTemplates = concat(wrapperAd.ImpressionURLTemplates, child.ImpressionURLTemplates)
	child.Extensions = concatExtensions(wrapperAd.Extensions, child.Extensions)

	for _, creative := range child.Creatives {
		byEvent, ok := parent.TrackingEvents[creative.Type]
		if !ok {
			continue
		}
		if creative.TrackingEvents == nil {
			creative.TrackingEvents = make(map[string][]string, len(byEvent))
		}
		for eventName, urls := range byEvent {
			creative.TrackingEvents[eventName] = concat(creative.TrackingEvents[eventName], urls)
		}
	}

	for _, creative := range child.Creatives {
		if creative.Type != CreativeLinear {
			continue
		}
		if len(parent.VideoClickTrackingURLTemplates) > 0 {
			creative.VideoClickTrackingURLTemplates = concat(creative.VideoClickTrackingURLTemplates, parent.VideoClickTrackingURLTemplates)
		}
		if len(parent.VideoCustomClickURLTemplates) > 0 {
			creative.VideoCustomClickURLTemplates = concat(creative.VideoCustomClickURLTemplates, parent.VideoCustomClickURLTemplates)
		}
		// VAST 2.0 wrappers may carry the only click-through of the chain.
		if parent.VideoClickThroughURLTemplate != "" && creative.VideoClickThroughURLTemplate == "" {
			creative.VideoClickThroughURLTemplate = parent.VideoClickThroughURLTemplate
		}
	}
}

func concat(first, second []string) []string {
	out := make([]string, 0, len(first)+len(second))
	out = append(out, first...)
	return append(out, second...)
}

func concatExtensions(first, second []Extension) []Extension {
	out := make([]Extension, 0, len(first)+len(second))
	out = append(out, first...)
	return append(out, second...)
}
