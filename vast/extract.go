package vast

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/prebid/vast-resolver/errortypes"
)

// Document is the content of one VAST document, independent of any wrapper chain.
type Document struct {
	// ErrorURLTemplates holds the <Error> children of the <VAST> root.
	ErrorURLTemplates []string
	// Entries keeps document order. Each entry is either an *Ad or a *Wrapper.
	Entries []Entry
	// Unsupported has one error per <Ad> which held neither <InLine> nor <Wrapper>.
	Unsupported []error
}

// Extract reads the direct children of the document root. It fails only when the root
// is missing or is not a <VAST> element.
func Extract(doc *etree.Document) (*Document, error) {
	if doc == nil || doc.Root() == nil || doc.Root().Tag != "VAST" {
		return nil, &errortypes.InvalidDocument{Message: "Invalid VAST XMLDocument"}
	}
	root := doc.Root()

	extracted := &Document{
		ErrorURLTemplates: []string{},
		Entries:           []Entry{},
	}
	for _, node := range root.ChildElements() {
		if node.Tag == "Error" {
			if url := nodeText(node); url != "" {
				extracted.ErrorURLTemplates = append(extracted.ErrorURLTemplates, url)
			}
		}
	}

	for _, node := range root.ChildElements() {
		if node.Tag != "Ad" {
			continue
		}
		if entry := parseAdElement(node); entry != nil {
			extracted.Entries = append(extracted.Entries, entry)
		} else {
			extracted.Unsupported = append(extracted.Unsupported, &errortypes.UnsupportedVersion{
				Message: "Ad element " + strconv.Quote(node.SelectAttrValue("id", "")) + " has neither InLine nor Wrapper content",
			})
		}
	}
	return extracted, nil
}

func parseAdElement(adElement *etree.Element) Entry {
	for _, adTypeElement := range adElement.ChildElements() {
		switch adTypeElement.Tag {
		case "Wrapper":
			return parseWrapperElement(adElement, adTypeElement)
		case "InLine":
			ad := parseAdBody(adTypeElement, KindInline)
			copyAdAttributes(adElement, ad)
			return ad
		}
	}
	return nil
}

func copyAdAttributes(adElement *etree.Element, ad *Ad) {
	ad.ID = adElement.SelectAttrValue("id", "")
	ad.Sequence = parseInt(adElement.SelectAttrValue("sequence", ""))
}

// parseWrapperElement returns a *Wrapper when a target URL is present. A wrapper
// without a target is returned as a resolved *Ad of kind KindWrapper.
func parseWrapperElement(adElement, wrapperElement *etree.Element) Entry {
	ad := parseAdBody(wrapperElement, KindWrapper)
	copyAdAttributes(adElement, ad)

	var target string
	if uri := wrapperElement.SelectElement("VASTAdTagURI"); uri != nil {
		target = nodeText(uri)
	} else if legacy := wrapperElement.SelectElement("VASTAdTagURL"); legacy != nil {
		if u := legacy.SelectElement("URL"); u != nil {
			target = nodeText(u)
		}
	}
	if target == "" {
		return ad
	}

	wrapper := &Wrapper{
		Ad:           ad,
		VASTAdTagURI: target,
	}
	for _, creative := range ad.Creatives {
		if creative.Type != CreativeLinear && creative.Type != CreativeNonLinear {
			continue
		}
		if len(creative.TrackingEvents) > 0 {
			if wrapper.TrackingEvents == nil {
				wrapper.TrackingEvents = make(map[CreativeType]map[string][]string)
			}
			byEvent := wrapper.TrackingEvents[creative.Type]
			if byEvent == nil {
				byEvent = make(map[string][]string)
				wrapper.TrackingEvents[creative.Type] = byEvent
			}
			for eventName, urls := range creative.TrackingEvents {
				byEvent[eventName] = append(byEvent[eventName], urls...)
			}
		}
		wrapper.VideoClickTrackingURLTemplates = append(wrapper.VideoClickTrackingURLTemplates, creative.VideoClickTrackingURLTemplates...)
		if creative.VideoClickThroughURLTemplate != "" {
			wrapper.VideoClickThroughURLTemplate = creative.VideoClickThroughURLTemplate
		}
		wrapper.VideoCustomClickURLTemplates = append(wrapper.VideoCustomClickURLTemplates, creative.VideoCustomClickURLTemplates...)
	}
	return wrapper
}

// parseAdBody reads the children shared by <InLine> and <Wrapper>.
func parseAdBody(element *etree.Element, kind AdKind) *Ad {
	ad := &Ad{
		Kind:                   kind,
		ImpressionURLTemplates: []string{},
		ErrorURLTemplates:      []string{},
		Creatives:              []*Creative{},
		Extensions:             []Extension{},
	}

	for _, node := range element.ChildElements() {
		switch node.Tag {
		case "AdSystem":
			ad.System = &AdSystem{
				Value:   nodeText(node),
				Version: node.SelectAttrValue("version", ""),
			}
		case "AdTitle":
			ad.Title = nodeText(node)
		case "Description":
			ad.Description = nodeText(node)
		case "Advertiser":
			ad.Advertiser = nodeText(node)
		case "Impression":
			if url := nodeText(node); url != "" {
				ad.ImpressionURLTemplates = append(ad.ImpressionURLTemplates, url)
			}
		case "Error":
			if url := nodeText(node); url != "" {
				ad.ErrorURLTemplates = append(ad.ErrorURLTemplates, url)
			}
		case "Extensions":
			for _, ext := range node.SelectElements("Extension") {
				ad.Extensions = append(ad.Extensions, parseExtension(ext))
			}
		case "Creatives":
			for _, creativeElement := range node.SelectElements("Creative") {
				ad.Creatives = append(ad.Creatives, parseCreativeElement(creativeElement)...)
			}
		}
	}
	return ad
}

func parseExtension(element *etree.Element) Extension {
	ext := Extension{
		Type:  element.SelectAttrValue("type", ""),
		Value: nodeText(element),
	}
	if attrs := attributes(element); len(attrs) > 0 {
		ext.Attributes = attrs
	}
	for _, child := range element.ChildElements() {
		ext.Children = append(ext.Children, ExtensionChild{
			Name:       child.Tag,
			Value:      nodeText(child),
			Attributes: attributes(child),
		})
	}
	return ext
}

func attributes(element *etree.Element) map[string]string {
	if len(element.Attr) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(element.Attr))
	for _, attr := range element.Attr {
		attrs[attr.Key] = attr.Value
	}
	return attrs
}

func nodeText(element *etree.Element) string {
	if element == nil {
		return ""
	}
	return strings.TrimSpace(element.Text())
}

func parseInt(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}
