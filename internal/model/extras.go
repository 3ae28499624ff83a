package model

// Extras is a tagged union of per-platform payload fields, keyed by the
// platform enumeration. Each variant carries the optional fields that
// platform is known to report; anything unanticipated lands in Other.
type Extras struct {
	Cafe           *CafeExtras           `json:"cafe,omitempty"`
	ArtCall        *ArtCallExtras        `json:"artcall,omitempty"`
	ShowSubmit     *ShowSubmitExtras     `json:"showsubmit,omitempty"`
	ArtworkArchive *ArtworkArchiveExtras `json:"artwork_archive,omitempty"`
	Zapplication   *ZapplicationExtras   `json:"zapplication,omitempty"`

	Other map[string]string `json:"other,omitempty"`
}

// CafeExtras holds CallForEntry.org specific fields. StateCode is the
// platform's numeric state code (1..52, alphabetical).
type CafeExtras struct {
	EventID    string `json:"event_id,omitempty"`
	StateCode  string `json:"state_code,omitempty"`
	EventDates string `json:"event_dates,omitempty"`
}

// ArtCallExtras holds artcall.org specific fields.
type ArtCallExtras struct {
	Subdomain  string `json:"subdomain,omitempty"`
	Prizes     string `json:"prizes,omitempty"`
	Jury       string `json:"jury,omitempty"`
	EventDates string `json:"event_dates,omitempty"`
}

// ShowSubmitExtras holds showsubmit.com specific fields.
type ShowSubmitExtras struct {
	ShowID      string `json:"show_id,omitempty"`
	GalleryName string `json:"gallery_name,omitempty"`
}

// ArtworkArchiveExtras holds artworkarchive.com specific fields.
// OriginalSourceURL is the apply-button target and often points at the
// listing's home platform; the duplicate matcher treats it as a URL alias.
type ArtworkArchiveExtras struct {
	OriginalSourceURL string `json:"original_source_url,omitempty"`
	CallType          string `json:"call_type,omitempty"`
}

// ZapplicationExtras holds zapplication.org specific fields.
type ZapplicationExtras struct {
	ZappID     string `json:"zapp_id,omitempty"`
	EventDates string `json:"event_dates,omitempty"`
}

// Variant keys recognized per platform when splitting a raw extras map
// into the typed variant and the opaque remainder.
var extrasKeys = map[Platform]map[string]bool{
	PlatformCafe:           {"event_id": true, "state_code": true, "event_dates": true},
	PlatformArtCall:        {"subdomain": true, "prizes": true, "jury": true, "event_dates": true},
	PlatformShowSubmit:     {"show_id": true, "gallery_name": true},
	PlatformArtworkArchive: {"original_source_url": true, "call_type": true},
	PlatformZapplication:   {"zapp_id": true, "event_dates": true},
}

// ParseExtras splits a raw key-value extras bag into the typed variant for
// the given platform, keeping unrecognized keys verbatim in Other.
func ParseExtras(p Platform, raw map[string]string) Extras {
	var e Extras
	if len(raw) == 0 {
		return e
	}

	known := extrasKeys[p]
	for k, v := range raw {
		if v == "" {
			continue
		}
		if !known[k] {
			if e.Other == nil {
				e.Other = make(map[string]string)
			}
			e.Other[k] = v
			continue
		}
		e.setKnown(p, k, v)
	}
	return e
}

func (e *Extras) setKnown(p Platform, key, val string) {
	switch p {
	case PlatformCafe:
		if e.Cafe == nil {
			e.Cafe = &CafeExtras{}
		}
		switch key {
		case "event_id":
			e.Cafe.EventID = val
		case "state_code":
			e.Cafe.StateCode = val
		case "event_dates":
			e.Cafe.EventDates = val
		}
	case PlatformArtCall:
		if e.ArtCall == nil {
			e.ArtCall = &ArtCallExtras{}
		}
		switch key {
		case "subdomain":
			e.ArtCall.Subdomain = val
		case "prizes":
			e.ArtCall.Prizes = val
		case "jury":
			e.ArtCall.Jury = val
		case "event_dates":
			e.ArtCall.EventDates = val
		}
	case PlatformShowSubmit:
		if e.ShowSubmit == nil {
			e.ShowSubmit = &ShowSubmitExtras{}
		}
		switch key {
		case "show_id":
			e.ShowSubmit.ShowID = val
		case "gallery_name":
			e.ShowSubmit.GalleryName = val
		}
	case PlatformArtworkArchive:
		if e.ArtworkArchive == nil {
			e.ArtworkArchive = &ArtworkArchiveExtras{}
		}
		switch key {
		case "original_source_url":
			e.ArtworkArchive.OriginalSourceURL = val
		case "call_type":
			e.ArtworkArchive.CallType = val
		}
	case PlatformZapplication:
		if e.Zapplication == nil {
			e.Zapplication = &ZapplicationExtras{}
		}
		switch key {
		case "zapp_id":
			e.Zapplication.ZappID = val
		case "event_dates":
			e.Zapplication.EventDates = val
		}
	}
}

// Merge folds the variants of b into e without overwriting variants e
// already carries from other platforms.
func (e *Extras) Merge(b Extras) {
	if e.Cafe == nil {
		e.Cafe = b.Cafe
	}
	if e.ArtCall == nil {
		e.ArtCall = b.ArtCall
	}
	if e.ShowSubmit == nil {
		e.ShowSubmit = b.ShowSubmit
	}
	if e.ArtworkArchive == nil {
		e.ArtworkArchive = b.ArtworkArchive
	}
	if e.Zapplication == nil {
		e.Zapplication = b.Zapplication
	}
	for k, v := range b.Other {
		if e.Other == nil {
			e.Other = make(map[string]string)
		}
		if _, ok := e.Other[k]; !ok {
			e.Other[k] = v
		}
	}
}

// OriginalSourceURL returns the artwork_archive apply-button URL when
// present, for URL-alias matching.
func (e Extras) OriginalSourceURL() string {
	if e.ArtworkArchive == nil {
		return ""
	}
	return e.ArtworkArchive.OriginalSourceURL
}
