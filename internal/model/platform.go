package model

// Platform identifies one external source site for art opportunities.
type Platform string

// Known source platforms.
const (
	PlatformCafe           Platform = "cafe"
	PlatformArtCall        Platform = "artcall"
	PlatformShowSubmit     Platform = "showsubmit"
	PlatformArtworkArchive Platform = "artwork_archive"
	PlatformZapplication   Platform = "zapplication"
)

// KnownPlatforms lists every platform the pipeline accepts records from.
var KnownPlatforms = []Platform{
	PlatformCafe,
	PlatformArtCall,
	PlatformShowSubmit,
	PlatformArtworkArchive,
	PlatformZapplication,
}

// Known reports whether p is one of the enumerated source platforms.
func (p Platform) Known() bool {
	for _, k := range KnownPlatforms {
		if p == k {
			return true
		}
	}
	return false
}

func (p Platform) String() string {
	return string(p)
}
