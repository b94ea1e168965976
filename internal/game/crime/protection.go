// Package crime implements protected-NPC classification and wanted-state
// bookkeeping for attacks on law-protected NPCs.
package crime

// Tag names consulted by the protection precedence chain.
const (
	TagResource     = "resource"
	TagGuard        = "guard"
	TagTraining     = "training"
	TagLawExempt    = "law_exempt"
	TagLawProtected = "law_protected"
)

// legacyProtectedTags are the default-protected prototype tags predating the
// explicit law_protected marker.
var legacyProtectedTags = []string{
	"civilian",
	"vendor",
	"questgiver",
	"protected_town",
	"innkeeper",
	"banker",
}

// IsProtected resolves whether an NPC prototype with the given tags is
// law-protected. The precedence is strict and order-dependent:
//
//  1. resource and guard tags are hard non-protected overrides;
//  2. training forces non-protected;
//  3. law_exempt forces non-protected, winning over everything below;
//  4. law_protected forces protected;
//  5. legacy default-protected tags (civilian, vendor, ...) protect;
//  6. anything else is non-protected.
func IsProtected(tags []string) bool {
	if hasTag(tags, TagResource) || hasTag(tags, TagGuard) {
		return false
	}
	if hasTag(tags, TagTraining) {
		return false
	}
	if hasTag(tags, TagLawExempt) {
		return false
	}
	if hasTag(tags, TagLawProtected) {
		return true
	}
	for _, legacy := range legacyProtectedTags {
		if hasTag(tags, legacy) {
			return true
		}
	}
	return false
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}
