package constants

import "strings"

// Reference prefixes. Foreign references are stored as prefix + raw id.
const (
	GymPrefix    = "gym_"
	AreaPrefix   = "area_"
	SportPrefix  = "sport_"
	SourcePrefix = "source_"
)

// Ref joins a collection prefix and a raw id. Already-prefixed ids are kept.
func Ref(prefix, id string) string {
	if id == "" || strings.HasPrefix(id, prefix) {
		return id
	}
	return prefix + id
}

// RawID strips prefix from ref when present.
func RawID(prefix, ref string) string {
	return strings.TrimPrefix(ref, prefix)
}
