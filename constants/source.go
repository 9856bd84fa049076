package constants

import (
	"net/url"
	"strings"
)

// SourceType is the kind of document a registered source URL points at.
type SourceType string

const (
	SourcePDF SourceType = "pdf"
	SourceWeb SourceType = "web"
)

// ParserVersion is stamped on sources registered by this service.
const ParserVersion = "v1.0"

// DefaultGymName is used when a schedule does not name its venue.
const DefaultGymName = "体育館"

// Gym display defaults for venues created during ingestion.
const (
	GymFormatOpenUse   = "個人開放"
	GymDistanceUnknown = "距離不明"
	GymParkingUnknown  = "不明"
)

// SourceTypeFromURL returns pdf for URLs whose path ends in .pdf, web otherwise.
func SourceTypeFromURL(raw string) SourceType {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return SourceWeb
	}
	if strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
		return SourcePDF
	}
	return SourceWeb
}

func ValidSourceType(s string) bool {
	return s == string(SourcePDF) || s == string(SourceWeb)
}
