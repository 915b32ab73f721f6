package domain

import "strings"

// Source is the intake channel a case arrived through.
type Source string

const (
	SourceSMS       Source = "SMS"
	SourceWeb       Source = "WEB"
	SourceKioskChat Source = "KIOSK_CHAT"
)

// validSources is the single source of truth for intake channels.
var validSources = map[Source]bool{
	SourceSMS:       true,
	SourceWeb:       true,
	SourceKioskChat: true,
}

// NormalizeSource maps external input to a Source. Unknown channels are
// treated as kiosk chat rather than rejected, so field intake never fails on
// a mislabelled channel.
func NormalizeSource(s string) Source {
	src := Source(strings.ToUpper(strings.TrimSpace(s)))
	if validSources[src] {
		return src
	}
	return SourceKioskChat
}

// IsValid checks if the source is one of the supported channels.
func (s Source) IsValid() bool {
	return validSources[s]
}

func (s Source) String() string { return string(s) }
