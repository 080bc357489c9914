// ABOUTME: In-band ICY metadata token extraction
// ABOUTME: Parses StreamTitle tokens embedded in Shoutcast/Icecast byte streams
package icy

import (
	"bytes"
	"strings"
)

const (
	tokenPrefix = "StreamTitle='"
	tokenSuffix = "';"

	// Split marker between artist and title inside a stream title.
	artistTitleSep = " - "
)

// TrackInfo holds the artist/title pair carried by a StreamTitle token.
type TrackInfo struct {
	Artist string
	Title  string
}

// FindToken scans b for a complete StreamTitle token. It returns the
// parsed track info and the byte range [start, end) the token occupies
// so the caller can strip it from the payload stream.
//
// A missing opening marker, or an opening marker whose closing marker
// has not arrived yet, yields ok=false; the caller retries once more
// bytes are available. A partial token is never committed.
func FindToken(b []byte) (info TrackInfo, start, end int, ok bool) {
	start = bytes.Index(b, []byte(tokenPrefix))
	if start < 0 {
		return TrackInfo{}, 0, 0, false
	}

	textStart := start + len(tokenPrefix)
	rel := bytes.Index(b[textStart:], []byte(tokenSuffix))
	if rel < 0 {
		// Incomplete token, the suffix may arrive on a later pull.
		return TrackInfo{}, 0, 0, false
	}

	text := string(b[textStart : textStart+rel])
	end = textStart + rel + len(tokenSuffix)
	return SplitStreamTitle(text), start, end, true
}

// SafeSpan returns how many leading bytes of b can be forwarded as
// audio without risking that they belong to a metadata token. Bytes
// from an opening marker onward, or a partial opening marker at the
// tail, are held back until more bytes arrive.
func SafeSpan(b []byte) int {
	if start := bytes.Index(b, []byte(tokenPrefix)); start >= 0 {
		return start
	}
	max := len(tokenPrefix) - 1
	if max > len(b) {
		max = len(b)
	}
	for k := max; k > 0; k-- {
		if bytes.HasSuffix(b, []byte(tokenPrefix[:k])) {
			return len(b) - k
		}
	}
	return len(b)
}

// SplitStreamTitle splits a stream title on the first " - " into
// artist and title. Without the separator the whole text is the title
// and the artist is empty.
func SplitStreamTitle(text string) TrackInfo {
	if artist, title, found := strings.Cut(text, artistTitleSep); found {
		return TrackInfo{Artist: artist, Title: title}
	}
	return TrackInfo{Title: text}
}
