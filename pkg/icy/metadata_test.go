// ABOUTME: Tests for ICY StreamTitle token extraction
// ABOUTME: Covers artist/title splitting, incomplete tokens and byte ranges
package icy

import (
	"testing"
)

func TestFindToken(t *testing.T) {
	payload := []byte("\xff\xfbaudioStreamTitle='Artist X - Song Y';more audio")

	info, start, end, ok := FindToken(payload)
	if !ok {
		t.Fatal("expected token to be found")
	}
	if info.Artist != "Artist X" {
		t.Errorf("expected artist 'Artist X', got %q", info.Artist)
	}
	if info.Title != "Song Y" {
		t.Errorf("expected title 'Song Y', got %q", info.Title)
	}
	if got := string(payload[start:end]); got != "StreamTitle='Artist X - Song Y';" {
		t.Errorf("token range covers %q", got)
	}
}

func TestFindTokenNoDelimiter(t *testing.T) {
	info, _, _, ok := FindToken([]byte("StreamTitle='Solo Title';"))
	if !ok {
		t.Fatal("expected token to be found")
	}
	if info.Artist != "" {
		t.Errorf("expected empty artist, got %q", info.Artist)
	}
	if info.Title != "Solo Title" {
		t.Errorf("expected title 'Solo Title', got %q", info.Title)
	}
}

func TestFindTokenAbsent(t *testing.T) {
	if _, _, _, ok := FindToken([]byte("just audio bytes, no markers")); ok {
		t.Error("expected no token in plain payload")
	}
}

func TestFindTokenIncomplete(t *testing.T) {
	// Opening marker present, closing marker not yet arrived.
	if _, _, _, ok := FindToken([]byte("audioStreamTitle='Half a tit")); ok {
		t.Error("incomplete token must not be committed")
	}
}

func TestFindTokenSuffixBeforePrefix(t *testing.T) {
	// A stray closing marker before the opening one must not match.
	if _, _, _, ok := FindToken([]byte("x';yStreamTitle='tail without close")); ok {
		t.Error("closing marker before the opening one must not complete a token")
	}
}

func TestSafeSpan(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"plain audio", "plain audio bytes", 17},
		{"incomplete token", "abcStreamTitle='half", 3},
		{"complete token still held", "abcStreamTitle='x';d", 3},
		{"partial marker at tail", "audioStreamTi", 5},
		{"marker-like prefix mid-buffer is safe", "aStreamXb", 9},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		if got := SafeSpan([]byte(tt.in)); got != tt.want {
			t.Errorf("%s: SafeSpan(%q) = %d, want %d", tt.name, tt.in, got, tt.want)
		}
	}
}

func TestSplitStreamTitle(t *testing.T) {
	tests := []struct {
		text   string
		artist string
		title  string
	}{
		{"Artist - Title", "Artist", "Title"},
		{"Artist - Title - Remix", "Artist", "Title - Remix"},
		{"Only Title", "", "Only Title"},
		{"", "", ""},
		{"Dash-Without-Spaces", "", "Dash-Without-Spaces"},
	}

	for _, tt := range tests {
		got := SplitStreamTitle(tt.text)
		if got.Artist != tt.artist || got.Title != tt.title {
			t.Errorf("%q: got (%q, %q), want (%q, %q)",
				tt.text, got.Artist, got.Title, tt.artist, tt.title)
		}
	}
}
