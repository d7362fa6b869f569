package livedetect

import "testing"

func TestIsLive(t *testing.T) {
	tests := []struct {
		name  string
		title string
		album string
		want  bool
	}{
		{"keyword in title", "Creep (Live)", "Pablo Honey", true},
		{"keyword in album", "Creep", "Live at the BBC", true},
		{"uppercase keyword", "Jam", "CONCERT FOR BANGLADESH", true},
		{"soundboard", "Dark Star", "SBD Tapes", true},
		{"bootleg", "Song", "The Bootleg Series", true},
		{"dashed date", "Scarlet Begonias", "1977-05-08 Barton Hall", true},
		{"slashed date", "Fire on the Mountain", "1977/05/08", true},
		{"alive is not live", "Alive", "Ten", false},
		{"delivery is not live", "Special Delivery", "Liveliness", false},
		{"studio", "Paranoid Android", "OK Computer", false},
		{"empty", "", "", false},
		{"bare year", "1999", "1999", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsLive(tt.title, tt.album); got != tt.want {
				t.Errorf("IsLive(%q, %q) = %v, want %v", tt.title, tt.album, got, tt.want)
			}
		})
	}
}
