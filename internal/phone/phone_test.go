package phone

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		timezone      string
		defaultRegion string
		want          string
		wantErr       bool
	}{
		{
			name:          "already international",
			raw:           "+61412345678",
			timezone:      "Europe/London", // must be ignored when the code is explicit
			defaultRegion: "US",
			want:          "+61412345678",
		},
		{
			name:          "international with spaces",
			raw:           "+61 412 345 678",
			defaultRegion: "AU",
			want:          "+61412345678",
		},
		{
			name:          "national number, region from timezone",
			raw:           "0412 345 678",
			timezone:      "Australia/Sydney",
			defaultRegion: "US",
			want:          "+61412345678",
		},
		{
			name:          "national number, fallback region",
			raw:           "0412345678",
			timezone:      "Mars/Olympus_Mons",
			defaultRegion: "AU",
			want:          "+61412345678",
		},
		{
			name:          "uk mobile via timezone",
			raw:           "07400 123456",
			timezone:      "Europe/London",
			defaultRegion: "AU",
			want:          "+447400123456",
		},
		{
			name:          "invalid for inferred region",
			raw:           "12345",
			timezone:      "Australia/Sydney",
			defaultRegion: "AU",
			wantErr:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw, tt.timezone, tt.defaultRegion)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Normalize = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalize_Empty(t *testing.T) {
	_, err := Normalize("", "Australia/Sydney", "AU")
	if !errors.Is(err, ErrNoNumber) {
		t.Fatalf("err = %v, want ErrNoNumber", err)
	}
}

func TestRegionForZone(t *testing.T) {
	tests := []struct {
		zone string
		want string
	}{
		{"Australia/Sydney", "AU"},
		{"Australia/Lord_Howe", "AU"}, // prefix match
		{"Europe/London", "GB"},
		{"America/New_York", "US"},
		{"Etc/UTC", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.zone, func(t *testing.T) {
			if got := RegionForZone(tt.zone); got != tt.want {
				t.Errorf("RegionForZone(%q) = %q, want %q", tt.zone, got, tt.want)
			}
		})
	}
}
