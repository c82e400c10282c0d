package utils

import "testing"

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{300, "00:05:00"},
		{3723, "01:02:03"},
		{360000, "100:00:00"},
		{-5, "00:00:00"},
	}

	for _, tt := range tests {
		if got := FormatClock(tt.seconds); got != tt.want {
			t.Errorf("FormatClock(%d) = %s, want %s", tt.seconds, got, tt.want)
		}
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"zero", "00:00:00", 0, false},
		{"mixed", "01:02:03", 3723, false},
		{"padded", " 00:05:00 ", 300, false},
		{"long hours", "123:00:01", 442801, false},
		{"two fields", "05:00", 0, true},
		{"letters", "aa:bb:cc", 0, true},
		{"negative", "-1:00:00", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClock(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseClock(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatRoundedUnit(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{30, "30s"},
		{120, "2m"},
		{7200, "2h"},
		{-45, "45s"},
	}

	for _, tt := range tests {
		if got := FormatRoundedUnit(tt.seconds); got != tt.want {
			t.Errorf("FormatRoundedUnit(%d) = %s, want %s", tt.seconds, got, tt.want)
		}
	}
}
