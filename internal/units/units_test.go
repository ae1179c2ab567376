package units

import (
	"errors"
	"testing"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"90", 90, false},
		{"1:30", 90, false},
		{"1:00:00", 3600, false},
		{"1:00:00:00", 86400, false},
		{" 00:42:17 ", 2537, false},
		{"\u00a045\u00a0", 45, false},
		{"1:2:3:4:5", 0, true},
		{"1:xx", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"1024", 1024, false},
		{"1mb", 1048576, false},
		{"1gb", 1073741824, false},
		{"1tb", 1099511627776, false},
		{"1мб", 1048576, false},
		{"2 ГБ", 2147483648, false},
		{" 1.5 GB ", 1610612736, false},
		{"1,5 Гб", 1610612736, false},
		{"10kb", 0, true},
		{"abcmb", 0, true},
		{"mb", 0, true},
		{"inf gb", 0, true},
		{"NaN mb", 0, true},
		{"-1 gb", 0, true},
		{"+Inf тб", 0, true},
		{"1e30 tb", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseErrorType(t *testing.T) {
	_, err := ParseSize("12 parsecs")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Kind != "size" {
		t.Errorf("Kind = %q, want size", pe.Kind)
	}

	_, err = ParseSize("NaN mb")
	if !errors.As(err, &pe) || pe.Kind != "size" {
		t.Errorf("expected size ParseError for NaN, got %v", err)
	}

	_, err = ParseDuration("1:2:3:4:5")
	if !errors.As(err, &pe) || pe.Kind != "duration" {
		t.Errorf("expected duration ParseError, got %v", err)
	}
}

func TestHumanSize(t *testing.T) {
	if got := HumanSize(1073741824); got != "1.0 GiB" {
		t.Errorf("HumanSize(1GiB) = %q", got)
	}
	if got := HumanSize(0); got != "?" {
		t.Errorf("HumanSize(0) = %q, want ?", got)
	}
}
