package validation

import (
	"strings"
	"testing"
)

func TestDisplayName(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid", "Alice", "Alice", false},
		{"trims whitespace", "  Bob  ", "Bob", false},
		{"minimum length", "Al", "Al", false},
		{"too short", "A", "", true},
		{"whitespace only", "   ", "", true},
		{"too long", strings.Repeat("x", 51), "", true},
		{"at maximum", strings.Repeat("x", 50), strings.Repeat("x", 50), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DisplayName(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPartyName(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"empty allowed", "", "", false},
		{"whitespace trims to empty", "   ", "", false},
		{"valid", "Movie Night", "Movie Night", false},
		{"too long", strings.Repeat("x", 101), "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := PartyName(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPartyCode(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid", "ABC234", "ABC234", false},
		{"lowercase normalized", "abc234", "ABC234", false},
		{"trimmed", " ABC234 ", "ABC234", false},
		{"too short", "ABC23", "", true},
		{"too long", "ABC2345", "", true},
		{"outside generation alphabet accepted", "ABC123", "ABC123", false},
		{"empty", "", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := PartyCode(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEmail(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid", "bob@example.com", "bob@example.com", false},
		{"lowercased", "Bob@Example.COM", "bob@example.com", false},
		{"trimmed", " bob@example.com ", "bob@example.com", false},
		{"missing at", "bobexample.com", "", true},
		{"missing local part", "@example.com", "", true},
		{"missing domain", "bob@", "", true},
		{"too long", strings.Repeat("x", 250) + "@e.com", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Email(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
