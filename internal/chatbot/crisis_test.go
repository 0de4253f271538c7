package chatbot

import (
	"strings"
	"testing"
)

func TestDetectCrisis(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    bool
	}{
		{"direct statement", "I want to end my life", true},
		{"mixed case", "I feel SUICIDAL today", true},
		{"embedded phrase", "sometimes I think about self-harm at night", true},
		{"spaced variant", "I've been thinking about self harm", true},
		{"hurting language", "I just want to hurt myself", true},
		{"benign stress", "work has been so stressful lately", false},
		{"benign sadness", "I feel down and lonely", false},
		{"empty", "", false},
		{"sleep trouble", "I can't sleep and my anxiety is bad", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectCrisis(tt.message); got != tt.want {
				t.Fatalf("DetectCrisis(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}

func TestCrisisResponseNamesHotlines(t *testing.T) {
	for _, want := range []string{"988", "741741", "911"} {
		if !strings.Contains(CrisisResponse, want) {
			t.Fatalf("crisis response is missing %q", want)
		}
	}
}
