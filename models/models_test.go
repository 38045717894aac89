package models

import (
	"testing"
	"time"
)

func TestPipSize(t *testing.T) {
	tests := []struct {
		price float64
		want  float64
	}{
		{1.1041, 0.0001}, // EURUSD-style
		{0.6524, 0.0001}, // AUDUSD-style
		{151.32, 0.01},   // USDJPY-style
		{198.75, 0.01},   // GBPJPY-style
	}
	for _, tt := range tests {
		if got := PipSize(tt.price); got != tt.want {
			t.Errorf("PipSize(%v) = %v, want %v", tt.price, got, tt.want)
		}
	}
}

func TestTimeframeDuration(t *testing.T) {
	if M5.Duration() != 5*time.Minute {
		t.Errorf("M5 duration = %v", M5.Duration())
	}
	if D1.Duration() != 24*time.Hour {
		t.Errorf("D1 duration = %v", D1.Duration())
	}
}
