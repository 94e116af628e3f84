package rules

import "testing"

func TestChannelDesignatorRecognizesTokens(t *testing.T) {
	cases := map[string]string{
		"playback_FL": "FL",
		"playback_FR": "FR",
		"input_3":     "3",
		"monitor":     "monitor",
	}
	for name, want := range cases {
		if got := channelDesignator(name); got != want {
			t.Errorf("channelDesignator(%q) = %q, want %q", name, got, want)
		}
	}
}
