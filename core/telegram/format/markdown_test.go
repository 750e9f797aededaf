package format

import "testing"

func TestEscapeV2(t *testing.T) {
	cases := map[string]string{
		"Kyiv, 12.5°C (feels-like)!": `Kyiv, 12\.5°C \(feels\-like\)\!`,
		"a_b*c":                      `a\_b\*c`,
		`back\slash`:                 `back\\slash`,
		"Ivano-Frankivsk":            `Ivano\-Frankivsk`,
	}
	for in, want := range cases {
		if got := EscapeV2(in); got != want {
			t.Fatalf("EscapeV2(%q) = %q, want %q", in, got, want)
		}
	}
}
