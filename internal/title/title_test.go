package title

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		caption  string
		filename string
		wantName string
		wantKey  string
	}{
		{"The.Matrix_(2160p)[HEVC]", "", "The.Matrix_(2160p)[HEVC]", "the matrix"},
		{"Premam (2015) [1080p]", "premam.mkv", "Premam (2015) [1080p]", "premam 2015"},
		{"", "Lucifer.2019.S01.mkv", "Lucifer.2019.S01.mkv", "lucifer 2019 s01 mkv"},
		{"", "", FallbackName, "unknown movie"},
		{"  Drishyam-2  ", "", "  Drishyam-2  ", "drishyam 2"},
	}
	for _, tc := range cases {
		name, key := Normalize(tc.caption, tc.filename)
		require.Equal(t, tc.wantName, name, "display name for %q/%q", tc.caption, tc.filename)
		require.Equal(t, tc.wantKey, key, "search key for %q/%q", tc.caption, tc.filename)
	}
}

func TestNormalizeNeverMutatesDisplayName(t *testing.T) {
	raw := "KGF.Chapter_2-(2022)-[4K]"
	name, key := Normalize(raw, "")
	require.Equal(t, raw, name)
	require.Equal(t, "kgf chapter 2 2022", key)
}
