package g2p_test

import (
	"slices"
	"testing"

	"github.com/MrWong99/lingoxa/pkg/provider/g2p"
)

func TestParseARPAbet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{"HH AH0 L OW1", []string{"HH", "AH0", "L", "OW1"}},
		{"[hh, ah0, l, ow1]", []string{"HH", "AH0", "L", "OW1"}},
		{"/K AE1 T/.", []string{"K", "AE1", "T"}},
		{"Sure! The phonemes are: K AE1 T", []string{"K", "AE1", "T"}},
		{"", []string{}},
		{"123 ###", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := g2p.ParseARPAbet(tt.in); !slices.Equal(got, tt.want) {
				t.Errorf("ParseARPAbet(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
