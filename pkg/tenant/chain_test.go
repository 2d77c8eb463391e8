package tenant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackChain(t *testing.T) {
	tests := []struct {
		name     string
		tenantID string
		want     []string
	}{
		{"two segments", "pb.amritsar", []string{"pb.amritsar", "pb", "*"}},
		{"three segments", "hr.gurugram.sector14", []string{"hr.gurugram.sector14", "hr.gurugram", "hr", "*"}},
		{"single segment", "pb", []string{"pb", "*"}},
		{"empty tenant", "", []string{"*"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FallbackChain(tt.tenantID))
		})
	}
}

// Chain length is segments+1 and each entry strips exactly one trailing
// segment from the previous one.
func TestFallbackChain_Shape(t *testing.T) {
	ids := []string{"a", "a.b", "a.b.c", "state.city.zone.ward"}
	for _, id := range ids {
		chain := FallbackChain(id)
		require.Len(t, chain, strings.Count(id, ".")+2)
		assert.Equal(t, "*", chain[len(chain)-1])
		for i := 1; i < len(chain)-1; i++ {
			prev := chain[i-1]
			assert.Equal(t, prev[:strings.LastIndex(prev, ".")], chain[i])
		}
	}
}

func TestRank(t *testing.T) {
	chain := []string{"pb.amritsar", "pb", "*"}
	assert.Equal(t, 0, Rank(chain, "pb.amritsar"))
	assert.Equal(t, 1, Rank(chain, "pb"))
	assert.Equal(t, 2, Rank(chain, "*"))
	assert.Equal(t, 3, Rank(chain, "hr"))
}
