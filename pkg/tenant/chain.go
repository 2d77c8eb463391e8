// Package tenant implements the dotted-tenant fallback chain used by every
// selector-based resolution in the configuration store.
package tenant

import "strings"

// Wildcard is the catch-all tenant that terminates every fallback chain.
const Wildcard = "*"

// FallbackChain expands a dotted tenant id into its fallback chain, most
// specific first, always ending with the wildcard tenant.
//
//	"pb.amritsar" -> ["pb.amritsar", "pb", "*"]
//	"pb"          -> ["pb", "*"]
//	""            -> ["*"]
func FallbackChain(tenantID string) []string {
	var chain []string
	if tenantID != "" {
		chain = append(chain, tenantID)
		t := tenantID
		for strings.Contains(t, ".") {
			t = t[:strings.LastIndex(t, ".")]
			chain = append(chain, t)
		}
	}
	return append(chain, Wildcard)
}

// Rank returns the position of tenantID within the chain, or len(chain) when
// the tenant does not appear. Lower rank means higher resolution priority.
func Rank(chain []string, tenantID string) int {
	for i, t := range chain {
		if t == tenantID {
			return i
		}
	}
	return len(chain)
}
