package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spaolacci/murmur3"
)

// NoParamsHash is the params hash of an endpoint observed with no
// parameters at all.
const NoParamsHash = "na"

// ParamsHash returns the canonical parameter-shape hash used in endpoint
// identity keys. Only parameter names contribute; two observations of the
// same endpoint with different values but the same parameter set hash
// identically.
func ParamsHash(params map[string][]string) string {
	if len(params) == 0 {
		return NoParamsHash
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	h := murmur3.Sum32([]byte(strings.Join(names, "&")))
	return fmt.Sprintf("%08x", h)
}
