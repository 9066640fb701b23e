// utils/normalize.go
package utils

import (
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var txHashPattern = regexp.MustCompile(`^0x[0-9a-f]{64}$`)

// NormalizeAddress returns the canonical lowercase form of an EVM address.
// ok is false when the input is not syntactically an address; callers treat
// that as "invalid/absent", not as an error.
func NormalizeAddress(input string) (string, bool) {
	s := strings.TrimSpace(input)
	if !common.IsHexAddress(s) {
		return "", false
	}
	return strings.ToLower(common.HexToAddress(s).Hex()), true
}

// NormalizeTxHash canonicalizes a transaction hash to lowercase
// 0x-prefixed 64-hex-digit form.
func NormalizeTxHash(input string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(input))
	if !txHashPattern.MatchString(s) {
		return "", false
	}
	return s, true
}
