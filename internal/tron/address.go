// Package tron provides structural validation for Tron mainnet addresses.
package tron

import "regexp"

// AddressLength is the fixed length of a mainnet address.
const AddressLength = 34

// Mainnet address pattern: leading T, then 33 Base58 characters. The Base58
// alphabet excludes 0, O, I and l; case is significant.
var addressRegex = regexp.MustCompile(`^T[1-9A-HJ-NP-Za-km-z]{33}$`)

// IsValidAddress reports whether address is structurally a valid Tron
// mainnet address. The check is purely syntactic; no checksum or network
// lookup is performed.
func IsValidAddress(address string) bool {
	if len(address) != AddressLength {
		return false
	}
	return addressRegex.MatchString(address)
}
