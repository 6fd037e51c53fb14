package ledger

import (
	"fmt"
)

// regionKeyLen is the fixed width of on-chain region lookup keys.
const regionKeyLen = 32

// RegionKey encodes a jurisdiction region name into the fixed-width,
// null-padded bytes32 the verifier contract keys agencies by.
//
// The encoding is byte-exact: no case folding, no whitespace normalization.
// "Lagos" and "lagos" are different keys and the second will miss the lookup.
// Every call site must go through this function so at least the padding and
// length handling cannot drift. Input longer than 31 bytes errors instead of
// silently truncating.
func RegionKey(region string) ([regionKeyLen]byte, error) {
	var key [regionKeyLen]byte
	if region == "" {
		return key, fmt.Errorf("region must not be empty")
	}
	if len(region) >= regionKeyLen {
		return key, fmt.Errorf("region %q exceeds %d bytes", region, regionKeyLen-1)
	}
	copy(key[:], region)
	return key, nil
}
