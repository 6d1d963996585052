// Package cidutil derives content addresses the same way an IPFS node does for
// single raw blocks.
package cidutil

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// CIDv1RawSHA256 returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// Validate parses s and reports whether it is a well-formed CID.
func Validate(s string) (cid.Cid, error) {
	return cid.Decode(s)
}
