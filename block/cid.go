// Package block implements the content-addressed fact store: a codec that
// serializes values to a canonical byte form, a CID derivation over SHA3-256,
// and the Store abstraction (spec.md §4.C).
package block

import (
	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
	"golang.org/x/crypto/sha3"

	"github.com/rhizomedb/rhizome-go/value"
)

// CodecDagCBOR is the multicodec code for DAG-CBOR, per spec.md §6.
const CodecDagCBOR = 0x71

// ComputeCID hashes data with SHA3-256 and wraps it as a CIDv1 with the
// DAG-CBOR codec tag, matching spec.md's "cidv1(codec=DAG-CBOR=0x71,
// hash=SHA3-256)". Two byte slices produce equal CIDs iff they are
// byte-for-byte equal, which is what makes Put/Get round-tripping
// content-addressed rather than merely keyed.
func ComputeCID(data []byte) (value.CID, error) {
	digest := sha3.Sum256(data)

	mhash, err := mh.Encode(digest[:], mh.SHA3_256)
	if err != nil {
		return "", err
	}

	c := cid.NewCidV1(CodecDagCBOR, mhash)
	return value.CID(c.String()), nil
}

// ParseCID validates that s is a syntactically well-formed CID string,
// returning it unchanged (Store keys are strings throughout this package;
// cid.Cid is used only transiently for construction and validation).
func ParseCID(s string) (value.CID, error) {
	if _, err := cid.Decode(s); err != nil {
		return "", err
	}
	return value.CID(s), nil
}
