package record

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"maps"
	"slices"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/joshuapare/dfxmlkit/pkg/types"
)

// HashAlgo names a digest algorithm the way hashdigest elements do, in
// lower case.
type HashAlgo string

const (
	HashMD5     HashAlgo = "md5"
	HashSHA1    HashAlgo = "sha1"
	HashSHA256  HashAlgo = "sha256"
	HashSHA512  HashAlgo = "sha512"
	HashSHA3256 HashAlgo = "sha3-256"
	HashSHA3512 HashAlgo = "sha3-512"
)

var hashFuncs = map[HashAlgo]func() hash.Hash{
	HashMD5:     md5.New,
	HashSHA1:    sha1.New,
	HashSHA256:  sha256.New,
	HashSHA512:  sha512.New,
	HashSHA3256: sha3.New256,
	HashSHA3512: sha3.New512,
}

// hashAliases maps spellings seen in the wild to the canonical name.
var hashAliases = map[string]HashAlgo{
	"sha-1":    HashSHA1,
	"sha-256":  HashSHA256,
	"sha-512":  HashSHA512,
	"sha3_256": HashSHA3256,
	"sha3_512": HashSHA3512,
}

// ParseHashAlgo normalizes a hashdigest type attribute.
func ParseHashAlgo(s string) HashAlgo {
	s = strings.ToLower(strings.TrimSpace(s))
	if a, ok := hashAliases[s]; ok {
		return a
	}
	return HashAlgo(s)
}

// NewHash returns a fresh hash for alg.
func NewHash(alg HashAlgo) (hash.Hash, error) {
	fn, ok := hashFuncs[ParseHashAlgo(string(alg))]
	if !ok {
		return nil, &types.Error{Kind: types.ErrKindUnsupported, Msg: "unsupported hash algorithm " + string(alg), Err: types.ErrUnsupported}
	}
	return fn(), nil
}

// SupportedHashAlgos returns the algorithms NewHash accepts, sorted.
func SupportedHashAlgos() []HashAlgo {
	return slices.Sorted(maps.Keys(hashFuncs))
}
