// Package contenthash reduces arbitrary content to a felt.Element usable as a
// Starknet call argument.
//
// The reduction is digest-then-modulo: a 256-bit digest of the input is read as
// a big-endian integer and reduced modulo the Stark prime. The digest is
// pluggable. Keccak-256 is the default; deployments that must interoperate with
// on-chain Poseidon hashing substitute that primitive via WithDigest.
package contenthash

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"sort"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"

	"github.com/bitfsorg/libfileproof-go/felt"
)

// DigestSize is the required digest output length in bytes.
const DigestSize = 32

// Digest algorithm names accepted by DigestByName.
const (
	Keccak256 = "keccak256"
	SHA256    = "sha256"
	BLAKE3    = "blake3"
)

var digests = map[string]func() hash.Hash{
	Keccak256: sha3.NewLegacyKeccak256,
	SHA256:    sha256.New,
	BLAKE3:    func() hash.Hash { return blake3.New() },
}

// DigestByName returns the constructor for a named digest algorithm.
func DigestByName(name string) (func() hash.Hash, error) {
	d, ok := digests[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDigest, name)
	}
	return d, nil
}

// DigestNames lists the supported algorithm names in sorted order.
func DigestNames() []string {
	names := make([]string, 0, len(digests))
	for name := range digests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Hasher maps content to field elements. It holds no mutable state and is safe
// for concurrent use; every call allocates its own digest.
type Hasher struct {
	newDigest func() hash.Hash
}

// Option configures a Hasher.
type Option func(*Hasher)

// WithDigest replaces the default Keccak-256 digest.
func WithDigest(newDigest func() hash.Hash) Option {
	return func(h *Hasher) { h.newDigest = newDigest }
}

// New creates a Hasher. It fails if the configured digest is not 256 bits wide.
func New(opts ...Option) (*Hasher, error) {
	h := &Hasher{newDigest: sha3.NewLegacyKeccak256}
	for _, opt := range opts {
		opt(h)
	}
	if size := h.newDigest().Size(); size != DigestSize {
		return nil, fmt.Errorf("%w: got %d", ErrDigestSize, size)
	}
	return h, nil
}

// NewNamed creates a Hasher using a digest selected by name.
func NewNamed(name string) (*Hasher, error) {
	d, err := DigestByName(name)
	if err != nil {
		return nil, err
	}
	return New(WithDigest(d))
}

// Default returns a Keccak-256 Hasher.
func Default() *Hasher {
	return &Hasher{newDigest: sha3.NewLegacyKeccak256}
}

// Hash digests data and reduces the digest into the field. Empty input is
// valid and hashes like any other input.
func (h *Hasher) Hash(data []byte) felt.Element {
	d := h.newDigest()
	d.Write(data)
	return felt.Reduce(d.Sum(nil))
}

// HashUTF8 hashes the UTF-8 bytes of text.
func (h *Hasher) HashUTF8(text string) felt.Element {
	return h.Hash([]byte(text))
}

// HashReader streams r through the digest so large files are never buffered
// whole.
func (h *Hasher) HashReader(r io.Reader) (felt.Element, error) {
	d := h.newDigest()
	if _, err := io.Copy(d, r); err != nil {
		return felt.Element{}, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	return felt.Reduce(d.Sum(nil)), nil
}

// IsValidFieldHex reports whether s is "0x" + hex with a value below the
// field modulus. Malformed input yields false, never a panic.
func IsValidFieldHex(s string) bool {
	return felt.IsValidHex(s)
}
