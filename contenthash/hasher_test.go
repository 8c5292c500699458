package contenthash

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"hash"
	"hash/crc32"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github.com/bitfsorg/libfileproof-go/felt"
)

func TestHashDeterministic(t *testing.T) {
	h := Default()
	inputs := [][]byte{nil, {}, {1, 2, 3}, bytes.Repeat([]byte{0xab}, 4096)}
	for _, in := range inputs {
		a := h.Hash(in)
		b := h.Hash(in)
		assert.True(t, a.Equal(b), "hash of %d bytes not deterministic", len(in))
	}
}

func TestHashMatchesKeccakModP(t *testing.T) {
	data := []byte("hello starknet")
	d := sha3.NewLegacyKeccak256()
	d.Write(data)
	want := new(big.Int).Mod(new(big.Int).SetBytes(d.Sum(nil)), felt.Modulus())

	got := Default().Hash(data)
	assert.Equal(t, 0, want.Cmp(got.Big()))
	assert.True(t, felt.IsValidHex(got.Hex()))
}

func TestHashEmptyInput(t *testing.T) {
	// keccak256("") = c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470
	digest, ok := new(big.Int).SetString("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", 16)
	require.True(t, ok)
	want := new(big.Int).Mod(digest, felt.Modulus())

	got := Default().Hash(nil)
	assert.Equal(t, 0, want.Cmp(got.Big()))
	assert.False(t, got.IsZero())
}

func TestHashAdversarialPairDiffers(t *testing.T) {
	h := Default()
	// Same length, single bit flipped.
	a := []byte("The quick brown fox jumps over the lazy dog")
	b := []byte("The quick brown fox jumps over the lazy dof")
	assert.False(t, h.Hash(a).Equal(h.Hash(b)))

	// Prefix relation and trailing zero.
	assert.False(t, h.Hash([]byte{1, 2, 3}).Equal(h.Hash([]byte{1, 2, 3, 0})))
	assert.False(t, h.Hash(nil).Equal(h.Hash([]byte{0})))
}

func TestHashUTF8(t *testing.T) {
	h := Default()
	assert.True(t, h.HashUTF8("héllo").Equal(h.Hash([]byte("héllo"))))
}

func TestHashReaderMatchesHash(t *testing.T) {
	h := Default()
	data := bytes.Repeat([]byte("content-addressed "), 10000)
	got, err := h.HashReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, got.Equal(h.Hash(data)))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestHashReaderError(t *testing.T) {
	_, err := Default().HashReader(failingReader{})
	require.ErrorIs(t, err, ErrReadFailed)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestDigestSelection(t *testing.T) {
	data := []byte{1, 2, 3}
	results := map[string]felt.Element{}
	for _, name := range DigestNames() {
		h, err := NewNamed(name)
		require.NoError(t, err, name)
		results[name] = h.Hash(data)
	}
	require.Len(t, results, 3)
	assert.False(t, results[Keccak256].Equal(results[SHA256]))
	assert.False(t, results[Keccak256].Equal(results[BLAKE3]))
	assert.False(t, results[SHA256].Equal(results[BLAKE3]))

	sum := sha256.Sum256(data)
	want := new(big.Int).Mod(new(big.Int).SetBytes(sum[:]), felt.Modulus())
	assert.Equal(t, 0, want.Cmp(results[SHA256].Big()))
}

func TestDigestByNameUnknown(t *testing.T) {
	_, err := DigestByName("md5")
	require.ErrorIs(t, err, ErrUnknownDigest)

	_, err = NewNamed("poseidon")
	require.ErrorIs(t, err, ErrUnknownDigest)
}

func TestNewRejectsNarrowDigest(t *testing.T) {
	_, err := New(WithDigest(func() hash.Hash { return crc32.NewIEEE() }))
	require.ErrorIs(t, err, ErrDigestSize)
}

func TestDefaultEqualsNew(t *testing.T) {
	h, err := New()
	require.NoError(t, err)
	assert.True(t, h.Hash([]byte("x")).Equal(Default().Hash([]byte("x"))))
}

func TestIsValidFieldHex(t *testing.T) {
	maxValid := new(big.Int).Sub(felt.Modulus(), big.NewInt(1))

	tests := []struct {
		in   string
		want bool
	}{
		{"0x0", true},
		{"0x1", true},
		{"0xdeadBEEF", true},
		{"0x" + maxValid.Text(16), true},
		{"0x" + felt.Modulus().Text(16), false},
		{"0x" + strings.Repeat("f", 63), false},
		{"not-hex", false},
		{"", false},
		{"0x", false},
		{"deadbeef", false},
		{"0xzz", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidFieldHex(tt.in), "IsValidFieldHex(%q)", tt.in)
	}
}

func TestHashOutputAlwaysValidHex(t *testing.T) {
	h := Default()
	for i := 0; i < 64; i++ {
		e := h.Hash([]byte{byte(i)})
		assert.True(t, IsValidFieldHex(e.Hex()))
	}
}
