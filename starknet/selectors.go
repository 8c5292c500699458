package starknet

import (
	"math/big"
	"sort"

	"golang.org/x/crypto/sha3"

	"github.com/bitfsorg/libfileproof-go/felt"
)

// Entry points of the file registry contract.
const (
	FnRegisterFile     = "register_file"
	FnIsFileRegistered = "is_file_registered"
	FnVerifyFile       = "verify_file"
	FnGetAuthorFiles   = "get_author_files"
)

// selectorMask keeps the low 250 bits of a Keccak-256 digest.
var selectorMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 250), big.NewInt(1))

// ComputeSelector returns the Starknet entry point selector for name:
// Keccak-256 of the ASCII name truncated to 250 bits.
func ComputeSelector(name string) felt.Element {
	d := sha3.NewLegacyKeccak256()
	d.Write([]byte(name))
	n := new(big.Int).SetBytes(d.Sum(nil))
	return felt.FromBig(n.And(n, selectorMask))
}

// SelectorTable maps contract function names to entry point selectors.
// A table is immutable after construction and safe for concurrent use.
type SelectorTable struct {
	byName map[string]felt.Element
}

// NewSelectorTable computes selectors for the given function names.
func NewSelectorTable(names ...string) *SelectorTable {
	t := &SelectorTable{byName: make(map[string]felt.Element, len(names))}
	for _, name := range names {
		t.byName[name] = ComputeSelector(name)
	}
	return t
}

// NewSelectorTableFrom builds a table from precomputed selectors.
func NewSelectorTableFrom(selectors map[string]felt.Element) *SelectorTable {
	t := &SelectorTable{byName: make(map[string]felt.Element, len(selectors))}
	for name, sel := range selectors {
		t.byName[name] = sel
	}
	return t
}

// DefaultSelectors covers every entry point of the file registry contract.
var DefaultSelectors = NewSelectorTable(
	FnRegisterFile,
	FnIsFileRegistered,
	FnVerifyFile,
	FnGetAuthorFiles,
)

// Lookup returns the selector for name.
func (t *SelectorTable) Lookup(name string) (felt.Element, bool) {
	sel, ok := t.byName[name]
	return sel, ok
}

// Names returns the function names in sorted order.
func (t *SelectorTable) Names() []string {
	names := make([]string, 0, len(t.byName))
	for name := range t.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
