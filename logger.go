package trie

import "go.uber.org/zap"

// Logger is the package-level structured logger used by the storage
// backend adapters (store/badgerstore) and the trie-cli tool. The core
// node/mutator/codec algorithms never log: they stay pure and
// allocation-predictable, and any observability for them belongs at the
// boundary where their results actually leave the process (a store write,
// a CLI command). Defaults to a no-op logger so importing this package
// never produces output unless a caller opts in.
var Logger = zap.NewNop()

// SetLogger replaces the package-level Logger. l must not be nil.
func SetLogger(l *zap.Logger) {
	if l == nil {
		return
	}
	Logger = l
}
