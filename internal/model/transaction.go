package model

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// Transaction is a value transfer recorded in a block. BlockHeight and
// BlockHash are back-references to the containing block.
type Transaction struct {
	ID          chainhash.Hash
	BlockHeight uint64
	BlockHash   chainhash.Hash
	Inputs      []TxInput
	Outputs     []TxOutput
}

// TxInput spends value from an address.
type TxInput struct {
	Address string
	Amount  int64
}

// TxOutput credits value to an address.
type TxOutput struct {
	Address string
	Amount  int64
}

// Addresses returns every address referenced by the transaction, each one
// listed once, in first-seen order.
func (t *Transaction) Addresses() []string {
	seen := make(map[string]struct{}, len(t.Inputs)+len(t.Outputs))
	addrs := make([]string, 0, len(t.Inputs)+len(t.Outputs))
	add := func(a string) {
		if a == "" {
			return
		}
		if _, ok := seen[a]; ok {
			return
		}
		seen[a] = struct{}{}
		addrs = append(addrs, a)
	}
	for _, in := range t.Inputs {
		add(in.Address)
	}
	for _, out := range t.Outputs {
		add(out.Address)
	}
	return addrs
}
