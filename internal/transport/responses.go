package transport

import (
	"time"

	"github.com/chainscanhq/chainscan-backend/internal/model"
)

type tipResponse struct {
	Height uint64 `json:"height"`
	Hash   string `json:"hash"`
}

type blockResponse struct {
	Height     uint64    `json:"height"`
	Hash       string    `json:"hash"`
	ParentHash string    `json:"parent_hash"`
	Timestamp  time.Time `json:"timestamp"`
	TxIDs      []string  `json:"tx_ids"`
}

type transactionResponse struct {
	ID          string          `json:"id"`
	BlockHeight uint64          `json:"block_height"`
	BlockHash   string          `json:"block_hash"`
	Inputs      []transferEntry `json:"inputs"`
	Outputs     []transferEntry `json:"outputs"`
}

type transferEntry struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
}

type addressResponse struct {
	Address string   `json:"address"`
	Balance int64    `json:"balance"`
	TxCount int64    `json:"tx_count"`
	TxIDs   []string `json:"tx_ids"`
}

func newBlockResponse(b *model.Block) blockResponse {
	resp := blockResponse{
		Height:     b.Height,
		Hash:       b.Hash.String(),
		ParentHash: b.ParentHash.String(),
		Timestamp:  b.Timestamp,
		TxIDs:      make([]string, 0, len(b.Txs)),
	}
	for _, tx := range b.Txs {
		resp.TxIDs = append(resp.TxIDs, tx.ID.String())
	}
	return resp
}

func newTransactionResponse(tx *model.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:          tx.ID.String(),
		BlockHeight: tx.BlockHeight,
		BlockHash:   tx.BlockHash.String(),
		Inputs:      make([]transferEntry, 0, len(tx.Inputs)),
		Outputs:     make([]transferEntry, 0, len(tx.Outputs)),
	}
	for _, in := range tx.Inputs {
		resp.Inputs = append(resp.Inputs, transferEntry{Address: in.Address, Amount: in.Amount})
	}
	for _, out := range tx.Outputs {
		resp.Outputs = append(resp.Outputs, transferEntry{Address: out.Address, Amount: out.Amount})
	}
	return resp
}
