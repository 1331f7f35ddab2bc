package leveldbstore

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/chainscanhq/chainscan-backend/internal/model"
)

// Key prefixes partition the keyspace into the logical tables of the index.
const (
	prefixBlock     = "b/"
	prefixHashIndex = "h/"
	prefixTx        = "t/"
	prefixAggregate = "a/"
	prefixAddressTx = "x/"

	keyCursor  = "cursor"
	keyVersion = "version"
)

func blockKey(height uint64) []byte {
	key := make([]byte, len(prefixBlock)+8)
	copy(key, prefixBlock)
	binary.BigEndian.PutUint64(key[len(prefixBlock):], height)
	return key
}

func hashIndexKey(hash chainhash.Hash) []byte {
	return append([]byte(prefixHashIndex), hash[:]...)
}

func txKey(id chainhash.Hash) []byte {
	return append([]byte(prefixTx), id[:]...)
}

func aggregateKey(address string) []byte {
	return append([]byte(prefixAggregate), address...)
}

func addressTxKey(address string) []byte {
	return append([]byte(prefixAddressTx), address...)
}

type transferRow struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
}

type txRow struct {
	ID          string        `json:"id"`
	BlockHeight uint64        `json:"block_height"`
	BlockHash   string        `json:"block_hash"`
	Inputs      []transferRow `json:"inputs,omitempty"`
	Outputs     []transferRow `json:"outputs,omitempty"`
}

type blockRow struct {
	Height     uint64  `json:"height"`
	Hash       string  `json:"hash"`
	ParentHash string  `json:"parent_hash"`
	Timestamp  int64   `json:"timestamp"`
	Txs        []txRow `json:"txs,omitempty"`
}

type aggregateRow struct {
	Balance int64 `json:"balance"`
	TxCount int64 `json:"tx_count"`
}

type cursorRow struct {
	Height uint64 `json:"height"`
	Hash   string `json:"hash"`
}

func encodeBlock(b *model.Block) ([]byte, error) {
	row := blockRow{
		Height:     b.Height,
		Hash:       b.Hash.String(),
		ParentHash: b.ParentHash.String(),
		Timestamp:  b.Timestamp.Unix(),
		Txs:        make([]txRow, 0, len(b.Txs)),
	}
	for i := range b.Txs {
		row.Txs = append(row.Txs, txToRow(&b.Txs[i]))
	}
	return json.Marshal(row)
}

func decodeBlock(raw []byte) (*model.Block, error) {
	var row blockRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("decode block row: %w", err)
	}
	hash, err := chainhash.NewHashFromStr(row.Hash)
	if err != nil {
		return nil, fmt.Errorf("decode block hash: %w", err)
	}
	parent, err := chainhash.NewHashFromStr(row.ParentHash)
	if err != nil {
		return nil, fmt.Errorf("decode parent hash: %w", err)
	}
	b := &model.Block{
		Height:     row.Height,
		Hash:       *hash,
		ParentHash: *parent,
		Timestamp:  time.Unix(row.Timestamp, 0).UTC(),
		Txs:        make([]model.Transaction, 0, len(row.Txs)),
	}
	for i := range row.Txs {
		tx, err := rowToTx(&row.Txs[i])
		if err != nil {
			return nil, err
		}
		b.Txs = append(b.Txs, *tx)
	}
	return b, nil
}

func encodeTx(tx *model.Transaction) ([]byte, error) {
	row := txToRow(tx)
	return json.Marshal(row)
}

func decodeTx(raw []byte) (*model.Transaction, error) {
	var row txRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("decode tx row: %w", err)
	}
	return rowToTx(&row)
}

func txToRow(tx *model.Transaction) txRow {
	row := txRow{
		ID:          tx.ID.String(),
		BlockHeight: tx.BlockHeight,
		BlockHash:   tx.BlockHash.String(),
	}
	for _, in := range tx.Inputs {
		row.Inputs = append(row.Inputs, transferRow{Address: in.Address, Amount: in.Amount})
	}
	for _, out := range tx.Outputs {
		row.Outputs = append(row.Outputs, transferRow{Address: out.Address, Amount: out.Amount})
	}
	return row
}

func rowToTx(row *txRow) (*model.Transaction, error) {
	id, err := chainhash.NewHashFromStr(row.ID)
	if err != nil {
		return nil, fmt.Errorf("decode tx id: %w", err)
	}
	blockHash, err := chainhash.NewHashFromStr(row.BlockHash)
	if err != nil {
		return nil, fmt.Errorf("decode tx block hash: %w", err)
	}
	tx := &model.Transaction{
		ID:          *id,
		BlockHeight: row.BlockHeight,
		BlockHash:   *blockHash,
	}
	for _, in := range row.Inputs {
		tx.Inputs = append(tx.Inputs, model.TxInput{Address: in.Address, Amount: in.Amount})
	}
	for _, out := range row.Outputs {
		tx.Outputs = append(tx.Outputs, model.TxOutput{Address: out.Address, Amount: out.Amount})
	}
	return tx, nil
}

func encodeCursor(c model.SyncCursor) ([]byte, error) {
	return json.Marshal(cursorRow{Height: c.Height, Hash: c.Hash.String()})
}

func decodeCursor(raw []byte) (model.SyncCursor, error) {
	var row cursorRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return model.SyncCursor{}, fmt.Errorf("decode cursor row: %w", err)
	}
	hash, err := chainhash.NewHashFromStr(row.Hash)
	if err != nil {
		return model.SyncCursor{}, fmt.Errorf("decode cursor hash: %w", err)
	}
	return model.SyncCursor{Height: row.Height, Hash: *hash}, nil
}

func encodeTxIDs(ids []chainhash.Hash) ([]byte, error) {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	return json.Marshal(strs)
}

func decodeTxIDs(raw []byte) ([]chainhash.Hash, error) {
	var strs []string
	if err := json.Unmarshal(raw, &strs); err != nil {
		return nil, fmt.Errorf("decode tx id list: %w", err)
	}
	ids := make([]chainhash.Hash, 0, len(strs))
	for _, s := range strs {
		id, err := chainhash.NewHashFromStr(s)
		if err != nil {
			return nil, fmt.Errorf("decode tx id: %w", err)
		}
		ids = append(ids, *id)
	}
	return ids, nil
}
