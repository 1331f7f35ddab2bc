package node

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/jhttp"
	"go.uber.org/ratelimit"

	"github.com/chainscanhq/chainscan-backend/internal/model"
)

// JSON-RPC error code the node uses for unknown blocks.
const codeBlockNotFound jrpc2.Code = -32004

const defaultCallTimeout = 30 * time.Second

type (
	// RPCMetrics records metrics for node RPC calls.
	RPCMetrics interface {
		Observe(operation string, err error, started time.Time)
	}
)

// Client is the JSON-RPC node client. Calls are paced by a rate limiter and
// bounded by a per-call timeout, so a stalled node cannot wedge the
// follower loop.
type Client struct {
	rpc         *jrpc2.Client
	limiter     ratelimit.Limiter
	metrics     RPCMetrics
	callTimeout time.Duration
}

// ClientOptions tune the client. Zero values select defaults.
type ClientOptions struct {
	// CallTimeout bounds each RPC round trip.
	CallTimeout time.Duration
	// RateLimit is the maximum number of calls per second; 0 disables
	// pacing.
	RateLimit int
}

// NewClient connects to the node's JSON-RPC endpoint over HTTP.
func NewClient(url string, metrics RPCMetrics, opts ClientOptions) (*Client, error) {
	if url == "" {
		return nil, errors.New("node rpc url is required")
	}
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	limiter := ratelimit.NewUnlimited()
	if opts.RateLimit > 0 {
		limiter = ratelimit.New(opts.RateLimit)
	}

	ch := jhttp.NewChannel(url, nil)
	return &Client{
		rpc:         jrpc2.NewClient(ch, nil),
		limiter:     limiter,
		metrics:     metrics,
		callTimeout: timeout,
	}, nil
}

// BestBlock returns the node's current best block pointer.
func (c *Client) BestBlock(ctx context.Context) (tip model.ChainTip, err error) {
	started := time.Now()
	defer func() {
		c.observe("best_block", err, started)
	}()

	var res tipResult
	if err = c.call(ctx, "chain_bestBlock", nil, &res); err != nil {
		return model.ChainTip{}, fmt.Errorf("get best block: %w", err)
	}
	hash, err := chainhash.NewHashFromStr(res.Hash)
	if err != nil {
		return model.ChainTip{}, fmt.Errorf("decode best block hash: %w", err)
	}
	return model.ChainTip{Height: res.Height, Hash: *hash}, nil
}

// BlockAtHeight fetches the main-chain block at the given height, or
// ErrNotFound if the node's chain is shorter.
func (c *Client) BlockAtHeight(ctx context.Context, height uint64) (b *model.Block, err error) {
	started := time.Now()
	defer func() {
		c.observe("block_at_height", err, started)
	}()

	var res blockResult
	if err = c.call(ctx, "chain_blockAtHeight", []uint64{height}, &res); err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get block at height %d: %w", height, err)
	}
	return res.toModel()
}

// Close terminates the underlying RPC client.
func (c *Client) Close() error {
	c.rpc.Close()
	return nil
}

func (c *Client) call(ctx context.Context, method string, params, result any) error {
	c.limiter.Take()
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	return c.rpc.CallResult(ctx, method, params, result)
}

func (c *Client) observe(op string, err error, started time.Time) {
	if c.metrics != nil {
		c.metrics.Observe(op, err, started)
	}
}

func isNotFound(err error) bool {
	var rpcErr *jrpc2.Error
	return errors.As(err, &rpcErr) && rpcErr.Code == codeBlockNotFound
}

type tipResult struct {
	Height uint64 `json:"height"`
	Hash   string `json:"hash"`
}

type transferResult struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
}

type txResult struct {
	ID      string           `json:"id"`
	Inputs  []transferResult `json:"inputs"`
	Outputs []transferResult `json:"outputs"`
}

type blockResult struct {
	Height     uint64     `json:"height"`
	Hash       string     `json:"hash"`
	ParentHash string     `json:"parent_hash"`
	Timestamp  int64      `json:"timestamp"`
	Txs        []txResult `json:"txs"`
}

func (r *blockResult) toModel() (*model.Block, error) {
	hash, err := chainhash.NewHashFromStr(r.Hash)
	if err != nil {
		return nil, fmt.Errorf("decode block hash: %w", err)
	}
	parent, err := chainhash.NewHashFromStr(r.ParentHash)
	if err != nil {
		return nil, fmt.Errorf("decode parent hash: %w", err)
	}
	b := &model.Block{
		Height:     r.Height,
		Hash:       *hash,
		ParentHash: *parent,
		Timestamp:  time.Unix(r.Timestamp, 0).UTC(),
	}
	for _, tx := range r.Txs {
		id, err := chainhash.NewHashFromStr(tx.ID)
		if err != nil {
			return nil, fmt.Errorf("decode tx id: %w", err)
		}
		mt := model.Transaction{ID: *id, BlockHeight: r.Height, BlockHash: *hash}
		for _, in := range tx.Inputs {
			mt.Inputs = append(mt.Inputs, model.TxInput{Address: in.Address, Amount: in.Amount})
		}
		for _, out := range tx.Outputs {
			mt.Outputs = append(mt.Outputs, model.TxOutput{Address: out.Address, Amount: out.Amount})
		}
		b.Txs = append(b.Txs, mt)
	}
	return b, nil
}
