// Package node talks to the trusted full node. The node exposes
// block-at-a-time retrieval and a best-block pointer; everything else the
// index derives itself.
package node

import "errors"

// ErrNotFound is returned when the node does not know a requested block.
// During a reorg this is a normal answer for heights above the new tip.
var ErrNotFound = errors.New("node: block not found")
