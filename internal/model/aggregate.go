package model

// AddressAggregate is the derived per-address summary maintained by the
// indexer. Balance is the net flow of all currently indexed transactions
// referencing the address; TxCount counts those transactions. An aggregate
// whose fields are all zero is removed from storage entirely.
type AddressAggregate struct {
	Address string
	Balance int64
	TxCount int64
}

// IsZero reports whether the aggregate carries no indexed state.
func (a AddressAggregate) IsZero() bool {
	return a.Balance == 0 && a.TxCount == 0
}
