package wallet

// Transaction size model for P2PKH spends, in bytes.
const (
	TxOverheadSize = 10
	TxInputSize    = 148
	TxOutputSize   = 34
)

// EstimateSize returns the estimated size of a transaction.
func EstimateSize(inputs, outputs int) uint64 {
	return TxOverheadSize + TxInputSize*uint64(inputs) + TxOutputSize*uint64(outputs)
}

// EstimateFee returns size * feeRate, feeRate in units per byte.
func EstimateFee(inputs, outputs int, feeRate uint64) uint64 {
	return EstimateSize(inputs, outputs) * feeRate
}
