package metrics

import (
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransfersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "token_transfers_total",
		Help: "Successful transfers committed to the ledger.",
	})

	TransferFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "token_transfer_failures_total",
		Help: "Rejected transfers by reason.",
	}, []string{"reason"})

	PaymentRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "token_payment_records_total",
		Help: "Payment records created.",
	})

	SupplyIncreases = promauto.NewCounter(prometheus.CounterOpts{
		Name: "token_supply_increases_total",
		Help: "Owner mints committed.",
	})

	TotalSupply = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "token_total_supply_display_units",
		Help: "Current total supply in display units.",
	})
)

// SetTotalSupply records the supply gauge in display units. Precision
// loss past float64 is acceptable for a gauge.
func SetTotalSupply(smallestUnits *big.Int) {
	f, _ := new(big.Float).Quo(
		new(big.Float).SetInt(smallestUnits),
		big.NewFloat(1e18),
	).Float64()
	TotalSupply.Set(f)
}
