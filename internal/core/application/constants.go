package application

import (
	"time"

	"github.com/vesper-wallet/vesper/pkg/explorer"
)

const (
	// DefaultGapLimit is the number of consecutive unused addresses that
	// ends an account discovery scan.
	DefaultGapLimit = 20
	// DefaultMaxGapExtensions caps how many times a discovery scan may
	// extend the address window past the initial one.
	DefaultMaxGapExtensions = 10
	// DefaultCacheTTL is the age after which a reconciled cache counts as
	// stale.
	DefaultCacheTTL = 30 * time.Minute
	// DefaultMinConfirmations is the confirmation threshold for an output
	// to fund a new transaction.
	DefaultMinConfirmations = 2

	// maxConcurrentTxFetches bounds the fan-out of transaction fetches
	// towards the indexer during reconciliation.
	maxConcurrentTxFetches = 8
)

// FallbackFeeRates is the conservative static table used when the indexer
// cannot provide fee estimations. Fee estimation failures never block the
// send flow.
var FallbackFeeRates = explorer.FeeRates{
	Slow:   2,
	Normal: 5,
	Fast:   10,
	Urgent: 25,
}

// FeePriority selects the confirmation target of a send.
type FeePriority string

const (
	FeePrioritySlow   FeePriority = "slow"
	FeePriorityNormal FeePriority = "normal"
	FeePriorityFast   FeePriority = "fast"
	FeePriorityUrgent FeePriority = "urgent"
)
