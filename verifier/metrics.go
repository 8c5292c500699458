package verifier

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Label values of registerTotal.
const (
	resultRegistered = "registered"
	resultLocalOnly  = "local_only"
	resultDuplicate  = "duplicate"
	resultInvalid    = "invalid"
	resultStoreError = "store_error"
)

// Label values of verifyTotal.
const (
	resultNotFound    = "not_found"
	resultConfirmed   = "confirmed"
	resultUnconfirmed = "unconfirmed"
)

var (
	registerTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fileproof",
			Name:      "register_total",
			Help:      "Total number of registration attempts by result",
		},
		[]string{"result"}, // registered, local_only, duplicate, invalid, store_error
	)

	chainCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fileproof",
			Name:      "chain_calls_total",
			Help:      "Total number of contract calls by function and outcome",
		},
		[]string{"function", "outcome"}, // outcome: success, rpc_error, transport_failure
	)

	verifyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fileproof",
			Name:      "verify_total",
			Help:      "Total number of verifications by result",
		},
		[]string{"result"}, // not_found, confirmed, unconfirmed
	)
)

// RegisterMetrics registers the verifier collectors with reg. Collectors that
// are already registered are left in place.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{registerTotal, chainCallsTotal, verifyTotal} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}
