package account

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tinoosan/accountrix/internal/errs"
)

var storeOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "accountrix",
		Name:      "store_operations_total",
		Help:      "Record store operations by operation and outcome",
	},
	[]string{"op", "result"},
)

func observe(op string, err error) {
	storeOperationsTotal.WithLabelValues(op, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errs.ErrNotFound):
		return "not_found"
	case errors.Is(err, errs.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, errs.ErrCreateFailed):
		return "create_failed"
	case errors.Is(err, errs.ErrInvalid):
		return "invalid"
	default:
		return "error"
	}
}
