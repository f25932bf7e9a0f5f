package aggregate

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mtlprog/condoexport/internal/cache"
)

// ErrIntegrity wraps every anomaly when a caller treats them as fatal.
var ErrIntegrity = errors.New("data integrity anomalies")

// AnomalyKind classifies an upstream data problem.
type AnomalyKind string

const (
	AnomalyUnknownAccountType   AnomalyKind = "unknown-account-type"
	AnomalyUnknownAccount       AnomalyKind = "unknown-account"
	AnomalyMultipleCurrentYears AnomalyKind = "multiple-current-years"
)

// Anomaly is a data problem found while aggregating. The affected rows are
// still exported; the anomaly tells the operator which ones to distrust.
type Anomaly struct {
	Kind   AnomalyKind
	Source cache.Key
	Detail string
}

func (a Anomaly) Error() string {
	return fmt.Sprintf("%s in %s: %s", a.Kind, a.Source, a.Detail)
}

type anomalies struct {
	seen map[Anomaly]bool
	list []Anomaly
}

func (as *anomalies) report(a Anomaly) {
	if as.seen == nil {
		as.seen = make(map[Anomaly]bool)
	}
	if as.seen[a] {
		return
	}
	as.seen[a] = true
	as.list = append(as.list, a)
	slog.Warn("data integrity anomaly", "kind", string(a.Kind), "source", string(a.Source), "detail", a.Detail)
}
