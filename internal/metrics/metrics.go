// Package metrics holds the Prometheus collectors shared by the editor and
// the artifact store.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "scriptsynth"

var (
	EditorOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "editor_operations_total",
		Help:      "Editor mutations by operation and result.",
	}, []string{"operation", "result"})

	Materializations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "materializations_total",
		Help:      "Save attempts by result.",
	}, []string{"result"})

	ArtifactsStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "artifacts_stored_total",
		Help:      "Documents accepted by the artifact store, by backend.",
	}, []string{"backend"})

	ArtifactBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "artifact_bytes",
		Help:      "Size of the most recently stored config.yaml.",
	})
)
