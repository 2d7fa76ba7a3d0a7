package metrics

import (
	"github.com/meur/wftracker/internal/inventory"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the tracker's Prometheus collectors
type Metrics struct {
	mutations     *prometheus.CounterVec
	inventorySize prometheus.Gauge
	catalogSize   prometheus.Gauge
	catalogErrors prometheus.Counter
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wftracker",
			Name:      "inventory_mutations_total",
			Help:      "Inventory mutations by kind.",
		}, []string{"kind"}),
		inventorySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wftracker",
			Name:      "inventory_items",
			Help:      "Tracked items in the inventory.",
		}),
		catalogSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wftracker",
			Name:      "catalog_items",
			Help:      "Items in the loaded catalog.",
		}),
		catalogErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wftracker",
			Name:      "catalog_load_failures_total",
			Help:      "Failed catalog loads.",
		}),
	}
	reg.MustRegister(m.mutations, m.inventorySize, m.catalogSize, m.catalogErrors)
	return m
}

// ObserveEvent records one inventory change notification
func (m *Metrics) ObserveEvent(ev inventory.Event) {
	m.mutations.WithLabelValues(string(ev.Kind)).Inc()
	m.inventorySize.Set(float64(ev.Count))
}

// SetInventorySize sets the inventory gauge
func (m *Metrics) SetInventorySize(n int) {
	m.inventorySize.Set(float64(n))
}

// CatalogLoaded records a catalog load outcome
func (m *Metrics) CatalogLoaded(items int, err error) {
	if err != nil {
		m.catalogErrors.Inc()
		m.catalogSize.Set(0)
		return
	}
	m.catalogSize.Set(float64(items))
}
