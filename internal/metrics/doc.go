// Package metrics observes a running layout.
//
// Collector exports Prometheus metrics and plugs into the simulation and
// feed hooks. EnergyTrace keeps a short history of kinetic energy for
// plotting and for deciding when a layout has settled.
package metrics
