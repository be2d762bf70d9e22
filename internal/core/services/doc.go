// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// A publishing run is strictly sequential: the provider partition is
// queried, every source record is transformed and batched into the index,
// and only then are the subjects no longer present in the source deleted.
package services
