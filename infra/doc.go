// Package infra contains technical adapters such as HTTP clients for the
// external emergency services and metrics exporters. These packages should
// depend only on the interfaces defined in the core packages.
package infra
