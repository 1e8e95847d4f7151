// Package exporter serves the metrics held by a prometheus gatherer over
// HTTP in the text exposition format.
//
package exporter
