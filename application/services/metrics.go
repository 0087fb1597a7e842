package services

import "time"

// NoopMetrics discards all measurements
type NoopMetrics struct{}

func (NoopMetrics) RecordCombine(string, time.Duration)    {}
func (NoopMetrics) RecordGeneration(string, time.Duration) {}
func (NoopMetrics) RecordDiscovery(bool)                   {}
func (NoopMetrics) RecordSeed(int, int, int)               {}
