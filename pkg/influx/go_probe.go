package influx

import (
	"runtime"
	"time"
)

func (c *Client) goProbeMain() {
	defer c.wg.Done()

	ticker := time.NewTicker(time.Duration(c.Cfg.FlushInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return

		case <-ticker.C:
			c.EnqueueMeasurements(GoProbeMeasurements(time.Now()))
		}
	}
}

// GoProbeMeasurements returns measurements describing the Go runtime of the
// current process.
func GoProbeMeasurements(now time.Time) Measurements {
	return Measurements{
		goProbeGoroutinesMeasurement(now),
		goProbeMemoryMeasurement(now),
	}
}

func goProbeGoroutinesMeasurement(now time.Time) *Measurement {
	m := newGoProbeMeasurement("go_goroutines", now)
	m.AddInt("count", int64(runtime.NumGoroutine()))

	return m
}

func goProbeMemoryMeasurement(now time.Time) *Measurement {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	m := newGoProbeMeasurement("go_memory", now)

	m.AddInt("heap_alloc", int64(stats.HeapAlloc)).
		AddInt("heap_sys", int64(stats.HeapSys)).
		AddInt("heap_idle", int64(stats.HeapIdle)).
		AddInt("heap_in_use", int64(stats.HeapInuse)).
		AddInt("heap_released", int64(stats.HeapReleased))

	m.AddInt("stack_in_use", int64(stats.StackInuse)).
		AddInt("stack_sys", int64(stats.StackSys))

	m.AddInt("nb_gcs", int64(stats.NumGC)).
		AddFloat("gc_cpu_time_fraction", stats.GCCPUFraction)

	return m
}

func newGoProbeMeasurement(name string, now time.Time) *Measurement {
	m, _ := NewMeasurement(name, nil, nil, now.UnixNano(), PrecisionNanoseconds)
	return m
}
