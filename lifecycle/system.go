package lifecycle

import (
	"github.com/shirou/gopsutil/v3/mem"
)

// backupMemoryPerJob is the advisory working-set estimate for one concurrent
// backup or restore job.
const backupMemoryPerJob = 512 << 20

// warnOnMemoryPressure checks at startup whether the host has headroom for
// the configured concurrency. Advisory only; the worker runs regardless.
func (w *Worker) warnOnMemoryPressure() {
	if w.opts.Operation != OperationAllBackup {
		return
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		w.log.Debugw("Failed to read memory stats", "error", err)
		return
	}
	needed := uint64(w.opts.Limit) * backupMemoryPerJob
	if vm.Available < needed {
		w.log.Warnw("Low memory for configured backup concurrency",
			"limit", w.opts.Limit,
			"available", vm.Available,
			"advised", needed)
	}
}
