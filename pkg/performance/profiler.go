// Package performance captures the host a benchmark runs on and profiles
// the timing phase.
package performance

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// HostInfo describes the machine timings were taken on.
type HostInfo struct {
	CPUModel      string
	LogicalCores  int
	PhysicalCores int
	CPUFeatures   []string
	TotalMemory   uint64
	GOOS          string
	GOARCH        string
	GoVersion     string
	GOMAXPROCS    int
}

// DescribeHost collects host information. Fields gopsutil cannot read on
// this platform are left at their zero value.
func DescribeHost() HostInfo {
	info := HostInfo{
		LogicalCores: runtime.NumCPU(),
		CPUFeatures:  cpuFeatures(),
		GOOS:         runtime.GOOS,
		GOARCH:       runtime.GOARCH,
		GoVersion:    runtime.Version(),
		GOMAXPROCS:   runtime.GOMAXPROCS(0),
	}

	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		info.CPUModel = infos[0].ModelName
	}
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		info.LogicalCores = n
	}
	if n, err := cpu.Counts(false); err == nil {
		info.PhysicalCores = n
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.TotalMemory = vm.Total
	}
	return info
}

// Fields returns the host description as log fields.
func (h HostInfo) Fields() []zap.Field {
	return []zap.Field{
		zap.String("cpu_model", h.CPUModel),
		zap.Int("logical_cores", h.LogicalCores),
		zap.Int("physical_cores", h.PhysicalCores),
		zap.Strings("cpu_features", h.CPUFeatures),
		zap.Uint64("total_memory", h.TotalMemory),
		zap.String("os", h.GOOS),
		zap.String("arch", h.GOARCH),
		zap.String("go_version", h.GoVersion),
		zap.Int("gomaxprocs", h.GOMAXPROCS),
	}
}

// ResourceMonitor monitors the resources of the current process
type ResourceMonitor struct {
	process      *process.Process
	startCPUTime float64
	startTime    time.Time
	mu           sync.RWMutex
}

// NewResourceMonitor creates a resource monitor
func NewResourceMonitor() (*ResourceMonitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to open current process: %w", err)
	}

	rm := &ResourceMonitor{
		process:   proc,
		startTime: time.Now(),
	}
	if cpuTime, err := proc.Times(); err == nil {
		rm.startCPUTime = cpuTime.Total()
	}
	return rm, nil
}

// ResourceUsage contains resource usage information
type ResourceUsage struct {
	CPUPercent            float64
	MemoryRSS             uint64
	MemoryVMS             uint64
	SystemMemoryPercent   float64
	SystemMemoryAvailable uint64
	GoroutineCount        int
	ThreadCount           int32
	HeapAlloc             uint64
	NumGC                 uint32
}

// Usage returns resource usage since the monitor was created
func (rm *ResourceMonitor) Usage() *ResourceUsage {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	usage := &ResourceUsage{}

	if cpuTime, err := rm.process.Times(); err == nil {
		if elapsed := time.Since(rm.startTime).Seconds(); elapsed > 0 {
			usage.CPUPercent = ((cpuTime.Total() - rm.startCPUTime) / elapsed) * 100
		}
	}

	if memInfo, err := rm.process.MemoryInfo(); err == nil {
		usage.MemoryRSS = memInfo.RSS
		usage.MemoryVMS = memInfo.VMS
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		usage.SystemMemoryPercent = vmStat.UsedPercent
		usage.SystemMemoryAvailable = vmStat.Available
	}

	usage.GoroutineCount = runtime.NumGoroutine()
	usage.ThreadCount, _ = rm.process.NumThreads()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	usage.HeapAlloc = ms.HeapAlloc
	usage.NumGC = ms.NumGC

	return usage
}

// Fields returns the usage as log fields.
func (u *ResourceUsage) Fields() []zap.Field {
	return []zap.Field{
		zap.Float64("cpu_percent", u.CPUPercent),
		zap.Uint64("rss", u.MemoryRSS),
		zap.Uint64("vms", u.MemoryVMS),
		zap.Float64("system_memory_percent", u.SystemMemoryPercent),
		zap.Uint64("system_memory_available", u.SystemMemoryAvailable),
		zap.Int("goroutines", u.GoroutineCount),
		zap.Int32("threads", u.ThreadCount),
		zap.Uint64("heap_alloc", u.HeapAlloc),
		zap.Uint32("num_gc", u.NumGC),
	}
}

// CPUProfile is a running CPU profile written to a file.
type CPUProfile struct {
	file *os.File
}

// StartCPUProfile starts profiling the whole process into path. Only one CPU
// profile can run at a time.
func StartCPUProfile(path string) (*CPUProfile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create cpu profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to start cpu profile: %w", err)
	}
	return &CPUProfile{file: f}, nil
}

// Stop ends the profile and closes its file. Safe on a nil profile.
func (p *CPUProfile) Stop() error {
	if p == nil || p.file == nil {
		return nil
	}
	pprof.StopCPUProfile()
	err := p.file.Close()
	p.file = nil
	return err
}
