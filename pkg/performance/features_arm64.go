//go:build arm64

package performance

import "golang.org/x/sys/cpu"

func cpuFeatures() []string {
	var features []string
	if cpu.ARM64.HasASIMD {
		features = append(features, "asimd")
	}
	if cpu.ARM64.HasSVE {
		features = append(features, "sve")
	}
	if cpu.ARM64.HasSVE2 {
		features = append(features, "sve2")
	}
	return features
}
