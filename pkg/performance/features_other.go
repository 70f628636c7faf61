//go:build !amd64 && !arm64

package performance

func cpuFeatures() []string {
	return nil
}
