// Package modules registers every built-in scoring module.
package modules

import (
	"github.com/ajitpratap0/modelperf/pkg/perftest"
	"github.com/ajitpratap0/modelperf/pkg/perftest/modules/binarized"
	"github.com/ajitpratap0/modelperf/pkg/perftest/modules/naive"
	"github.com/ajitpratap0/modelperf/pkg/perftest/modules/vectorized"
)

// RegisterAll adds every built-in module to r.
func RegisterAll(r *perftest.Registry) error {
	for _, register := range []func(*perftest.Registry) error{
		naive.Register,
		binarized.Register,
		vectorized.Register,
	} {
		if err := register(r); err != nil {
			return err
		}
	}
	return nil
}
