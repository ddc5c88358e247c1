// Package modules bundles the built-in scan modules and registers them
// in their default execution order: discovery seeds endpoints, the
// downstream modules consume them.
package modules

import (
	"github.com/scanforge/scanforge/pkg/module"
	"github.com/scanforge/scanforge/pkg/modules/cvecorr"
	"github.com/scanforge/scanforge/pkg/modules/discovery"
	"github.com/scanforge/scanforge/pkg/modules/fingerprint"
	"github.com/scanforge/scanforge/pkg/modules/passive"
	"github.com/scanforge/scanforge/pkg/modules/recorder"
)

// Register adds every built-in module to reg in default order.
func Register(reg *module.Registry) error {
	builtins := []module.Module{
		discovery.New(),
		passive.New(),
		fingerprint.New(),
		cvecorr.New(),
		recorder.New(),
	}
	for _, m := range builtins {
		if err := reg.Register(m); err != nil {
			return err
		}
	}
	return nil
}
