package app

import (
	"github.com/vk/labrig/internal/registry"
	"github.com/vk/labrig/modules/env"
	"github.com/vk/labrig/modules/sysinfo"
)

// coreModules is the definitive list of calculator modules compiled into the
// labrig binary by default.
var coreModules = []registry.Module{
	&env.Module{},
	&sysinfo.Module{},
}
