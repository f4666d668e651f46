package app

import (
	"github.com/vk/forgeci/internal/registry"
	"github.com/vk/forgeci/modules/checkout"
	"github.com/vk/forgeci/modules/envprobe"
	"github.com/vk/forgeci/modules/shell"
	"github.com/vk/forgeci/modules/toolchain"
)

// coreModules is the definitive list of all runner modules that are compiled
// into the forgeci binary.
var coreModules = []registry.Module{
	&shell.Module{},
	&checkout.Module{},
	&toolchain.Module{},
	&envprobe.Module{},
}
