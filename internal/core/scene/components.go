package scene

import "github.com/zeusync/miau/internal/core/schema/registry"

// TransformName is the persisted name of Transform; its TypeID derives from it.
const TransformName = "miau.Transform"

// Components is the registry manifest of this package.
func Components() []registry.Registration {
	return []registry.Registration{
		registry.Component[Transform](TransformName),
	}
}
