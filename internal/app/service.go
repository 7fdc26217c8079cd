package app

import (
	"depbundle/internal/adapters"
	"depbundle/internal/ecosystems"
	"depbundle/internal/ports"
)

type Service struct {
	Runner      ports.ToolRunnerPort
	Store       ports.PackageStorePort
	Descriptors ports.DescriptorPort
	Locator     ports.LockLocatorPort
	Output      ports.OutputPort
}

func NewService() Service {
	return Service{
		Runner:      adapters.NewExecToolRunner(),
		Store:       adapters.NewFilesystemStore(),
		Descriptors: adapters.NewDescriptorFileAdapter(),
		Locator:     adapters.NewLockLocatorAdapter(),
	}
}

func (s Service) ecosystems() []ecosystems.Ecosystem {
	return ecosystems.All(ecosystems.Deps{
		Runner:      s.Runner,
		Store:       s.Store,
		Descriptors: s.Descriptors,
		Locator:     s.Locator,
	})
}
