package app

import "depbundle/internal/types"

type DetectRequest struct {
	ProjectRoot string
}

type DetectResult struct {
	Ecosystem types.EcosystemName
}

type DependenciesRequest struct {
	ProjectRoot string
	Ecosystem   string
	Only        []string
}

type DependenciesResult struct {
	Ecosystem   types.EcosystemName
	Directories []string
}

type CommandRequest struct {
	ProjectRoot string
	Ecosystem   string
	Task        string
}

type CommandResult struct {
	Ecosystem types.EcosystemName
	Argv      []string
}
