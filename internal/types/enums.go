package types

// EcosystemName identifies one supported dependency-management tool family.
type EcosystemName string

const (
	EcosystemNPM  EcosystemName = "npm"
	EcosystemYarn EcosystemName = "yarn"
	EcosystemDeno EcosystemName = "deno"
)

// RegistryID identifies one package registry section inside a lock document.
type RegistryID string

const (
	RegistryNPM RegistryID = "npm"
	RegistryJSR RegistryID = "jsr"
)

// OutputFormat selects how a computed selection is rendered.
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)
