package config

// Convert defaults.
const (
	DefaultInclude     = "**/*.{js,jsx}"
	DefaultIgnore      = "**/node_modules/**"
	DefaultHeuristic   = "type-name"
	DefaultWorkers     = 0 // 0 means GOMAXPROCS.
	DefaultMaxFileSize = "1MB"
	DefaultCacheSize   = 512
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// DefaultDeprecatedAttribute is the property stripped from every file.
const DefaultDeprecatedAttribute = "__experimental_actions"
