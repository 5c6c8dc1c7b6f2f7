package common

// Global non-constant variables go here.

// AppName - Application name.
const AppName = "netcrawl"

// AppVersion - Application version.
const AppVersion = "0.1.0"

// AppAuthor - Application author.
const AppAuthor = "HON95"

// PrometheusNamespace - Prometheus metrics namespace.
const PrometheusNamespace = "netcrawl"

// GlobalConfig - Global singleton, defaults until LoadConfig is called.
var GlobalConfig = DefaultConfig()

// GlobalCredentials - List of loaded credentials, identified by some ID.
var GlobalCredentials map[string]Credential
