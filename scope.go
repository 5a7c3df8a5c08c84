package errz

// Scope is a factory bound to a configuration overlay merged once at
// creation time, rather than read from the global version-keyed cache on
// every call (§4.7 "createScope"). It is useful for a request-scoped or
// tenant-scoped override that should never leak into the global config.
type Scope struct {
	derived *derivedConfig
}

// CreateScope merges overlay onto the current global configuration and
// freezes the result into a Scope. Later global Configure calls do not
// affect an already-created Scope.
func CreateScope(overlay Config) *Scope {
	base := GetConfig()
	merged := mergeConfig(base, overlay)
	return &Scope{derived: deriveConfig(merged)}
}

// CreateError builds a Record using this scope's frozen configuration
// instead of the global one, following the same ten-step algorithm as the
// package-level CreateError (factory.go).
func (s *Scope) CreateError(typ, message string, opts ...ErrorOption) *Record {
	return createErrorWith(s.derived, typ, message, opts...)
}

// Wrap attaches cause to a new Record built from this scope's configuration.
func (s *Scope) Wrap(cause error, typ, message string, opts ...ErrorOption) *Record {
	return wrapWith(s.derived, cause, typ, message, opts...)
}
