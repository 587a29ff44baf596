package gemini

// Cache stores raw model responses keyed by model and prompt.
// *httpcache.Cache satisfies it.
type Cache interface {
	Get(key string) (data []byte, etag string, found bool)
	Set(key string, data []byte, etag string)
}

// Logger defines the logging interface needed by the Gemini client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
