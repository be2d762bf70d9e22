package driven

// ConfigStore is the configuration a run reads. Keys use dot notation for
// nested tables ("globus.client_id"). Missing keys and values of the wrong
// type read as the zero value.
//
// The store is read-only for the duration of a run; Override injects values
// that were not in the file, such as a secret typed at a prompt, and is
// never persisted.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Override sets key for this process only.
	Override(key string, value any)

	// Keys lists every key that has a value, sorted.
	Keys() []string

	// Path names where the configuration came from.
	Path() string
}
