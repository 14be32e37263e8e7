package driven

// ConfigStore provides flat, dot-keyed access to application configuration
// such as "import.institution_code" or "storage.driver".
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string value, or "" when missing or not a string.
	GetString(key string) string

	// GetInt retrieves an integer value, or 0 when missing or not an integer.
	GetInt(key string) int

	// GetBool retrieves a boolean value, or false when missing.
	GetBool(key string) bool

	// Set stores a value and persists immediately.
	Set(key string, value any) error

	// Delete removes a key and persists immediately.
	Delete(key string) error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
