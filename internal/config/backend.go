package config

// ConfigBackend is where `emotrack config set` persists values: UserDefaults
// on macOS, a JSON file elsewhere. Lookups report ok=false for unset keys.
type ConfigBackend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	Delete(key string) error
}
