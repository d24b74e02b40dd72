package tagconfig

import (
	"os"
	"strings"
	"sync"
)

// SystemPropertiesStoreName names the store created by
// CreateSystemPropertiesStore.
const SystemPropertiesStoreName = "system-properties"

// EnvironmentStoreName names the store created by CreateEnvironmentStore.
const EnvironmentStoreName = "environment"

var systemProperties = struct {
	mu     sync.RWMutex
	values map[string]string
}{values: map[string]string{}}

// SetSystemProperty stores a process-wide property. Stores created afterwards
// with CreateSystemPropertiesStore see the value; existing sessions do not.
func SetSystemProperty(key, value string) {
	systemProperties.mu.Lock()
	defer systemProperties.mu.Unlock()
	systemProperties.values[key] = value
}

// ClearSystemProperty removes a process-wide property.
func ClearSystemProperty(key string) {
	systemProperties.mu.Lock()
	defer systemProperties.mu.Unlock()
	delete(systemProperties.values, key)
}

// SystemProperties returns a copy of the process-wide properties.
func SystemProperties() map[string]string {
	systemProperties.mu.RLock()
	defer systemProperties.mu.RUnlock()
	out := make(map[string]string, len(systemProperties.values))
	for key, value := range systemProperties.values {
		out[key] = value
	}
	return out
}

// SystemPropertiesSource snapshots the process-wide properties when loaded.
func SystemPropertiesSource() Source {
	return SourceFunc{
		Label: SystemPropertiesStoreName,
		Load: func() ([]Entry, error) {
			return MapSource(SystemPropertiesStoreName, SystemProperties()).Entries()
		},
	}
}

// EnvironmentSource snapshots environment variables whose name starts with
// prefix. The prefix is stripped from keys; an empty prefix keeps every
// variable.
func EnvironmentSource(prefix string) Source {
	return SourceFunc{
		Label: EnvironmentStoreName,
		Load: func() ([]Entry, error) {
			values := map[string]string{}
			for _, pair := range os.Environ() {
				name, value, ok := strings.Cut(pair, "=")
				if !ok || !strings.HasPrefix(name, prefix) {
					continue
				}
				key := strings.TrimPrefix(name, prefix)
				if key == "" {
					continue
				}
				values[key] = value
			}
			return MapSource(EnvironmentStoreName, values).Entries()
		},
	}
}
