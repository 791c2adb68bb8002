package cfg

type Loader interface {
	Load() (*Config, error)
}

// Watcher is implemented by loaders that can report configuration reloads.
type Watcher interface {
	RegisterConfigChangeCallback(callback func(*Config))
}

// Default loader for binaries: the viper loader reading cfg/yaml/mode.yaml.
func NewDefaultLoader(configDir string) (Loader, error) {
	return NewViperLoader(WithConfigDir(configDir))
}
