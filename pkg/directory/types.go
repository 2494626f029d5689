package directory

// Source represents a source of authorization data
type Source interface {
	// Load builds the authorization directory and the printer registry
	Load() (*Directory, *Registry, error)
}

// document is the on-disk shape of a directory file
type document struct {
	Printers []string            `yaml:"printers" toml:"printers"`
	Users    map[string][]string `yaml:"users" toml:"users"`
}
