package directory

// MemorySource provides authorization data from in-memory tables
type MemorySource struct {
	users    map[string][]string
	printers []string
}

// NewMemorySource creates a MemorySource. A nil printers list makes the
// registry the union of the printers named in users.
func NewMemorySource(users map[string][]string, printers []string) *MemorySource {
	return &MemorySource{users: users, printers: printers}
}

// DemoSource returns the built-in demonstration tables
func DemoSource() *MemorySource {
	return NewMemorySource(map[string][]string{
		"john.doe@dod.mil":          {"Printer-7", "Printer-9"},
		"jane.smith@lockheed.com":   {"Printer-7"},
		"mike.johnson@raytheon.com": {"Printer-9"},
	}, []string{"Printer-7", "Printer-9"})
}

// Load implements Source
func (s *MemorySource) Load() (*Directory, *Registry, error) {
	return build(document{Users: s.users, Printers: s.printers})
}
