package components

// Components is the [components] table of the config file. Features missing
// from it are enabled.
type Components map[string]bool

func (c Components) IsEnabled(name string) bool {
	if e, ok := c[name]; ok {
		return e
	}
	return true
}
