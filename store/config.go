package store

// Config holds configuration for the Store.
type Config struct {
	// TableName is the folder table, keyed on "id".
	// Default: "espalier_folders"
	TableName string

	// OwnerIndex is the global secondary index keyed on "owner". It must
	// project all attributes so that owner queries return whole records.
	// Default: "owner-index"
	OwnerIndex string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TableName:  "espalier_folders",
		OwnerIndex: "owner-index",
	}
}

// validate ensures config values are usable.
func (c *Config) validate() {
	if c.TableName == "" {
		c.TableName = "espalier_folders"
	}
	if c.OwnerIndex == "" {
		c.OwnerIndex = "owner-index"
	}
}
