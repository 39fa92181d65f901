package types

// Declaration is the static description of one hierarchy, as written in a
// hierarchy file or built in code.
type Declaration struct {
	// Root names the root type; it must appear in Types.
	Root string `koanf:"root" yaml:"root"`

	// Table is the physical table shared by every variant.
	Table string `koanf:"table" yaml:"table"`

	// Discriminator names the tag column. Empty disables projection and
	// discrimination.
	Discriminator string `koanf:"discriminator" yaml:"discriminator,omitempty"`

	// PrimaryKey defaults to DefaultPrimaryKey.
	PrimaryKey string `koanf:"primary_key" yaml:"primary_key,omitempty"`

	// Timestamps enables bookkeeping columns; nil means enabled.
	Timestamps *bool `koanf:"timestamps" yaml:"timestamps,omitempty"`

	// TimestampColumns overrides DefaultTimestampColumns.
	TimestampColumns []string `koanf:"timestamp_columns" yaml:"timestamp_columns,omitempty"`

	// Dates lists extra date columns that are always persisted.
	Dates []string `koanf:"dates" yaml:"dates,omitempty"`

	// Strict rejects unknown attributes on write.
	Strict bool `koanf:"strict" yaml:"strict,omitempty"`

	Types []TypeDeclaration `koanf:"types" yaml:"types"`
}

// TypeDeclaration describes one type of the hierarchy.
type TypeDeclaration struct {
	Name string `koanf:"name" yaml:"name"`

	// Tag overrides NormalizeTag(Name).
	Tag string `koanf:"tag" yaml:"tag,omitempty"`

	// Extends names the parent type. A type listed in another type's
	// Children extends it implicitly.
	Extends string `koanf:"extends" yaml:"extends,omitempty"`

	// Columns lists the columns introduced by this type.
	Columns []string `koanf:"columns" yaml:"columns,omitempty"`

	// Children lists the declared subtypes in order.
	Children []string `koanf:"children" yaml:"children,omitempty"`

	// Strict overrides the root strict flag below this type.
	Strict *bool `koanf:"strict" yaml:"strict,omitempty"`
}

// TimestampsEnabled reports whether bookkeeping columns are persisted.
func (d Declaration) TimestampsEnabled() bool {
	return d.Timestamps == nil || *d.Timestamps
}

// RootConfig derives the root configuration, applying defaults.
func (d Declaration) RootConfig() RootConfig {
	cfg := RootConfig{
		DiscriminatorColumn: d.Discriminator,
		PrimaryKey:          d.PrimaryKey,
		DateColumns:         cloneStrings(d.Dates),
		Strict:              d.Strict,
	}
	if cfg.PrimaryKey == "" {
		cfg.PrimaryKey = DefaultPrimaryKey
	}
	if d.TimestampsEnabled() {
		if len(d.TimestampColumns) > 0 {
			cfg.TimestampColumns = cloneStrings(d.TimestampColumns)
		} else {
			cfg.TimestampColumns = cloneStrings(DefaultTimestampColumns)
		}
	}
	return cfg
}
