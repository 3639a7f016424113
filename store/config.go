package store

import "fmt"

// Config declares the single-table layout for one logical entity.
type Config struct {
	// TenantID namespaces every derived key value.
	TenantID string

	// Entity is the logical entity name, the second element of every
	// derived key value.
	Entity string

	// Primary is the table's primary index.
	Primary Index

	// Secondary lists the global secondary indexes the entity projects
	// into. TableName may be left empty and defaults to the primary's.
	Secondary []Index

	// Fields maps every key attribute of every declared index to the
	// template its value is derived from.
	Fields IndexFields
}

// validate checks the declaration invariants and fills defaults.
func (c *Config) validate() error {
	if c.TenantID == "" {
		return fmt.Errorf("dynamodeve: config: TenantID is required")
	}
	if c.Entity == "" {
		return fmt.Errorf("dynamodeve: config: Entity is required")
	}
	if c.Primary.TableName == "" {
		return fmt.Errorf("dynamodeve: config: Primary.TableName is required")
	}
	if !c.Primary.Primary() {
		return fmt.Errorf("dynamodeve: config: Primary must not name a GSI")
	}

	for i := range c.Secondary {
		if c.Secondary[i].TableName == "" {
			c.Secondary[i].TableName = c.Primary.TableName
		}
		if c.Secondary[i].IndexName == "" {
			return fmt.Errorf("dynamodeve: config: Secondary[%d] is missing IndexName", i)
		}
	}

	indexes := append([]Index{c.Primary}, c.Secondary...)
	for _, idx := range indexes {
		for _, attr := range []string{idx.PartitionKey, idx.SortKey} {
			if attr == "" {
				return fmt.Errorf("dynamodeve: config: index %q is missing a key attribute name", idx.IndexName)
			}
			if _, ok := c.Fields[attr]; !ok {
				return fmt.Errorf("dynamodeve: config: no template declared for key attribute %q", attr)
			}
		}
	}

	return nil
}
