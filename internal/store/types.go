package store

// DbType identifies a storage backend
type DbType string

const (
	DbTypeMemory   DbType = "memory"
	DbTypePostgres DbType = "postgres"
	DbTypeSQLite   DbType = "sqlite"
)

// String returns the string form of the type
func (t DbType) String() string {
	return string(t)
}

// IsValid reports whether the type names a supported backend
func (t DbType) IsValid() bool {
	switch t {
	case DbTypeMemory, DbTypePostgres, DbTypeSQLite:
		return true
	default:
		return false
	}
}

// DbProviderConfig is the JSON configuration handed to the provider factory.
// ExtraDetails carries backend specific settings such as "conn_str" or "path".
type DbProviderConfig struct {
	DbType       DbType                 `json:"db_type"`
	ExtraDetails map[string]interface{} `json:"extra_details"`
}

func (c DbProviderConfig) stringDetail(key string) (string, bool) {
	v, ok := c.ExtraDetails[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
