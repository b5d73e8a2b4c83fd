package config

// Supported gorm engines.
const (
	EngineSQLite   = "sqlite"
	EngineMySQL    = "mysql"
	EnginePostgres = "postgres"
)

// DB holds the database configuration settings.
// For sqlite, Name is the database file (":memory:" for a throwaway database).
type DB struct {
	Extras     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string `validate:"required"`
	GormEngine string `validate:"oneof=sqlite mysql postgres"`
}
