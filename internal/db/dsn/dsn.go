// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"strings"

	"github.com/legaldesk/legaldesk/internal/config"
)

// Create builds the Data Source Name for the configured gorm engine.
func Create(dbCfg *config.Config) string {
	db := dbCfg.DB

	switch strings.ToLower(db.GormEngine) {
	case config.EnginePostgres:
		out := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
			db.Host,
			db.Port,
			db.User,
			db.Password,
			db.Name,
		)
		if db.Extras != "" {
			out += " " + db.Extras
		}

		return out
	case config.EngineMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			db.User,
			db.Password,
			db.Host,
			db.Port,
			db.Name,
			db.Extras,
		)
	default:
		if db.Extras == "" {
			return db.Name
		}

		sep := "?"
		if strings.Contains(db.Name, "?") {
			sep = "&"
		}

		return db.Name + sep + db.Extras
	}
}
