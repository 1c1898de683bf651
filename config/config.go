package config

import (
	"github.com/yusufsyaifudin/versi/pkg/multidb"
)

// Migration selects the database to migrate and how the history is kept.
type Migration struct {
	DBLabel  string `yaml:"dbLabel" validate:"required"`
	Table    string `yaml:"table"` // history table, schema_history when empty
	Baseline int    `yaml:"baseline" validate:"gte=0"`
	Verbose  bool   `yaml:"verbose"`
}

// Config contains application config
type Config struct {
	DatabaseResources multidb.DatabaseResources `yaml:"databaseResources" validate:"required,min=1"`
	Migration         Migration                 `yaml:"migration"`
}
