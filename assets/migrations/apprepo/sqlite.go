package apprepo

import (
	"github.com/yusufsyaifudin/versi/pkg/migration"
)

// sqlite mirrors the postgres schema without extensions; ids are integers and json is stored as text.
func sqlite() []migration.Declaration {
	return []migration.Declaration{
		{
			Version: 1,
			Comment: "create apps table",
			Statements: []migration.Statement{
				migration.SQL(`
CREATE TABLE IF NOT EXISTS apps (
	client_id VARCHAR NOT NULL PRIMARY KEY,
	name VARCHAR NOT NULL DEFAULT '',
	enabled BOOL NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`),
				migration.SQL(`CREATE UNIQUE INDEX unique_idx_apps_client_id ON apps (LOWER(client_id));`),
			},
		},
		{
			Version: 2,
			Comment: "create fcm service account keys table",
			Statements: []migration.Statement{
				migration.SQL(`
CREATE TABLE IF NOT EXISTS fcm_service_account_keys (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	app_id VARCHAR NOT NULL,
	service_account_key TEXT NOT NULL DEFAULT '{}',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`),
				migration.SQL(`CREATE INDEX idx_fcm_service_account_keys_app_id_created_at ON fcm_service_account_keys (app_id, created_at DESC);`),
			},
		},
		{
			Version: 3,
			Comment: "create fcm server keys table",
			Statements: []migration.Statement{
				migration.SQL(`
CREATE TABLE IF NOT EXISTS fcm_server_keys (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	app_client_id VARCHAR NOT NULL,
	server_key VARCHAR NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,

	CONSTRAINT fk_fcm_server_keys_app_client_id FOREIGN KEY(app_client_id) REFERENCES apps(client_id) ON DELETE CASCADE
);`),
				migration.SQL(`CREATE INDEX idx_fcm_server_keys_app_id_created_at ON fcm_server_keys (app_client_id, created_at DESC);`),
			},
		},
		{
			Version:    4,
			Comment:    "seed default app",
			Statements: []migration.Statement{seedDefaultApp()},
		},
	}
}
