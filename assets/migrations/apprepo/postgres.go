package apprepo

import (
	"github.com/yusufsyaifudin/versi/pkg/migration"
)

func postgres() []migration.Declaration {
	return []migration.Declaration{
		{
			Version: 1,
			Comment: "create uuid extensions",
			Statements: []migration.Statement{
				migration.SQL(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`),
			},
		},
		{
			Version: 2,
			Comment: "create apps table",
			Statements: []migration.Statement{
				migration.SQL(`
CREATE TABLE IF NOT EXISTS apps (
	client_id VARCHAR NOT NULL PRIMARY KEY,
	name VARCHAR NOT NULL DEFAULT '',
	enabled BOOL NOT NULL DEFAULT true,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);`),
				migration.SQL(`CREATE UNIQUE INDEX unique_idx_apps_client_id ON apps (LOWER(client_id));`),
			},
		},
		{
			Version: 3,
			Comment: "create fcm service account keys table",
			Statements: []migration.Statement{
				migration.SQL(`
CREATE TABLE IF NOT EXISTS fcm_service_account_keys (
	id UUID NOT NULL DEFAULT uuid_generate_v4() PRIMARY KEY,
	app_id UUID NOT NULL,
	service_account_key JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);`),
				// for faster query WHERE app_id = ? ORDER BY created_at DESC
				migration.SQL(`CREATE INDEX idx_fcm_service_account_keys_app_id_created_at ON fcm_service_account_keys (app_id, created_at DESC);`),
			},
		},
		{
			Version: 4,
			Comment: "create fcm server keys table",
			Statements: []migration.Statement{
				migration.SQL(`
CREATE TABLE IF NOT EXISTS fcm_server_keys (
	id UUID NOT NULL DEFAULT uuid_generate_v4() PRIMARY KEY,
	app_client_id VARCHAR NOT NULL,
	server_key VARCHAR NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),

	-- data integrity
	CONSTRAINT fk_fcm_server_keys_app_client_id FOREIGN KEY(app_client_id) REFERENCES apps(client_id) ON DELETE CASCADE
);`),
				migration.SQL(`CREATE INDEX idx_fcm_server_keys_app_id_created_at ON fcm_server_keys (app_client_id, created_at DESC);`),
			},
		},
		{
			Version:    5,
			Comment:    "seed default app",
			Statements: []migration.Statement{seedDefaultApp()},
		},
	}
}
