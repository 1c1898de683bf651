package multidb

import (
	"context"

	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/yusufsyaifudin/ylog"
)

// QueryLogger forwards every query of a debug-enabled database to the context logger.
type QueryLogger struct{}

var _ sqldblogger.Logger = (*QueryLogger)(nil)

func (q *QueryLogger) Log(ctx context.Context, level sqldblogger.Level, msg string, data map[string]interface{}) {
	if level == sqldblogger.LevelError {
		ylog.Error(ctx, "sql: "+msg, ylog.KV("sql", data))
		return
	}

	ylog.Debug(ctx, "sql: "+msg, ylog.KV("level", level.String()), ylog.KV("sql", data))
}
