package migrate

import (
	"context"
	"log"

	"github.com/satori/uuid"
	"github.com/yusufsyaifudin/versi/config"
	"github.com/yusufsyaifudin/ylog"
)

type logData struct {
	RemoteAddr string `json:"remote_addr,omitempty"`
	TraceID    string `json:"trace_id,omitempty"`
}

// setupLog sets the global logger and returns a context carrying the trace id of this run.
func setupLog(ctx context.Context) context.Context {
	// ** set global logger
	ylog.SetGlobalLogger(ylog.NewZap(config.NewLogger()))

	propagateData := logData{
		RemoteAddr: "system",
		TraceID:    uuid.NewV4().String(),
	}

	traceLog, err := ylog.NewTracer(propagateData, ylog.WithTag("tracer"))
	if err != nil {
		log.Printf("error prepare tracer system data: %s", err)
		return ctx
	}

	// inject context
	return ylog.Inject(ctx, traceLog)
}
