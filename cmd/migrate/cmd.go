package migrate

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mitchellh/cli"
	"github.com/yusufsyaifudin/versi/assets/migrations/apprepo"
	"github.com/yusufsyaifudin/versi/config"
	"github.com/yusufsyaifudin/versi/pkg/migration"
	"github.com/yusufsyaifudin/versi/pkg/multidb"
	"github.com/yusufsyaifudin/ylog"
)

const (
	ExitSuccess = 0
	ExitErr     = -1
)

// Action is the operation a Cmd performs against the configured database.
type Action string

const (
	ActionBootstrap Action = "bootstrap"
	ActionUp        Action = "up"
	ActionCurrent   Action = "current"
	ActionStatus    Action = "status"
	ActionVerify    Action = "verify"
)

var synopsis = map[Action]string{
	ActionBootstrap: "Create the history table and record the baseline version",
	ActionUp:        "Apply every pending migration in version order",
	ActionCurrent:   "Print the current schema version",
	ActionStatus:    "List applied and pending migrations",
	ActionVerify:    "Check applied migrations against their declarations",
}

type Cmd struct {
	flags      *flag.FlagSet
	action     Action
	configFile string
	baseline   int
	out        io.Writer
}

func NewCmd(action Action) cli.CommandFactory {
	return func() (cli.Command, error) {
		if _, ok := synopsis[action]; !ok {
			return nil, fmt.Errorf("unknown migrate action '%s'", action)
		}

		cmd := &Cmd{
			action: action,
			out:    os.Stdout,
		}
		err := cmd.init()
		return cmd, err
	}
}

var _ cli.Command = (*Cmd)(nil)
var _ cli.CommandFactory = NewCmd(ActionUp)

func (c *Cmd) init() error {
	c.flags = flag.NewFlagSet(string(c.action), flag.ContinueOnError)
	c.flags.SetOutput(io.Discard)
	c.flags.StringVar(&c.configFile, "config", "config.yml",
		"Config file to load")
	c.flags.StringVar(&c.configFile, "c", "config.yml",
		"Alias for config file to load")

	if c.action == ActionBootstrap {
		c.flags.IntVar(&c.baseline, "baseline", -1,
			"Baseline version, overrides migration.baseline of the config file")
	}

	return nil
}

func (c *Cmd) Help() string {
	help := fmt.Sprintf(`Usage: versi %s [-config=config.yml]

  %s.`, c.action, synopsis[c.action])

	if c.action == ActionBootstrap {
		help += `

  -baseline=N  record N instead of migration.baseline as the first version`
	}

	return strings.TrimSpace(help)
}

func (c *Cmd) Synopsis() string {
	return synopsis[c.action]
}

func (c *Cmd) Run(args []string) int {
	err := c.flags.Parse(args)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error parsing argument: %s\n", err)
		return ExitErr
	}

	ctx := setupLog(context.Background())

	// ** load config file
	cfg, err := config.Load(c.configFile)
	if err != nil {
		ylog.Error(ctx, "config: failed", ylog.KV("error", err))
		return ExitErr
	}

	// ** setup database
	ylog.Info(ctx, "database preparation: starting")
	dbConn, err := multidb.NewSqlDbConnMaker(multidb.SqlDbConnMakerConfig{
		Config: cfg.DatabaseResources,
	})
	if err != nil {
		ylog.Error(ctx, "database preparation: failed", ylog.KV("error", err))
		return ExitErr
	}

	defer func() {
		if _err := dbConn.Close(); _err != nil {
			ylog.Error(ctx, "closing database: failed", ylog.KV("error", _err))
		}
	}()

	engine, err := c.prepareEngine(ctx, cfg, dbConn)
	if err != nil {
		ylog.Error(ctx, "migration preparation: failed", ylog.KV("error", err))
		return ExitErr
	}

	ylog.Info(ctx, "migration preparation: done", ylog.KV("action", c.action))

	err = c.run(ctx, cfg, engine)
	if err != nil {
		ylog.Error(ctx, fmt.Sprintf("migration %s: failed", c.action), ylog.KV("error", err))
		return ExitErr
	}

	ylog.Info(ctx, fmt.Sprintf("migration %s: done", c.action))
	return ExitSuccess
}

func (c *Cmd) prepareEngine(ctx context.Context, cfg config.Config, dbConn multidb.MultiDB) (*migration.Engine, error) {
	resource := cfg.DatabaseResources[cfg.Migration.DBLabel]

	var dialect migration.Dialect
	switch resource.Driver {
	case multidb.Postgres:
		dialect = migration.Postgres
	case multidb.Sqlite:
		dialect = migration.Sqlite
	default:
		return nil, fmt.Errorf("no migration dialect for driver %s", resource.Driver)
	}

	db, err := dbConn.GetSqlx(resource.Driver, cfg.Migration.DBLabel)
	if err != nil {
		return nil, err
	}

	err = db.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("ping db error: %w", err)
	}

	registry := migration.NewRegistry()
	err = apprepo.Register(registry, dialect)
	if err != nil {
		return nil, err
	}

	store, err := migration.NewSQLStore(migration.SQLStoreConfig{
		Dialect: dialect,
		Table:   cfg.Migration.Table,
	})
	if err != nil {
		return nil, err
	}

	return migration.New(migration.EngineConfig{
		DB:       db,
		Registry: registry,
		Store:    store,
		Verbose:  cfg.Migration.Verbose,
	})
}

func (c *Cmd) run(ctx context.Context, cfg config.Config, engine migration.Runner) error {
	switch c.action {
	case ActionBootstrap:
		baseline := cfg.Migration.Baseline
		if c.baseline >= 0 {
			baseline = c.baseline
		}

		return engine.Bootstrap(ctx, baseline)

	case ActionUp:
		applied, err := engine.ApplyAll(ctx)
		for _, v := range applied {
			_, _ = fmt.Fprintf(c.out, "applied %d\n", v)
		}

		return err

	case ActionCurrent:
		current, err := engine.CurrentVersion(ctx)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintln(c.out, current)
		return nil

	case ActionStatus:
		status, err := engine.Status(ctx)
		if err != nil {
			return err
		}

		return printStatus(c.out, status)

	case ActionVerify:
		mismatches, err := engine.Verify(ctx)
		if err != nil {
			return err
		}

		for _, m := range mismatches {
			_, _ = fmt.Fprintf(c.out, "version %d: stored %s, declared %s\n", m.Version, m.Stored, m.Declared)
		}

		if len(mismatches) > 0 {
			return fmt.Errorf("%d applied migrations differ from their declaration", len(mismatches))
		}

		return nil

	default:
		return fmt.Errorf("unknown migrate action '%s'", c.action)
	}
}

func printStatus(out io.Writer, status migration.Status) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "current version: %d\n\n", status.Current)
	_, _ = fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT\tCOMMENT")

	for _, rec := range status.Applied {
		_, _ = fmt.Fprintf(w, "%d\tapplied\t%s\t%s\n", rec.Version, rec.AppliedAt.UTC().Format("2006-01-02 15:04:05"), rec.Comment.String)
	}

	for _, m := range status.Pending {
		_, _ = fmt.Fprintf(w, "%d\tpending\t-\t%s\n", m.Version, m.Comment)
	}

	return w.Flush()
}
