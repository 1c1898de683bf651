package multidb

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/yusufsyaifudin/versi/pkg/validator"
	"go.uber.org/multierr"
	_ "modernc.org/sqlite"
)

type SqlDbConnMakerConfig struct {
	Config DatabaseResources `validate:"required"`
}

type SqlDbConnMaker struct {
	conf     DatabaseResources
	disabled map[string]struct{} // list of disabled databases, using struct for minimal memory footprint
	dbSQL    map[string]*sqlx.DB // db key name => real connection
	dbDriver map[string]Driver   // db key name => driver name
	closer   []Closer
}

var _ MultiDB = (*SqlDbConnMaker)(nil)

func NewSqlDbConnMaker(conf SqlDbConnMakerConfig) (*SqlDbConnMaker, error) {
	err := validator.Validate(conf)
	if err != nil {
		err = fmt.Errorf("sql db connection maker failed: %w", err)
		return nil, err
	}

	instance := &SqlDbConnMaker{
		conf:     conf.Config,
		disabled: make(map[string]struct{}),
		dbSQL:    make(map[string]*sqlx.DB),
		dbDriver: make(map[string]Driver),
		closer:   make([]Closer, 0),
	}

	err = instance.connect()
	if err != nil {
		// close previous opened connection if error happen
		if _err := instance.Close(); _err != nil {
			err = fmt.Errorf("close db sql error: %w: %s", err, _err)
		}

		return nil, err
	}

	return instance, nil
}

func (i *SqlDbConnMaker) GetSqlx(driver Driver, key string) (*sqlx.DB, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	_, exists := i.disabled[key]
	if exists {
		return nil, fmt.Errorf("db with key '%s' is disabled", key)
	}

	dbConnection, ok := i.dbSQL[key]
	if !ok {
		return nil, fmt.Errorf("key '%s' is not exist on db list", key)
	}

	registeredDriver, ok := i.dbDriver[key]
	if ok && driver == registeredDriver {
		return dbConnection, nil
	}

	return nil, fmt.Errorf("db key '%s' not using driver %s", key, driver)
}

// Close closes every opened connection and reports all failures together.
func (i *SqlDbConnMaker) Close() error {
	var err error
	for _, c := range i.closer {
		if c == nil {
			continue
		}

		err = multierr.Append(err, c.Close())
	}

	return err
}

func (i *SqlDbConnMaker) connect() error {
	// Preparing database connection SQL
	for dbLabel, dbConfig := range i.conf {
		dbLabel = strings.TrimSpace(strings.ToLower(dbLabel))
		if err := validator.Var(dbLabel, "required,alphanum"); err != nil {
			err = fmt.Errorf("error connecting to database dbLabel '%s': %w", dbLabel, err)
			return err
		}

		if dbConfig.Disable {
			i.disabled[dbLabel] = struct{}{}
			continue
		}

		var goSqlDb GoSqlDb
		switch dbConfig.Driver {
		case Postgres:
			goSqlDb = dbConfig.Postgres
		case Sqlite:
			goSqlDb = dbConfig.Sqlite
		default:
			return fmt.Errorf("not supported driver '%s' on db '%s'", dbConfig.Driver, dbLabel)
		}

		db, err := open(dbLabel, dbConfig.Driver, goSqlDb)
		if err != nil {
			return err
		}

		// sqlite allows a single writer, and a memory database lives only as long as its connection
		if dbConfig.Driver == Sqlite {
			db.SetMaxOpenConns(1)
		}

		// don't forget to register in closer, using unique name to track in the Log
		i.dbSQL[dbLabel] = db
		i.dbDriver[dbLabel] = dbConfig.Driver
		i.closer = append(i.closer, newNamedCloser(dbLabel, db))
	}

	return nil
}

func open(dbLabel string, driver Driver, conf GoSqlDb) (*sqlx.DB, error) {
	if strings.TrimSpace(conf.DSN) == "" {
		return nil, fmt.Errorf("empty dsn for db '%s'", dbLabel)
	}

	db, err := sql.Open(driver.String(), conf.DSN)
	if err != nil {
		err = fmt.Errorf("cannot open db connection '%s': %w", dbLabel, err)
		return nil, err
	}

	if conf.Debug {
		loggedDB := sqldblogger.OpenDriver(conf.DSN, db.Driver(), &QueryLogger{},
			sqldblogger.WithConnectionIDFieldname(dbLabel),
		)

		// the plain pool never connected, only its driver is reused
		_ = db.Close()
		db = loggedDB
	}

	return sqlx.NewDb(db, driver.String()), nil
}
