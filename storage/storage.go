package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
)

// Storage defines our API for this package
type Storage interface {
	// TXBegin starts a transaction; cache actions for its writes happen on TXEnd
	TXBegin(ctx context.Context) (TxInterface, error)

	Insert(ctx context.Context, obj interface{}) error
	Update(ctx context.Context, obj interface{}) error
	Delete(ctx context.Context, obj interface{}) error

	// Exec runs the table's named Statement with obj as its parameters & fills obj with the returned row
	Exec(ctx context.Context, obj interface{}, statementName string) error

	// Select fills out the obj for its response
	Select(ctx context.Context, obj interface{}, queryName string) error

	/*
		SelectAll fills out dest (a pointer to a slice of the table's struct) as the response.
		obj holds the values for the query's named parameters.
	*/
	SelectAll(ctx context.Context, obj interface{}, dest interface{}, queryName string, opts *SelectOptions) error

	// Scan runs an uncached filtered select on obj's table; obj is only used to find the table
	Scan(ctx context.Context, obj interface{}, dest interface{}, filter *Filter, opts *SelectOptions) error
}

// storage is the private implements the API
type storage struct {
	db          *db
	cache       *cache
	log         *logger
	serviceName string

	tables           []*Table
	structToTable    map[string]*Table
	queries          map[string]*Query
	queryToTable     map[string]*Table
	statements       map[string]*Statement
	statementToTable map[string]*Table
}

type Config struct {
	ReadOnlyDbConn  *sqlx.DB
	WriteOnlyDbConn *sqlx.DB
	Redis           *redis.Client
	Tables          []*Table
	ServiceName     string // used as the prefix of every cache key
	Debugger        bool   // debug logs through logrus
	DoNotUseCache   bool   // every read goes to the db

	// ValidateQueries runs EXPLAIN on every cached query at startup
	ValidateQueries bool
}

// New returns storage which implements the interface
func New(conf *Config) (Storage, error) {
	if conf.ReadOnlyDbConn == nil || conf.WriteOnlyDbConn == nil {
		return nil, errors.New("storage: read & write db connections are required")
	}
	if !conf.DoNotUseCache && conf.Redis == nil {
		return nil, errors.New("storage: redis is required unless DoNotUseCache is set")
	}

	// use the json tag instead of the DB tag
	conf.ReadOnlyDbConn.Mapper = reflectx.NewMapperFunc("json", strings.ToLower)
	conf.WriteOnlyDbConn.Mapper = reflectx.NewMapperFunc("json", strings.ToLower)

	s := &storage{
		db:               newDB(conf),
		log:              newLogger(conf.Debugger, conf.ServiceName),
		serviceName:      conf.ServiceName,
		tables:           conf.Tables,
		structToTable:    make(map[string]*Table),
		queries:          make(map[string]*Query),
		queryToTable:     make(map[string]*Table),
		statements:       make(map[string]*Statement),
		statementToTable: make(map[string]*Table),
	}
	if !conf.DoNotUseCache {
		s.cache = newCache(conf.Redis)
	}

	for _, t := range conf.Tables {
		err := t.validate()
		if err != nil {
			return nil, err
		}

		if _, ok := s.structToTable[t.structName]; ok {
			return nil, fmt.Errorf("storage: struct %s is used by more than one table", t.structName)
		}
		s.structToTable[t.structName] = t

		for _, q := range t.Queries {
			if _, ok := s.queries[q.Name]; ok {
				return nil, fmt.Errorf("storage: duplicate query name %s", q.Name)
			}
			q.parseTableName(t.TableName)
			q.parseFullCacheKey(s.serviceName, t.TableName)
			q.parseTTL(DefaultTTL)
			q.parseLimitOffsetQuery()
			err = q.validate(t)
			if err != nil {
				return nil, fmt.Errorf("storage: query %s: %w", q.Name, err)
			}

			s.queries[q.Name] = q
			s.queryToTable[q.Name] = t
		}

		for _, st := range t.Statements {
			if _, ok := s.statements[st.Name]; ok {
				return nil, fmt.Errorf("storage: duplicate statement name %s", st.Name)
			}
			s.statements[st.Name] = st
			s.statementToTable[st.Name] = t
		}
	}

	err := s.validate()
	if err != nil {
		return nil, err
	}

	if conf.ValidateQueries {
		err = s.validateQueries(context.Background())
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *storage) Insert(ctx context.Context, obj interface{}) error {
	t, err := s.insert(ctx, obj, s.db.writeConn())
	if err != nil {
		return err
	}
	s.afterWrite(ctx, t, obj, nil, actionInsert)
	return nil
}

func (s *storage) Update(ctx context.Context, obj interface{}) error {
	t, previous, err := s.update(ctx, obj, s.db.writeConn())
	if err != nil {
		return err
	}
	s.afterWrite(ctx, t, obj, previous, actionUpdate)
	return nil
}

func (s *storage) Delete(ctx context.Context, obj interface{}) error {
	t, err := s.delete(ctx, obj, s.db.writeConn())
	if err != nil {
		return err
	}
	s.afterWrite(ctx, t, obj, nil, actionDelete)
	return nil
}

func (s *storage) Exec(ctx context.Context, obj interface{}, statementName string) error {
	t, previous, err := s.exec(ctx, obj, statementName, s.db.writeConn())
	if err != nil {
		return err
	}
	s.afterWrite(ctx, t, obj, previous, actionUpdate)
	return nil
}

func (s *storage) Select(ctx context.Context, obj interface{}, queryName string) error {
	return s.selectOne(ctx, obj, queryName, s.db.readConn())
}

func (s *storage) SelectAll(ctx context.Context, obj interface{}, dest interface{}, queryName string, opts *SelectOptions) error {
	return s.selectAll(ctx, obj, dest, queryName, opts, s.db.readConn())
}

func (s *storage) Scan(ctx context.Context, obj interface{}, dest interface{}, filter *Filter, opts *SelectOptions) error {
	return s.scan(ctx, obj, dest, filter, opts, s.db.readConn())
}

func (s *storage) tableFor(obj interface{}) (*Table, error) {
	structName := getStructName(obj)
	if structName == "" {
		return nil, errors.New("storage: struct name cannot be blank")
	}

	t, ok := s.structToTable[structName]
	if !ok {
		return nil, errors.New("storage: no table configured for " + structName)
	}
	return t, nil
}
