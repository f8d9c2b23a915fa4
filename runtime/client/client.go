// Package client is the public entry point of pulseorm. It ties the
// descriptor registry, a dialect and a *sql.DB together and exposes typed
// CRUD, query, bulk and joined-read operations on top of them.
package client

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver (cgo)
	_ "modernc.org/sqlite"             // SQLite driver (pure Go)

	"github.com/satishbabariya/pulseorm/internal/debug"
	"github.com/satishbabariya/pulseorm/query/builder"
	"github.com/satishbabariya/pulseorm/query/executor"
	"github.com/satishbabariya/pulseorm/query/sqlgen"
	"github.com/satishbabariya/pulseorm/schema"
)

// Session is where operations run: a *Client or a *Tx.
type Session interface {
	client() *Client
	// run executes fn on one scoped connection.
	run(ctx context.Context, fn func(*executor.Executor) error) error
	// atomic executes fn inside a transaction.
	atomic(ctx context.Context, fn func(*executor.Executor) error) error
}

// Client is safe for concurrent use. It holds no per-operation state.
type Client struct {
	db          *sql.DB
	dialect     sqlgen.Dialect
	provider    string
	registry    *schema.Registry
	batchSize   int
	middlewares []Middleware
}

// Option configures a Client.
type Option func(*Client)

// WithRegistry resolves descriptors from r instead of schema.Default().
func WithRegistry(r *schema.Registry) Option {
	return func(c *Client) { c.registry = r }
}

// WithBatchSize sets the default bulk batch size.
func WithBatchSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithDebug turns on statement logging.
func WithDebug() Option {
	return func(*Client) { debug.Init(true) }
}

// WithMiddleware installs operation middleware.
func WithMiddleware(m ...Middleware) Option {
	return func(c *Client) { c.middlewares = append(c.middlewares, m...) }
}

// Open opens a database for a provider name (postgres, mysql, sqlite,
// sqlite-pure). The connection is established lazily; use Ping to check it.
func Open(provider, dsn string, opts ...Option) (*Client, error) {
	driver := getDriverName(provider)
	if driver == "" {
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
	dialect, err := sqlgen.Lookup(provider)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	c := New(db, dialect, opts...)
	c.provider = provider
	return c, nil
}

// New wraps an existing database handle.
func New(db *sql.DB, dialect sqlgen.Dialect, opts ...Option) *Client {
	c := &Client{
		db:        db,
		dialect:   dialect,
		provider:  dialect.Name(),
		registry:  schema.Default(),
		batchSize: builder.DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// getDriverName maps provider names to database/sql driver names.
func getDriverName(provider string) string {
	switch strings.ToLower(provider) {
	case "postgresql", "postgres":
		return "postgres"
	case "mysql", "mariadb":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite3"
	case "sqlite-pure":
		return "sqlite"
	default:
		return ""
	}
}

// Ping verifies the database is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the underlying database.
func (c *Client) Close() error {
	return c.db.Close()
}

// DB returns the underlying database handle.
func (c *Client) DB() *sql.DB { return c.db }

// Dialect returns the SQL dialect.
func (c *Client) Dialect() sqlgen.Dialect { return c.dialect }

// Provider returns the provider name the client was opened with.
func (c *Client) Provider() string { return c.provider }

// Registry returns the descriptor registry.
func (c *Client) Registry() *schema.Registry { return c.registry }

// Use appends middleware. It must not be called concurrently with
// operations.
func (c *Client) Use(m Middleware) {
	c.middlewares = append(c.middlewares, m)
}

func (c *Client) client() *Client { return c }

func (c *Client) run(ctx context.Context, fn func(*executor.Executor) error) error {
	return executor.WithConn(ctx, c.db, c.dialect, fn)
}

func (c *Client) atomic(ctx context.Context, fn func(*executor.Executor) error) error {
	return executor.WithConn(ctx, c.db, c.dialect, func(e *executor.Executor) error {
		return e.InTx(ctx, fn)
	})
}

// prepare resolves the descriptor of T and a statement builder for it.
func prepare[T any](s Session) (*builder.Builder[T], error) {
	c := s.client()
	desc, err := schema.Resolve[T](c.registry)
	if err != nil {
		return nil, err
	}
	return builder.New(desc, c.dialect), nil
}
