// Package mongo keeps the ledger's reservations, order records and menu in
// MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/appetiteclub/seatside/pkg/lib/core"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultURI     = "mongodb://localhost:27017"
	defaultDBName  = "seatside_ledger"
	defaultTimeout = 10 * time.Second
)

// Settings locate the ledger database.
type Settings struct {
	URI     string
	DBName  string
	Timeout time.Duration
}

// SettingsFrom reads db.mongo.url, db.mongo.name and db.mongo.timeout.
func SettingsFrom(cfg *core.Config) Settings {
	return Settings{
		URI:     cfg.GetStringOrDef("db.mongo.url", defaultURI),
		DBName:  cfg.GetStringOrDef("db.mongo.name", defaultDBName),
		Timeout: cfg.GetDurationOrDef("db.mongo.timeout", defaultTimeout),
	}
}

// Conn is an open ledger database. Repositories are built from Database.
type Conn struct {
	client   *mongo.Client
	db       *mongo.Database
	settings Settings
	logger   core.Logger
}

// Dial connects and pings the server before returning.
func Dial(ctx context.Context, s Settings, logger core.Logger) (*Conn, error) {
	if logger == nil {
		logger = core.NewNoopLogger()
	}
	if s.Timeout <= 0 {
		s.Timeout = defaultTimeout
	}

	opts := options.Client().ApplyURI(s.URI).
		SetConnectTimeout(s.Timeout).
		SetServerSelectionTimeout(s.Timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to ledger store: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("cannot reach ledger store at %s: %w", Host(s.URI), err)
	}

	logger.Info("ledger store connected", "host", Host(s.URI), "database", s.DBName)
	return &Conn{client: client, db: client.Database(s.DBName), settings: s, logger: logger}, nil
}

func (c *Conn) Database() *mongo.Database {
	return c.db
}

// Close disconnects. It is safe on a nil or already closed Conn.
func (c *Conn) Close(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	c.client = nil
	if err != nil && !errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("cannot disconnect ledger store: %w", err)
	}
	c.logger.Info("ledger store disconnected", "host", Host(c.settings.URI))
	return nil
}

// Host returns the host part of a connection string without credentials,
// path or options. Unparseable strings yield "unknown".
func Host(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
