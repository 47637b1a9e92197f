// Package snapshot archives reflected schemas to object storage.
//
// Each archive writes two objects under a timestamped key prefix: a
// schema.json document (the abstract table model) and a schema.sql dump
// (the dialect's CREATE TABLE statements). Providers implement the Store
// interface; callers depend only on this package.
package snapshot

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/tablekit/tablekit/internal/errs"
	"github.com/tablekit/tablekit/internal/schema"
)

// Store is the object-storage contract snapshot providers implement.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// Put writes body to key with the given content type.
	Put(ctx context.Context, key, contentType string, body []byte) error

	// Get reads the full object at key.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns the objects under prefix, most recent key first.
	List(ctx context.Context, prefix string) ([]Info, error)
}

// Config holds the settings needed to reach an object-storage backend.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Info describes one stored snapshot object.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Archiver serialises schema sets and writes them through a Store.
type Archiver struct {
	store  Store
	prefix string
	now    func() time.Time
}

// NewArchiver returns an archiver writing under prefix.
func NewArchiver(store Store, prefix string) *Archiver {
	return &Archiver{store: store, prefix: prefix, now: time.Now}
}

// Result names the objects one Archive call produced.
type Result struct {
	JSONKey string `json:"json_key"`
	SQLKey  string `json:"sql_key"`
}

// Archive writes set as schema.json and schema.sql under a timestamped key
// and returns the object keys. The SQL dump renders with d, which need not
// be the dialect the set was reflected from — snapshots can translate a
// Postgres schema into MySQL DDL.
func (a *Archiver) Archive(ctx context.Context, d schema.Dialect, set *schema.Set) (*Result, error) {
	if set == nil || len(set.Tables) == 0 {
		return nil, errs.New(errs.ErrKindInvalidInput, "nothing to archive: schema set is empty")
	}

	doc, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "cannot serialise schema set", err)
	}

	dump, err := sqlDump(d, set)
	if err != nil {
		return nil, err
	}

	base := a.key(d.Name())
	res := &Result{
		JSONKey: base + "/schema.json",
		SQLKey:  base + "/schema.sql",
	}

	if err := a.store.Put(ctx, res.JSONKey, "application/json", doc); err != nil {
		return nil, err
	}
	if err := a.store.Put(ctx, res.SQLKey, "application/sql", []byte(dump)); err != nil {
		return nil, err
	}
	return res, nil
}

// List returns the snapshot objects previously written under this
// archiver's prefix.
func (a *Archiver) List(ctx context.Context) ([]Info, error) {
	return a.store.List(ctx, a.prefix+"/")
}

// key builds the per-snapshot key base: <prefix>/<dialect>/<timestamp>.
func (a *Archiver) key(dialect string) string {
	stamp := a.now().UTC().Format("20060102T150405Z")
	return a.prefix + "/" + dialect + "/" + stamp
}

// sqlDump renders every table's CREATE TABLE statement in set order.
func sqlDump(d schema.Dialect, set *schema.Set) (string, error) {
	var sb strings.Builder
	for i, t := range set.Tables {
		stmt, err := schema.CreateSQL(d, t)
		if err != nil {
			return "", err
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(stmt)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
