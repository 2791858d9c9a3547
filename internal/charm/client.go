// ABOUTME: Charm KV client wrapper used as a remote mirror backend.
// ABOUTME: Provides thread-safe access to the encrypted KV store and its cloud sync.
package charm

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
)

const (
	// DBName is the Charm KV database holding mirrored records.
	DBName = "lift"

	// DefaultHost is the Charm server used when CHARM_HOST is unset.
	DefaultHost = "charm.2389.dev"

	WorkoutPrefix  = "workout:"
	ExercisePrefix = "exercise:"
	SetPrefix      = "set:"
)

var errNoKey = errors.New("key not found")

// errReadOnly is returned when another process holds the KV lock.
var errReadOnly = errors.New("cannot write: database is locked by another process (MCP server?)")

// Store is the subset of the Charm KV API the mirror needs.
type Store interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
	IsReadOnly() bool
	Close() error
}

// Client wraps a KV store with sync-after-write.
type Client struct {
	kv Store
	mu sync.RWMutex
}

// Open opens the lift KV database against the configured Charm host and pulls
// remote state once.
func Open() (*Client, error) {
	if os.Getenv("CHARM_HOST") == "" {
		if err := os.Setenv("CHARM_HOST", DefaultHost); err != nil {
			return nil, err
		}
	}

	db, err := kv.OpenWithDefaultsFallback(DBName)
	if err != nil {
		return nil, fmt.Errorf("open charm kv: %w", err)
	}

	c := NewClient(db)
	if !db.IsReadOnly() {
		_ = db.Sync()
	}
	return c, nil
}

// NewClient wraps an already opened store.
func NewClient(store Store) *Client {
	return &Client{kv: store}
}

// Close closes the KV database connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv != nil {
		return c.kv.Close()
	}
	return nil
}

// IsReadOnly returns true if the database is open in read-only mode.
func (c *Client) IsReadOnly() bool {
	return c.kv.IsReadOnly()
}

// syncAfterWrite pushes local KV state to Charm Cloud. Callers hold c.mu.
func (c *Client) syncAfterWrite() {
	_ = c.kv.Sync()
}

// AccountID returns the Charm user ID for the current account.
func AccountID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("create charm client: %w", err)
	}
	return cc.ID()
}

func (c *Client) get(key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	val, err := c.kv.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errNoKey
	}
	return val, err
}

func (c *Client) set(key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv.IsReadOnly() {
		return errReadOnly
	}
	if err := c.kv.Set([]byte(key), data); err != nil {
		return err
	}
	c.syncAfterWrite()
	return nil
}

func (c *Client) delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv.IsReadOnly() {
		return errReadOnly
	}
	if err := c.kv.Delete([]byte(key)); err != nil {
		return err
	}
	c.syncAfterWrite()
	return nil
}

// listByPrefix returns all values with keys matching the given prefix.
func (c *Client) listByPrefix(prefix string) ([][]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys, err := c.kv.Keys()
	if err != nil {
		return nil, err
	}

	var results [][]byte
	prefixBytes := []byte(prefix)
	for _, key := range keys {
		if !bytes.HasPrefix(key, prefixBytes) {
			continue
		}
		val, err := c.kv.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		results = append(results, val)
	}
	return results, nil
}
