// Package tasks runs the library's background work over a persistent
// queue: overdue notices, bulk announcements and retention sweeps.
package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// Client owns the backlite instance and its SQLite database. The queue
// gets its own database file so circulation traffic and queue churn
// never contend for the same one.
type Client struct {
	client *backlite.Client
	db     *sql.DB
	config Config

	mu      sync.RWMutex
	started bool
}

// queueDBPath derives the queue's database path from the catalog's:
// library.db becomes library-tasks.db in the same directory.
func queueDBPath(catalogDBPath string) string {
	if i := strings.LastIndex(catalogDBPath, "."); i > strings.LastIndex(catalogDBPath, "/") {
		return catalogDBPath[:i] + "-tasks" + catalogDBPath[i:]
	}
	return catalogDBPath + "-tasks"
}

// NewClient opens the queue database next to the catalog database and
// prepares the backlite schema. Call Register and then Start.
func NewClient(catalogDBPath string, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	dsn := queueDBPath(catalogDBPath) + "?_journal=WAL&_timeout=5000&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open queue database: %w", err)
	}

	// Each worker holds a connection; leave headroom for enqueues
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          &queueLogger{},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create queue client: %w", err)
	}

	if err := client.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install queue schema: %w", err)
	}

	return &Client{client: client, db: db, config: cfg}, nil
}

// Register adds task queues. All queues must be registered before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.client.Register(q)
	}
}

// Start runs the workers until the context is cancelled. Non-blocking;
// run it in a goroutine and pair it with Stop on shutdown.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	log.Printf("Task queue started with %d workers", c.config.Workers)
	c.client.Start(ctx)
}

// Stop drains in-flight tasks, reporting whether all workers finished
// before the context deadline.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.RLock()
	if !c.started {
		c.mu.RUnlock()
		return true
	}
	c.mu.RUnlock()

	log.Println("Stopping task queue...")
	clean := c.client.Stop(ctx)
	if clean {
		log.Println("Task queue stopped")
	} else {
		log.Println("Task queue stop timed out; unfinished tasks will be released")
	}
	return clean
}

// Close releases the queue database. Call it after Stop.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Add starts an enqueue operation for one or more tasks.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.client.Add(tasks...)
}

// queueLogger routes backlite's logging through the standard logger.
type queueLogger struct{}

func (l *queueLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (l *queueLogger) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}
