package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvsession/internal/storage"
	"github.com/yndnr/kvsession/pkg/token"
)

// commandTimeout bounds backend calls made by one-off commands.
const commandTimeout = 30 * time.Second

// SessionRow is one session record as shown by the CLI.
type SessionRow struct {
	Host        string        `json:"host" yaml:"host"`
	ID          string        `json:"id" yaml:"id" table:"SESSION ID"`
	Fingerprint string        `json:"fingerprint" yaml:"fingerprint" table:",wide"`
	Value       string        `json:"value" yaml:"value"`
	ExpiresAt   time.Time     `json:"expires_at" yaml:"expires_at"`
	TTL         time.Duration `json:"ttl" yaml:"ttl"`
}

func newSessionRow(e storage.Entry, now time.Time) SessionRow {
	return SessionRow{
		Host:        e.Key.Host,
		ID:          e.Key.ID,
		Fingerprint: token.Fingerprint(e.Key.ID),
		Value:       string(e.Value),
		ExpiresAt:   e.ExpiresAt,
		TTL:         e.TTL(now).Truncate(time.Second),
	}
}

// SessionsCommand returns the sessions subcommand group.
func SessionsCommand() *cli.Command {
	return &cli.Command{
		Name:    "sessions",
		Aliases: []string{"sess"},
		Usage:   "Inspect session records in the configured backend",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List live sessions",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "host",
						Usage: "Only list sessions issued for this host",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Stop after this many records (0 = no limit)",
					},
				},
				Action: sessionsList,
			},
			{
				Name:      "get",
				Usage:     "Show one session record",
				ArgsUsage: "HOST SESSION_ID",
				Action:    sessionsGet,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a session record",
				ArgsUsage: "HOST SESSION_ID",
				Action:    sessionsDelete,
			},
		},
	}
}

// withStore runs fn against the configured backend.
func withStore(c *cli.Context, fn func(ctx context.Context, store storage.Store) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, commandTimeout)
	defer cancel()

	store, err := openStore(ctx, c, cfg)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.KV.Backend, err)
	}
	defer store.Close()

	return fn(ctx, store)
}

func sessionKeyArgs(c *cli.Context) (storage.Key, error) {
	if c.NArg() != 2 {
		return storage.Key{}, fmt.Errorf("expected HOST and SESSION_ID arguments")
	}
	key := storage.SessionKey(c.Args().Get(0), c.Args().Get(1))
	return key, key.Validate()
}

func sessionsList(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, store storage.Store) error {
		lister, ok := store.(storage.Lister)
		if !ok {
			return storage.ErrListUnsupported
		}

		limit := c.Int("limit")
		now := time.Now()
		rows := []SessionRow{}
		err := lister.Scan(ctx, c.String("host"), func(e storage.Entry) bool {
			rows = append(rows, newSessionRow(e, now))
			return limit <= 0 || len(rows) < limit
		})
		if err != nil {
			return err
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].Host != rows[j].Host {
				return rows[i].Host < rows[j].Host
			}
			return rows[i].ID < rows[j].ID
		})
		return write(c, rows)
	})
}

func sessionsGet(c *cli.Context) error {
	key, err := sessionKeyArgs(c)
	if err != nil {
		return err
	}

	return withStore(c, func(ctx context.Context, store storage.Store) error {
		value, found, err := store.Get(ctx, key)
		if err != nil {
			return err
		}
		if !found {
			return errSessionNotFound
		}

		// Expiry is only known to stores that can enumerate.
		row := newSessionRow(storage.Entry{Key: key, Value: value}, time.Now())
		if lister, ok := store.(storage.Lister); ok {
			_ = lister.Scan(ctx, key.Host, func(e storage.Entry) bool {
				if e.Key.ID == key.ID {
					row = newSessionRow(e, time.Now())
					return false
				}
				return true
			})
		}
		return write(c, row)
	})
}

func sessionsDelete(c *cli.Context) error {
	key, err := sessionKeyArgs(c)
	if err != nil {
		return err
	}

	return withStore(c, func(ctx context.Context, store storage.Store) error {
		if err := store.Delete(ctx, key); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "deleted %s\n", key)
		return nil
	})
}

var errSessionNotFound = errors.New("session not found")
