// Package db provides PostgreSQL-backed repository implementations for the
// sync engine. All repositories accept a DBTX interface that is satisfied by
// both *pgxpool.Pool (for normal queries) and pgx.Tx (for transactional
// execution), enabling clean transaction support.
//
// Schema owned by this package:
//
//	CREATE TABLE sync_tasks (
//	  id          UUID PRIMARY KEY,
//	  user_id     TEXT NOT NULL,
//	  platform    TEXT NOT NULL,
//	  sync_date   DATE NOT NULL,
//	  status      TEXT NOT NULL DEFAULT 'pending',
//	  attempts    INT  NOT NULL DEFAULT 0,
//	  last_error  TEXT,
//	  created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	  updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
//	CREATE UNIQUE INDEX uniq_sync_tasks_open
//	  ON sync_tasks (user_id, platform, sync_date)
//	  WHERE status <> 'completed';
//
//	CREATE TABLE platform_stats (
//	  user_id    TEXT NOT NULL,
//	  platform   TEXT NOT NULL,
//	  stat_date  DATE NOT NULL,
//	  followers  INT NOT NULL,
//	  activity   INT NOT NULL,
//	  synced_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	  PRIMARY KEY (user_id, platform, stat_date)
//	);
//
//	CREATE TABLE user_accounts (
//	  user_id   TEXT NOT NULL,
//	  platform  TEXT NOT NULL,
//	  handle    TEXT NOT NULL,
//	  PRIMARY KEY (user_id, platform)
//	);
//
// The users and user_accounts tables are owned by the account system; this
// package only reads them.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the minimal interface shared by *pgxpool.Pool and pgx.Tx.
// Repositories accept this so the same code works inside or outside a
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
