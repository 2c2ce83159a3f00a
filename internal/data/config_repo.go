package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/deskmetrics/deskmetrics/internal/errors"

	"github.com/deskmetrics/deskmetrics/internal/data/cryptoutil"
	"github.com/deskmetrics/deskmetrics/internal/data/pgxutil"
	"github.com/deskmetrics/deskmetrics/internal/domain/model"
)

// ConfigRepo provides CRUD operations for the generic key/value config table
// with at-rest encryption. Every write appends a row to the config activity
// log in the same transaction, recording the key name, encrypted flag, and
// new-value length only, never the value.
type ConfigRepo struct {
	DB  *sql.DB
	Enc cryptoutil.Encryptor
}

// NewConfigRepo creates a new ConfigRepo.
func NewConfigRepo(db *sql.DB, enc cryptoutil.Encryptor) *ConfigRepo {
	return &ConfigRepo{DB: db, Enc: enc}
}

// ErrConfigNotFound is returned when a config key is not found. Callers that
// fall back on an absent value match it with apperrors.IsNotFound.
var ErrConfigNotFound = apperrors.NotFound("config entry not found")

// Get fetches an entry and decrypts its value when the encrypted flag is set.
// Corrupt ciphertext is reported as a Decryption error so callers can treat
// the value as absent without crashing.
func (r *ConfigRepo) Get(ctx context.Context, key string) (*model.ConfigEntry, error) {
	var entry model.ConfigEntry
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT key, value, encrypted, updated_at
			FROM config_entries WHERE key = $1`, key)
		if err != nil {
			return err
		}
		defer rows.Close()
		entry, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.ConfigEntry])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get config entry: %w", err)
	}

	if entry.Encrypted && entry.Value != "" {
		pt, decErr := r.Enc.Decrypt(entry.Value)
		if decErr != nil {
			return nil, apperrors.Decryption(decErr, fmt.Sprintf("decrypt config value for %q", key))
		}
		entry.Value = string(pt)
	}
	return &entry, nil
}

// Set upserts an entry, encrypting the value when requested. The activity-log
// row is written in the same transaction as the upsert.
func (r *ConfigRepo) Set(ctx context.Context, key, value string, encrypt bool) (*model.ConfigEntry, error) {
	if err := model.ValidateConfigKey(key); err != nil {
		return nil, apperrors.ValidationField("key", err.Error())
	}

	stored := value
	if encrypt {
		ct, err := r.Enc.Encrypt([]byte(value))
		if err != nil {
			return nil, fmt.Errorf("encrypt config value: %w", err)
		}
		stored = ct
	}

	var out model.ConfigEntry
	err := pgxutil.WithPgxTx(ctx, r.DB, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			INSERT INTO config_entries (key, value, encrypted, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (key) DO UPDATE
			SET value = EXCLUDED.value, encrypted = EXCLUDED.encrypted, updated_at = now()
			RETURNING key, value, encrypted, updated_at`, key, stored, encrypt)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.ConfigEntry])
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO config_activity_log (key_name, action, encrypted, value_length)
			VALUES ($1, 'set', $2, $3)`, key, encrypt, len(value))
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	// Hand back plaintext; the table row keeps the ciphertext.
	out.Value = value
	return &out, nil
}

// Delete removes an entry and records the deletion in the activity log.
func (r *ConfigRepo) Delete(ctx context.Context, key string) (bool, error) {
	var deleted bool
	err := pgxutil.WithPgxTx(ctx, r.DB, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `DELETE FROM config_entries WHERE key = $1`, key)
		if err != nil {
			return err
		}
		deleted = ct.RowsAffected() > 0
		if !deleted {
			return nil
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO config_activity_log (key_name, action, encrypted, value_length)
			VALUES ($1, 'delete', FALSE, 0)`, key)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete config entry: %w", err)
	}
	return deleted, nil
}

// List returns entry metadata with pagination. Encrypted values stay opaque;
// callers wanting plaintext must Get individual keys.
func (r *ConfigRepo) List(ctx context.Context, limit, offset int) ([]*model.ConfigEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var entries []model.ConfigEntry
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT key, CASE WHEN encrypted THEN ''::text ELSE value END AS value, encrypted, updated_at
			FROM config_entries
			ORDER BY key
			LIMIT $1 OFFSET $2`, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		entries, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.ConfigEntry])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list config entries: %w", err)
	}

	out := make([]*model.ConfigEntry, len(entries))
	for i := range entries {
		out[i] = &entries[i]
	}
	return out, nil
}

// ListActivity returns the newest activity-log rows.
func (r *ConfigRepo) ListActivity(ctx context.Context, limit int) ([]model.ConfigActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	var entries []model.ConfigActivityEntry
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, key_name, action, encrypted, value_length, created_at
			FROM config_activity_log
			ORDER BY id DESC
			LIMIT $1`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		entries, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.ConfigActivityEntry])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list config activity: %w", err)
	}
	return entries, nil
}
