package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// Meta is the metadata record of a store.
type Meta struct {
	// Version is the stored schema version.
	Version int `json:"version"`
	// CompatibleVersion is the oldest schema version able to read the store.
	// Written once at creation.
	CompatibleVersion int `json:"compatible_version"`
	// StoreID identifies the database file across copies and backups.
	StoreID string `json:"store_id"`
}

const (
	metaKeyVersion           = "version"
	metaKeyCompatibleVersion = "last_compatible_version"
	metaKeyStoreID           = "store_id"
)

const metaColumns = `
	key LONGVARCHAR NOT NULL UNIQUE PRIMARY KEY,
	value LONGVARCHAR`

// readMeta returns the stored metadata. found is false when the store has
// never been initialized.
func readMeta(ctx context.Context, q dbtx) (meta Meta, found bool, err error) {
	exists, err := tableExists(ctx, q, "meta")
	if err != nil || !exists {
		return Meta{}, false, err
	}

	version, ok, err := metaValue(ctx, q, metaKeyVersion)
	if err != nil || !ok {
		return Meta{}, false, err
	}
	if meta.Version, err = strconv.Atoi(version); err != nil {
		return Meta{}, false, fmt.Errorf("parse stored version %q: %w", version, err)
	}

	compat, ok, err := metaValue(ctx, q, metaKeyCompatibleVersion)
	if err != nil {
		return Meta{}, false, err
	}
	meta.CompatibleVersion = meta.Version
	if ok {
		if meta.CompatibleVersion, err = strconv.Atoi(compat); err != nil {
			return Meta{}, false, fmt.Errorf("parse compatible version %q: %w", compat, err)
		}
	}

	if meta.StoreID, _, err = metaValue(ctx, q, metaKeyStoreID); err != nil {
		return Meta{}, false, err
	}
	return meta, true, nil
}

// createMeta creates the meta table for a new store.
func createMeta(ctx context.Context, q dbtx, version, compatible int) (Meta, error) {
	if err := ensureTable(ctx, q, "meta", metaColumns); err != nil {
		return Meta{}, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Meta{}, fmt.Errorf("generate store id: %w", err)
	}
	meta := Meta{Version: version, CompatibleVersion: compatible, StoreID: id.String()}
	for key, value := range map[string]string{
		metaKeyVersion:           strconv.Itoa(version),
		metaKeyCompatibleVersion: strconv.Itoa(compatible),
		metaKeyStoreID:           meta.StoreID,
	} {
		if err := setMetaValue(ctx, q, key, value); err != nil {
			return Meta{}, err
		}
	}
	return meta, nil
}

// setVersion records the stored schema version.
func setVersion(ctx context.Context, q dbtx, version int) error {
	return setMetaValue(ctx, q, metaKeyVersion, strconv.Itoa(version))
}

// ensureStoreID assigns a store id to stores created without one.
func ensureStoreID(ctx context.Context, q dbtx, meta *Meta) error {
	if meta.StoreID != "" {
		return nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate store id: %w", err)
	}
	if err := setMetaValue(ctx, q, metaKeyStoreID, id.String()); err != nil {
		return err
	}
	meta.StoreID = id.String()
	return nil
}

func metaValue(ctx context.Context, q dbtx, key string) (string, bool, error) {
	var value sql.NullString
	err := q.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read meta %s: %w", key, err)
	}
	return value.String, true, nil
}

func setMetaValue(ctx context.Context, q dbtx, key, value string) error {
	_, err := q.ExecContext(ctx,
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		return fmt.Errorf("write meta %s: %w", key, err)
	}
	return nil
}
