package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema version tracking:
// 1 - Initial schema
// 2 - activity_info.reconcile_stamp; contribution_info.probi as TEXT;
//     recurring_donation table
// 3 - activity_info.visits; activity unique key includes reconcile_stamp
const (
	currentVersion    = 3
	compatibleVersion = 1
)

// CurrentVersion returns the schema version this build creates and migrates
// to.
func CurrentVersion() int { return currentVersion }

// Table names.
const (
	tablePublisherInfo      = "publisher_info"
	tableActivityInfo       = "activity_info"
	tableContributionInfo   = "contribution_info"
	tableMediaPublisherInfo = "media_publisher_info"
	tableRecurringDonation  = "recurring_donation"
)

// Current table bodies. Column order is the persisted order and must be kept
// when tables are rebuilt.
const (
	publisherInfoColumns = `
	publisher_id LONGVARCHAR PRIMARY KEY NOT NULL UNIQUE,
	verified BOOLEAN DEFAULT 0 NOT NULL,
	excluded INTEGER DEFAULT 0 NOT NULL,
	name TEXT NOT NULL,
	favIcon TEXT NOT NULL,
	url TEXT NOT NULL,
	provider TEXT NOT NULL`

	activityInfoColumns = `
	publisher_id LONGVARCHAR NOT NULL,
	duration INTEGER DEFAULT 0 NOT NULL,
	visits INTEGER DEFAULT 0 NOT NULL,
	score DOUBLE DEFAULT 0 NOT NULL,
	percent INTEGER DEFAULT 0 NOT NULL,
	weight DOUBLE DEFAULT 0 NOT NULL,
	month INTEGER NOT NULL,
	year INTEGER NOT NULL,
	reconcile_stamp INTEGER DEFAULT 0 NOT NULL,
	CONSTRAINT activity_unique
		UNIQUE (publisher_id, month, year, reconcile_stamp),
	CONSTRAINT fk_activity_info_publisher_id
		FOREIGN KEY (publisher_id)
		REFERENCES publisher_info (publisher_id)
		ON DELETE CASCADE`

	contributionInfoColumns = `
	publisher_id LONGVARCHAR NOT NULL,
	probi TEXT DEFAULT '0' NOT NULL,
	date INTEGER NOT NULL,
	category INTEGER NOT NULL,
	month INTEGER NOT NULL,
	year INTEGER NOT NULL,
	CONSTRAINT fk_contribution_info_publisher_id
		FOREIGN KEY (publisher_id)
		REFERENCES publisher_info (publisher_id)
		ON DELETE CASCADE`

	mediaPublisherInfoColumns = `
	media_key TEXT NOT NULL PRIMARY KEY UNIQUE,
	publisher_id LONGVARCHAR NOT NULL,
	CONSTRAINT fk_media_publisher_info_publisher_id
		FOREIGN KEY (publisher_id)
		REFERENCES publisher_info (publisher_id)
		ON DELETE CASCADE`

	recurringDonationColumns = `
	publisher_id LONGVARCHAR NOT NULL PRIMARY KEY UNIQUE,
	amount DOUBLE DEFAULT 0 NOT NULL,
	added_date INTEGER DEFAULT 0 NOT NULL,
	CONSTRAINT fk_recurring_donation_publisher_id
		FOREIGN KEY (publisher_id)
		REFERENCES publisher_info (publisher_id)
		ON DELETE CASCADE`
)

type tableDef struct {
	name    string
	columns string
}

type indexDef struct {
	name       string
	definition string
}

// currentTables lists every table in creation order.
var currentTables = []tableDef{
	{tablePublisherInfo, publisherInfoColumns},
	{tableContributionInfo, contributionInfoColumns},
	{tableActivityInfo, activityInfoColumns},
	{tableMediaPublisherInfo, mediaPublisherInfoColumns},
	{tableRecurringDonation, recurringDonationColumns},
}

var (
	contributionInfoIndex  = indexDef{"contribution_info_publisher_id_index", "ON contribution_info (publisher_id)"}
	activityInfoIndex      = indexDef{"activity_info_publisher_id_index", "ON activity_info (publisher_id)"}
	recurringDonationIndex = indexDef{"recurring_donation_publisher_id_index", "ON recurring_donation (publisher_id)"}
)

var currentIndexes = []indexDef{
	contributionInfoIndex,
	activityInfoIndex,
	recurringDonationIndex,
}

// ensureTable creates the table only if it does not exist yet.
// An existing table is left as it is, whatever its shape; migrations
// bring old shapes forward.
func ensureTable(ctx context.Context, q dbtx, name, columns string) error {
	exists, err := tableExists(ctx, q, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if _, err := q.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", name, columns)); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	return nil
}

// ensureIndex creates the index if it does not exist yet.
func ensureIndex(ctx context.Context, q dbtx, name, definition string) error {
	if _, err := q.ExecContext(ctx, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s %s", name, definition)); err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

// tableExists reports whether a table named name exists.
func tableExists(ctx context.Context, q dbtx, name string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return n > 0, nil
}

// columnExists reports whether table has a column named column.
func columnExists(ctx context.Context, q dbtx, table, column string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check column %s.%s: %w", table, column, err)
	}
	return n > 0, nil
}

// createSchema ensures every current table and index exists.
func createSchema(ctx context.Context, tx *sql.Tx) error {
	for _, t := range currentTables {
		if err := ensureTable(ctx, tx, t.name, t.columns); err != nil {
			return err
		}
	}
	for _, idx := range currentIndexes {
		if err := ensureIndex(ctx, tx, idx.name, idx.definition); err != nil {
			return err
		}
	}
	return nil
}
