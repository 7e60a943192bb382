package store

import (
	"database/sql"
	"fmt"
	"testing"
)

// Table bodies of the stores written by earlier releases.
const (
	v1ActivityInfoColumns = `
	publisher_id LONGVARCHAR NOT NULL,
	duration INTEGER DEFAULT 0 NOT NULL,
	score DOUBLE DEFAULT 0 NOT NULL,
	percent INTEGER DEFAULT 0 NOT NULL,
	weight DOUBLE DEFAULT 0 NOT NULL,
	month INTEGER NOT NULL,
	year INTEGER NOT NULL,
	CONSTRAINT activity_unique
		UNIQUE (publisher_id, month, year),
	CONSTRAINT fk_activity_info_publisher_id
		FOREIGN KEY (publisher_id)
		REFERENCES publisher_info (publisher_id)
		ON DELETE CASCADE`

	v1ContributionInfoColumns = `
	publisher_id LONGVARCHAR NOT NULL,
	probi INTEGER DEFAULT 0 NOT NULL,
	date INTEGER NOT NULL,
	category INTEGER NOT NULL,
	month INTEGER NOT NULL,
	year INTEGER NOT NULL,
	CONSTRAINT fk_contribution_info_publisher_id
		FOREIGN KEY (publisher_id)
		REFERENCES publisher_info (publisher_id)
		ON DELETE CASCADE`

	v2ActivityInfoColumns = `
	publisher_id LONGVARCHAR NOT NULL,
	duration INTEGER DEFAULT 0 NOT NULL,
	score DOUBLE DEFAULT 0 NOT NULL,
	percent INTEGER DEFAULT 0 NOT NULL,
	weight DOUBLE DEFAULT 0 NOT NULL,
	month INTEGER NOT NULL,
	year INTEGER NOT NULL,
	reconcile_stamp INTEGER DEFAULT 0 NOT NULL,
	CONSTRAINT activity_unique
		UNIQUE (publisher_id, month, year),
	CONSTRAINT fk_activity_info_publisher_id
		FOREIGN KEY (publisher_id)
		REFERENCES publisher_info (publisher_id)
		ON DELETE CASCADE`
)

// writeLegacyStore builds a store at path in the shape of the given
// version (1 or 2) with one publisher, activity row and contribution.
func writeLegacyStore(t *testing.T, path string, version int) {
	t.Helper()
	db := rawDB(t, path)

	tables := []tableDef{
		{"meta", metaColumns},
		{tablePublisherInfo, publisherInfoColumns},
		{tableMediaPublisherInfo, mediaPublisherInfoColumns},
	}
	switch version {
	case 1:
		tables = append(tables,
			tableDef{tableContributionInfo, v1ContributionInfoColumns},
			tableDef{tableActivityInfo, v1ActivityInfoColumns},
		)
	case 2:
		tables = append(tables,
			tableDef{tableContributionInfo, contributionInfoColumns},
			tableDef{tableActivityInfo, v2ActivityInfoColumns},
			tableDef{tableRecurringDonation, recurringDonationColumns},
		)
	default:
		t.Fatalf("no legacy shape for version %d", version)
	}
	for _, tbl := range tables {
		mustExec(t, db, fmt.Sprintf("CREATE TABLE %s (%s)", tbl.name, tbl.columns))
	}
	for _, idx := range []indexDef{contributionInfoIndex, activityInfoIndex} {
		mustExec(t, db, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s %s", idx.name, idx.definition))
	}
	if version == 2 {
		mustExec(t, db, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s %s",
			recurringDonationIndex.name, recurringDonationIndex.definition))
	}

	mustExec(t, db, "INSERT INTO meta (key, value) VALUES ('version', ?), ('last_compatible_version', '1')",
		fmt.Sprint(version))

	mustExec(t, db, `INSERT INTO publisher_info (publisher_id, verified, excluded, name, favIcon, url, provider)
		VALUES ('a.com', 1, 2, 'A', 'https://a.com/favicon.ico', 'https://a.com/', '')`)
	mustExec(t, db, `INSERT INTO contribution_info (publisher_id, probi, date, category, month, year)
		VALUES ('a.com', 1000000000000000000, 1583020800, 8, 3, 2020)`)
	if version == 1 {
		mustExec(t, db, `INSERT INTO activity_info (publisher_id, duration, score, percent, weight, month, year)
			VALUES ('a.com', 120, 1.5, 50, 0.5, 3, 2020)`)
	} else {
		mustExec(t, db, `INSERT INTO activity_info (publisher_id, duration, score, percent, weight, month, year, reconcile_stamp)
			VALUES ('a.com', 120, 1.5, 50, 0.5, 3, 2020, 1000)`)
		mustExec(t, db, `INSERT INTO recurring_donation (publisher_id, amount, added_date)
			VALUES ('a.com', 10, 1583020800)`)
	}

	if err := db.Close(); err != nil {
		t.Fatalf("close legacy store: %v", err)
	}
}

// storedVersion reads the version record without opening a store.
func storedVersion(t *testing.T, db *sql.DB) (version, compatible string) {
	t.Helper()
	if err := db.QueryRow("SELECT value FROM meta WHERE key = 'version'").Scan(&version); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if err := db.QueryRow("SELECT value FROM meta WHERE key = 'last_compatible_version'").Scan(&compatible); err != nil {
		t.Fatalf("read compatible version: %v", err)
	}
	return version, compatible
}
