package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createPaymentIntentTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE payment_intents (
		id TEXT PRIMARY KEY,
		origin_asset TEXT NOT NULL,
		destination_asset TEXT NOT NULL,
		requested_amount TEXT NOT NULL,
		destination_amount TEXT,
		recipient_address TEXT NOT NULL,
		refund_address TEXT NOT NULL,
		status TEXT NOT NULL,
		deposit_address TEXT UNIQUE,
		memo TEXT,
		quote_id TEXT,
		deadline DATETIME,
		min_amount_in TEXT,
		min_amount_in_formatted TEXT,
		last_status_payload TEXT,
		paid_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	);`)
}

func createIntentEventTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE intent_events (
		id TEXT PRIMARY KEY,
		intent_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		metadata TEXT,
		created_at DATETIME
	);`)
}

func createCompanionPlanTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE companion_plans (
		id TEXT PRIMARY KEY,
		claim_id TEXT NOT NULL,
		final_recipient TEXT NOT NULL,
		final_destination_asset TEXT NOT NULL,
		final_destination_amount TEXT NOT NULL,
		intermediate_asset TEXT NOT NULL,
		second_hop_amount_in TEXT NOT NULL,
		refund_address TEXT NOT NULL,
		ephemeral_address TEXT NOT NULL UNIQUE,
		first_hop_deposit_address TEXT NOT NULL,
		first_hop_quote_id TEXT,
		first_hop_deadline DATETIME NOT NULL,
		second_hop_deposit_addr TEXT,
		second_hop_quote_id TEXT,
		second_hop_min_amount_in TEXT,
		second_hop_deadline DATETIME,
		second_hop_tx_hash TEXT,
		refund_tx_hash TEXT,
		failure_reason TEXT,
		status TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	);`)
}
