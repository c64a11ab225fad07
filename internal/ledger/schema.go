package ledger

// TableName is the ledger table. Reset drops it along with every other user table.
const TableName = "migration_history"

const (
	listAppliedSQL = `SELECT id, filename, dir_prefix, applied_at FROM ` + TableName + ` ORDER BY id`
	insertPrefix   = `INSERT INTO ` + TableName + ` (filename, dir_prefix) VALUES (`
)
