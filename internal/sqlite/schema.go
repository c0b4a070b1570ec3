package sqlite

// Schema DDL. Statements are idempotent so an existing store keeps its
// records across Attach calls.
const (
	createRecords = `CREATE TABLE IF NOT EXISTS records (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    kind TEXT NOT NULL CHECK (kind IN ('object', 'property')),
    object_id TEXT NOT NULL,
    type_name TEXT,
    parent_id TEXT,
    idx INTEGER,
    name TEXT,
    value TEXT,
    value_type TEXT
);`

	idxRecordsObject = `CREATE INDEX IF NOT EXISTS idx_records_object ON records(object_id);`
	idxRecordsKind   = `CREATE INDEX IF NOT EXISTS idx_records_kind ON records(kind, seq);`
)

// schemaDDL lists the statements Attach runs, in order.
var schemaDDL = []string{
	createRecords,
	idxRecordsObject,
	idxRecordsKind,
}

// Record kinds stored in the kind column.
const (
	kindObject   = "object"
	kindProperty = "property"
)

const (
	insertRecord = `INSERT INTO records
    (kind, object_id, type_name, parent_id, idx, name, value, value_type)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	selectRecords = `SELECT kind, object_id, type_name, parent_id, idx, name, value, value_type
    FROM records ORDER BY seq`

	deleteRecords = `DELETE FROM records`

	countRecords = `SELECT COUNT(*) FROM records`
)
