package database

// Store is the PostgreSQL-backed implementation of the analysis core's
// storage interface. Each entity's queries live in its own file.
type Store struct {
	db *Database
}

func NewStore(db *Database) *Store {
	return &Store{db: db}
}
