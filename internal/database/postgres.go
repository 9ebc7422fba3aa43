package database

import (
	"database/sql"
)

type PgEstatelyRepository struct {
	conn *sql.DB
}

func NewPgEstatelyRepository(dsn string) (*PgEstatelyRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgEstatelyRepository{conn: db}, nil
}

func (db *PgEstatelyRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgEstatelyRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
