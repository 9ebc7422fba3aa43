package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

const propertyColumns = "id, external_id, owner_id, title, description, property_type, price, city, address, bedrooms, bathrooms, area, images, created_at, updated_at"

func scanProperty(row interface{ Scan(...any) error }) (Property, error) {
	var p Property
	err := row.Scan(
		&p.Id,
		&p.ExternalId,
		&p.OwnerId,
		&p.Title,
		&p.Description,
		&p.PropertyType,
		&p.Price,
		&p.City,
		&p.Address,
		&p.Bedrooms,
		&p.Bathrooms,
		&p.Area,
		pq.Array(&p.Images),
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	return p, err
}

func (db *PgEstatelyRepository) CreateProperty(params CreatePropertyParams) (Property, error) {
	row := db.conn.QueryRow(
		"INSERT INTO properties (external_id, owner_id, title, description, property_type, price, city, address, bedrooms, bathrooms, area, images, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13) "+
			"RETURNING "+propertyColumns,
		params.ExternalId,
		params.OwnerId,
		params.Title,
		params.Description,
		params.PropertyType,
		params.Price,
		params.City,
		params.Address,
		params.Bedrooms,
		params.Bathrooms,
		params.Area,
		pq.Array(params.Images),
		time.Now().UTC(),
	)

	return scanProperty(row)
}

func (db *PgEstatelyRepository) GetPropertyByExternalId(externalId string) (Property, error) {
	row := db.conn.QueryRow(
		"SELECT "+propertyColumns+" FROM properties WHERE external_id = $1 LIMIT 1",
		externalId,
	)

	return scanProperty(row)
}

// ListProperties applies the optional filters and returns one page of
// listings plus the total match count for pagination.
func (db *PgEstatelyRepository) ListProperties(params ListPropertiesParams) ([]Property, int, error) {
	var (
		where []string
		args  []any
	)

	addFilter := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if params.City != "" {
		addFilter("city ILIKE $%d", params.City)
	}
	if params.PropertyType != "" {
		addFilter("property_type = $%d", params.PropertyType)
	}
	if params.MinPrice > 0 {
		addFilter("price >= $%d", params.MinPrice)
	}
	if params.MaxPrice > 0 {
		addFilter("price <= $%d", params.MaxPrice)
	}
	if params.MinBedrooms > 0 {
		addFilter("bedrooms >= $%d", params.MinBedrooms)
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM properties"+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, limit := params.Page, params.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	query := fmt.Sprintf(
		"SELECT %s FROM properties%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		propertyColumns, whereClause, len(args)+1, len(args)+2,
	)
	args = append(args, limit, (page-1)*limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	properties, err := collectProperties(rows)
	return properties, total, err
}

func (db *PgEstatelyRepository) ListPropertiesByOwner(ownerId int) ([]Property, error) {
	rows, err := db.conn.Query(
		"SELECT "+propertyColumns+" FROM properties WHERE owner_id = $1 ORDER BY created_at DESC, id DESC",
		ownerId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectProperties(rows)
}

func (db *PgEstatelyRepository) UpdateProperty(params UpdatePropertyParams) (Property, error) {
	row := db.conn.QueryRow(
		"UPDATE properties SET title = $2, description = $3, property_type = $4, price = $5, "+
			"city = $6, address = $7, bedrooms = $8, bathrooms = $9, area = $10, images = $11, updated_at = $12 "+
			"WHERE id = $1 RETURNING "+propertyColumns,
		params.Id,
		params.Title,
		params.Description,
		params.PropertyType,
		params.Price,
		params.City,
		params.Address,
		params.Bedrooms,
		params.Bathrooms,
		params.Area,
		pq.Array(params.Images),
		time.Now().UTC(),
	)

	return scanProperty(row)
}

func (db *PgEstatelyRepository) DeleteProperty(propertyId int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.Exec("DELETE FROM favorites WHERE property_id = $1", propertyId)
	if err != nil {
		return err
	}

	_, err = tx.Exec("DELETE FROM properties WHERE id = $1", propertyId)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (db *PgEstatelyRepository) AddFavorite(accountId, propertyId int) error {
	_, err := db.conn.Exec(
		"INSERT INTO favorites (account_id, property_id, created_at) VALUES ($1, $2, $3) "+
			"ON CONFLICT (account_id, property_id) DO NOTHING",
		accountId,
		propertyId,
		time.Now().UTC(),
	)

	return err
}

func (db *PgEstatelyRepository) RemoveFavorite(accountId, propertyId int) error {
	_, err := db.conn.Exec(
		"DELETE FROM favorites WHERE account_id = $1 AND property_id = $2",
		accountId,
		propertyId,
	)

	return err
}

func (db *PgEstatelyRepository) ListFavorites(accountId int) ([]Property, error) {
	rows, err := db.conn.Query(
		"SELECT p.id, p.external_id, p.owner_id, p.title, p.description, p.property_type, p.price, "+
			"p.city, p.address, p.bedrooms, p.bathrooms, p.area, p.images, p.created_at, p.updated_at "+
			"FROM favorites f JOIN properties p ON p.id = f.property_id "+
			"WHERE f.account_id = $1 ORDER BY f.created_at DESC",
		accountId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectProperties(rows)
}

func (db *PgEstatelyRepository) IsFavorite(accountId, propertyId int) (bool, error) {
	var exists bool
	err := db.conn.QueryRow(
		"SELECT EXISTS (SELECT 1 FROM favorites WHERE account_id = $1 AND property_id = $2)",
		accountId,
		propertyId,
	).Scan(&exists)

	return exists, err
}

func collectProperties(rows *sql.Rows) ([]Property, error) {
	var properties = make([]Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}

		properties = append(properties, p)
	}

	return properties, rows.Err()
}
