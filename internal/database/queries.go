package database

import (
	"database/sql"
	"time"
)

func (db *PgEstatelyRepository) CreateAccount(params CreateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO accounts (name, email, password_hash, phone, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $5) RETURNING id, name, email, phone, created_at, updated_at",
		params.Name,
		params.EmailAddress,
		params.PasswordHash,
		params.Phone,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Name,
		&u.EmailAddress,
		&u.Phone,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgEstatelyRepository) UpdateAccount(params UpdateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"UPDATE accounts SET name = $2, phone = $3, avatar = NULLIF($4, ''), updated_at = $5 "+
			"WHERE id = $1 RETURNING id, name, email, phone, avatar, created_at, updated_at",
		params.UserId,
		params.Name,
		params.Phone,
		params.Avatar,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Name,
		&u.EmailAddress,
		&u.Phone,
		&u.Avatar,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgEstatelyRepository) GetAccountById(accountId int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, email, phone, avatar, created_at, updated_at FROM accounts "+
			"WHERE id = $1 LIMIT 1",
		accountId,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Name,
		&user.EmailAddress,
		&user.Phone,
		&user.Avatar,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	return user, err
}

func (db *PgEstatelyRepository) GetAccountByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, email, password_hash, phone, avatar, created_at, updated_at FROM accounts "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Name,
		&user.EmailAddress,
		&user.PasswordHash,
		&user.Phone,
		&user.Avatar,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	return user, err
}

func (db *PgEstatelyRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	propertyId := sql.NullInt64{Int64: int64(params.PropertyId), Valid: params.PropertyId != 0}

	res := db.conn.QueryRow(
		"INSERT INTO messages (sender_id, receiver_id, property_id, body, read, created_at) "+
			"VALUES ($1, $2, $3, $4, FALSE, $5) "+
			"RETURNING id, sender_id, receiver_id, property_id, body, read, created_at",
		params.SenderId,
		params.ReceiverId,
		propertyId,
		params.Body,
		time.Now().UTC(),
	)

	var msg Message
	err := res.Scan(
		&msg.Id,
		&msg.SenderId,
		&msg.ReceiverId,
		&msg.PropertyId,
		&msg.Body,
		&msg.Read,
		&msg.CreatedAt,
	)

	return msg, err
}

func (db *PgEstatelyRepository) GetMessageById(messageId int) (Message, error) {
	row := db.conn.QueryRow(
		"SELECT id, sender_id, receiver_id, property_id, body, read, created_at FROM messages "+
			"WHERE id = $1 LIMIT 1",
		messageId,
	)

	var msg Message
	err := row.Scan(
		&msg.Id,
		&msg.SenderId,
		&msg.ReceiverId,
		&msg.PropertyId,
		&msg.Body,
		&msg.Read,
		&msg.CreatedAt,
	)

	return msg, err
}

// GetConversationMessages returns one page of the message history between
// viewerId and peerId in either direction, oldest first, along with the
// total number of messages in the conversation.
func (db *PgEstatelyRepository) GetConversationMessages(viewerId, peerId, page, limit int) ([]Message, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}

	var total int
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM messages "+
			"WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)",
		viewerId,
		peerId,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.conn.Query(
		"SELECT id, sender_id, receiver_id, property_id, body, read, created_at FROM messages "+
			"WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1) "+
			"ORDER BY created_at ASC, id ASC LIMIT $3 OFFSET $4",
		viewerId,
		peerId,
		limit,
		(page-1)*limit,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var messages = make([]Message, 0, limit)
	for rows.Next() {
		var msg Message
		if err = rows.Scan(&msg.Id, &msg.SenderId, &msg.ReceiverId, &msg.PropertyId, &msg.Body, &msg.Read, &msg.CreatedAt); err != nil {
			return nil, 0, err
		}

		messages = append(messages, msg)
	}

	return messages, total, rows.Err()
}

const listConversationsQuery = `
WITH convo AS (
	SELECT m.*,
		CASE WHEN m.sender_id = $1 THEN m.receiver_id ELSE m.sender_id END AS peer_id
	FROM messages m
	WHERE m.sender_id = $1 OR m.receiver_id = $1
),
last_message AS (
	SELECT DISTINCT ON (peer_id)
		peer_id, id, sender_id, receiver_id, property_id, body, read, created_at
	FROM convo
	ORDER BY peer_id, created_at DESC, id DESC
),
unread AS (
	SELECT peer_id,
		COUNT(*) FILTER (WHERE receiver_id = $1 AND NOT read) AS unread_count
	FROM convo
	GROUP BY peer_id
)
SELECT l.peer_id, a.name, a.avatar, u.unread_count,
	l.id, l.sender_id, l.receiver_id, l.property_id, l.body, l.read, l.created_at
FROM last_message l
JOIN unread u USING (peer_id)
JOIN accounts a ON a.id = l.peer_id
ORDER BY l.created_at DESC, l.id DESC
`

// ListConversations derives the viewer's inbox: one row per peer with the
// most recent message (ties on created_at broken by id) and the number of
// unread messages addressed to the viewer. Peers whose account row no
// longer exists are dropped by the inner join.
func (db *PgEstatelyRepository) ListConversations(viewerId int) ([]ConversationSummary, error) {
	rows, err := db.conn.Query(listConversationsQuery, viewerId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries = make([]ConversationSummary, 0)
	for rows.Next() {
		var s ConversationSummary
		err = rows.Scan(
			&s.PeerId,
			&s.PeerName,
			&s.PeerAvatar,
			&s.UnreadCount,
			&s.LastMessage.Id,
			&s.LastMessage.SenderId,
			&s.LastMessage.ReceiverId,
			&s.LastMessage.PropertyId,
			&s.LastMessage.Body,
			&s.LastMessage.Read,
			&s.LastMessage.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

func (db *PgEstatelyRepository) MarkMessageRead(messageId int) (Message, error) {
	row := db.conn.QueryRow(
		"UPDATE messages SET read = TRUE WHERE id = $1 "+
			"RETURNING id, sender_id, receiver_id, property_id, body, read, created_at",
		messageId,
	)

	var msg Message
	err := row.Scan(
		&msg.Id,
		&msg.SenderId,
		&msg.ReceiverId,
		&msg.PropertyId,
		&msg.Body,
		&msg.Read,
		&msg.CreatedAt,
	)

	return msg, err
}

// MarkConversationRead flips read on every unread message sent by peerId to
// viewerId and reports how many rows changed. Running it again affects zero
// rows.
func (db *PgEstatelyRepository) MarkConversationRead(viewerId, peerId int) (int64, error) {
	res, err := db.conn.Exec(
		"UPDATE messages SET read = TRUE WHERE sender_id = $2 AND receiver_id = $1 AND read = FALSE",
		viewerId,
		peerId,
	)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (db *PgEstatelyRepository) DeleteMessage(messageId int) error {
	res, err := db.conn.Exec("DELETE FROM messages WHERE id = $1", messageId)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (db *PgEstatelyRepository) DeleteConversation(viewerId, peerId int) (int64, error) {
	res, err := db.conn.Exec(
		"DELETE FROM messages "+
			"WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)",
		viewerId,
		peerId,
	)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
