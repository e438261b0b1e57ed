package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mindbridge/infrastructure"
)

// Repository is the durable store gateway consumed by the messaging
// core and the message history endpoints. It executes parameterized
// queries only; policy lives in the callers.
type Repository interface {
	FindUser(ctx context.Context, id uint) (*User, error)
	IsRoomMember(ctx context.Context, roomID, userID uint) (bool, error)
	InsertRoomMessage(ctx context.Context, roomID, userID uint, content string) (*Message, error)
	InsertPrivateMessage(ctx context.Context, senderID, receiverID uint, content string) (*PrivateMessage, error)
	MarkPrivateRead(ctx context.Context, receiverID, senderID uint) error
	PrivateMessages(ctx context.Context, userID, otherID uint, limit, offset int) ([]*PrivateMessageRow, error)
	Conversations(ctx context.Context, userID uint) ([]*Conversation, error)
	RoomMessages(ctx context.Context, roomID uint, limit, offset int) ([]*MessagePayload, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindUser(ctx context.Context, id uint) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, role, first_name, last_name, COALESCE(profile_picture, '')
		FROM users WHERE id = $1`, id).Scan(
		&u.ID, &u.Email, &u.Role, &u.FirstName, &u.LastName, &u.ProfilePicture)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, infrastructure.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

func (r *PostgresRepository) IsRoomMember(ctx context.Context, roomID, userID uint) (bool, error) {
	var member bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM chat_room_members
			WHERE chat_room_id = $1 AND user_id = $2
		)`, roomID, userID).Scan(&member)
	if err != nil {
		return false, fmt.Errorf("failed to check room membership: %w", err)
	}
	return member, nil
}

func (r *PostgresRepository) InsertRoomMessage(ctx context.Context, roomID, userID uint, content string) (*Message, error) {
	msg := &Message{ChatRoomID: roomID, UserID: userID, Content: content}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO messages (chat_room_id, user_id, content, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at`, roomID, userID, content).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert room message: %w", err)
	}
	return msg, nil
}

func (r *PostgresRepository) InsertPrivateMessage(ctx context.Context, senderID, receiverID uint, content string) (*PrivateMessage, error) {
	msg := &PrivateMessage{SenderID: senderID, ReceiverID: receiverID, Content: content}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO private_messages (sender_id, receiver_id, content, is_read, created_at)
		VALUES ($1, $2, $3, false, NOW())
		RETURNING id, is_read, created_at`, senderID, receiverID, content).Scan(
		&msg.ID, &msg.IsRead, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert private message: %w", err)
	}
	return msg, nil
}

// MarkPrivateRead flips unread messages from the given sender to read.
// The read flag only ever transitions false to true.
func (r *PostgresRepository) MarkPrivateRead(ctx context.Context, receiverID, senderID uint) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE private_messages
		SET is_read = true
		WHERE receiver_id = $1 AND sender_id = $2 AND is_read = false`,
		receiverID, senderID)
	if err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}

func (r *PostgresRepository) PrivateMessages(ctx context.Context, userID, otherID uint, limit, offset int) ([]*PrivateMessageRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT pm.id, pm.sender_id, pm.receiver_id, pm.content, pm.is_read, pm.created_at,
		       sender.first_name, sender.last_name,
		       receiver.first_name, receiver.last_name
		FROM private_messages pm
		JOIN users sender ON pm.sender_id = sender.id
		JOIN users receiver ON pm.receiver_id = receiver.id
		WHERE (pm.sender_id = $1 AND pm.receiver_id = $2)
		   OR (pm.sender_id = $2 AND pm.receiver_id = $1)
		ORDER BY pm.created_at ASC
		LIMIT $3 OFFSET $4`,
		userID, otherID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch private messages: %w", err)
	}
	defer rows.Close()

	var messages []*PrivateMessageRow
	for rows.Next() {
		row := &PrivateMessageRow{}
		err := rows.Scan(&row.ID, &row.SenderID, &row.ReceiverID, &row.Content, &row.IsRead, &row.CreatedAt,
			&row.SenderFirstName, &row.SenderLastName,
			&row.ReceiverFirstName, &row.ReceiverLastName)
		if err != nil {
			return nil, err
		}
		messages = append(messages, row)
	}
	return messages, rows.Err()
}

func (r *PostgresRepository) Conversations(ctx context.Context, userID uint) ([]*Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `
		WITH latest_messages AS (
			SELECT DISTINCT ON (
				CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END
			)
				CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS other_user_id,
				content AS last_message,
				created_at AS last_message_time
			FROM private_messages
			WHERE sender_id = $1 OR receiver_id = $1
			ORDER BY
				CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END,
				created_at DESC
		)
		SELECT lm.other_user_id, u.first_name, u.last_name, COALESCE(u.profile_picture, ''),
		       lm.last_message, lm.last_message_time,
		       (SELECT COUNT(*) FROM private_messages
		        WHERE receiver_id = $1 AND sender_id = lm.other_user_id AND is_read = false)
		FROM latest_messages lm
		JOIN users u ON lm.other_user_id = u.id
		ORDER BY lm.last_message_time DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*Conversation
	for rows.Next() {
		conv := &Conversation{}
		err := rows.Scan(&conv.OtherUserID, &conv.FirstName, &conv.LastName, &conv.ProfilePicture,
			&conv.LastMessage, &conv.LastMessageTime, &conv.UnreadCount)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}
	return conversations, rows.Err()
}

func (r *PostgresRepository) RoomMessages(ctx context.Context, roomID uint, limit, offset int) ([]*MessagePayload, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.id, m.chat_room_id, m.user_id, m.content, m.created_at,
		       u.first_name, u.last_name, COALESCE(u.profile_picture, '')
		FROM messages m
		JOIN users u ON m.user_id = u.id
		WHERE m.chat_room_id = $1
		ORDER BY m.created_at DESC
		LIMIT $2 OFFSET $3`,
		roomID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch room messages: %w", err)
	}
	defer rows.Close()

	var messages []*MessagePayload
	for rows.Next() {
		msg := &MessagePayload{}
		err := rows.Scan(&msg.ID, &msg.ChatRoomID, &msg.UserID, &msg.Content, &msg.CreatedAt,
			&msg.FirstName, &msg.LastName, &msg.ProfilePicture)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
