package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/uniconnect/uniconnect/internal/models"
)

// SQLiteStore handles SQLite database operations. It backs local development
// and tests; production runs on PostgresStore.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/uniconnect.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/uniconnect.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	// Initialize schema
	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS organizations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email_domain TEXT UNIQUE NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL DEFAULT '',
		organization_id INTEGER REFERENCES organizations(id),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS channels (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT,
		type TEXT NOT NULL CHECK (type IN ('campus', 'subject', 'global', 'study_group')),
		scope TEXT NOT NULL CHECK (scope IN ('campus', 'global')),
		subject_name TEXT,
		organization_id INTEGER REFERENCES organizations(id),
		join_code_hash TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		CHECK (scope <> 'campus' OR organization_id IS NOT NULL)
	);

	CREATE TABLE IF NOT EXISTS channel_members (
		channel_id INTEGER NOT NULL REFERENCES channels(id),
		user_id TEXT NOT NULL REFERENCES profiles(id),
		role TEXT NOT NULL DEFAULT 'member',
		joined_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (channel_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		channel_id INTEGER NOT NULL REFERENCES channels(id),
		sender_id TEXT NOT NULL REFERENCES profiles(id),
		content TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		deleted INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_channels_organization ON channels(organization_id);
	CREATE INDEX IF NOT EXISTS idx_channel_members_user ON channel_members(user_id);
	CREATE INDEX IF NOT EXISTS idx_messages_channel_created ON messages(channel_id, created_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateChannel creates a new channel.
func (s *SQLiteStore) CreateChannel(ctx context.Context, p ChannelParams) (*models.Channel, error) {
	var codeHash *string
	if p.JoinCodeHash != "" {
		codeHash = &p.JoinCodeHash
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO channels (name, description, type, scope, subject_name, organization_id, join_code_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.Name, p.Description, string(p.Type), string(p.Scope), p.SubjectName, p.OrganizationID, codeHash)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetChannel(ctx, id)
}

func scanChannel(row interface{ Scan(...any) error }) (*models.Channel, error) {
	ch := &models.Channel{}
	var typ, scope string
	err := row.Scan(
		&ch.ID,
		&ch.Name,
		&ch.Description,
		&typ,
		&scope,
		&ch.SubjectName,
		&ch.OrganizationID,
		&ch.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	ch.Type = models.ChannelType(typ)
	ch.Scope = models.ChannelScope(scope)
	return ch, nil
}

// GetChannel retrieves a channel by ID.
func (s *SQLiteStore) GetChannel(ctx context.Context, id int64) (*models.Channel, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, type, scope, subject_name, organization_id, created_at
		FROM channels WHERE id = ?
	`, id)

	ch, err := scanChannel(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return ch, nil
}

// GetChannelJoinCodeHash retrieves the join code hash for a study group.
func (s *SQLiteStore) GetChannelJoinCodeHash(ctx context.Context, id int64) (string, error) {
	var codeHash *string
	err := s.db.QueryRowContext(ctx, `
		SELECT join_code_hash FROM channels WHERE id = ?
	`, id).Scan(&codeHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	if codeHash == nil {
		return "", nil
	}
	return *codeHash, nil
}

// ListChannels retrieves every channel ordered by name.
func (s *SQLiteStore) ListChannels(ctx context.Context) ([]models.Channel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, type, scope, subject_name, organization_id, created_at
		FROM channels
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, *ch)
	}
	return channels, rows.Err()
}

// JoinChannel records a membership, idempotently.
func (s *SQLiteStore) JoinChannel(ctx context.Context, channelID int64, userID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO channel_members (channel_id, user_id, role)
		VALUES (?, ?, 'member')
	`, channelID, userID.String())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListJoinedChannelIDs returns the ids of every channel the user has joined.
func (s *SQLiteStore) ListJoinedChannelIDs(ctx context.Context, userID uuid.UUID) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT channel_id FROM channel_members WHERE user_id = ? ORDER BY channel_id
	`, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountChannelMembers counts members of a channel.
func (s *SQLiteStore) CountChannelMembers(ctx context.Context, channelID int64) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM channel_members WHERE channel_id = ?
	`, channelID).Scan(&count)
	return count, err
}

// CreateMessage inserts a message and returns it with the server-assigned id.
func (s *SQLiteStore) CreateMessage(ctx context.Context, channelID int64, senderID uuid.UUID, content string) (*models.Message, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (channel_id, sender_id, content)
		VALUES (?, ?, ?)
	`, channelID, senderID.String(), content)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	msg := &models.Message{}
	var senderStr string
	var deletedInt int
	err = s.db.QueryRowContext(ctx, `
		SELECT id, channel_id, sender_id, content, created_at, deleted
		FROM messages WHERE id = ?
	`, id).Scan(
		&msg.ID,
		&msg.ChannelID,
		&senderStr,
		&msg.Content,
		&msg.CreatedAt,
		&deletedInt,
	)
	if err != nil {
		return nil, err
	}
	msg.SenderID = uuid.MustParse(senderStr)
	msg.Deleted = deletedInt == 1
	return msg, nil
}

// ListChannelMessages retrieves a channel's messages, soft-deletes excluded,
// ascending by creation time.
func (s *SQLiteStore) ListChannelMessages(ctx context.Context, channelID int64) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, channel_id, sender_id, content, created_at, deleted
		FROM messages
		WHERE channel_id = ? AND deleted = 0
		ORDER BY created_at ASC, id ASC
	`, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		var senderStr string
		var deletedInt int
		err := rows.Scan(
			&msg.ID,
			&msg.ChannelID,
			&senderStr,
			&msg.Content,
			&msg.CreatedAt,
			&deletedInt,
		)
		if err != nil {
			return nil, err
		}
		msg.SenderID = uuid.MustParse(senderStr)
		msg.Deleted = deletedInt == 1
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// UpsertProfile creates or updates a profile row.
func (s *SQLiteStore) UpsertProfile(ctx context.Context, id uuid.UUID, fullName string, organizationID *int64) (*models.Profile, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, full_name, organization_id)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET full_name = excluded.full_name, organization_id = excluded.organization_id
	`, id.String(), fullName, organizationID)
	if err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, id)
}

// GetProfile retrieves a profile by ID.
func (s *SQLiteStore) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	p := &models.Profile{}
	var idStr string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, full_name, organization_id, created_at
		FROM profiles WHERE id = ?
	`, id.String()).Scan(
		&idStr,
		&p.FullName,
		&p.OrganizationID,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.ID = uuid.MustParse(idStr)
	return p, nil
}

// ResolveProfiles maps profile ids to display names. SQLite has no array
// binding, so lookups go one by one; dev-scale data only.
func (s *SQLiteStore) ResolveProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		var name string
		err := s.db.QueryRowContext(ctx, `
			SELECT full_name FROM profiles WHERE id = ?
		`, id.String()).Scan(&name)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, err
		}
		names[id] = name
	}
	return names, nil
}

// CreateOrganization creates an organization.
func (s *SQLiteStore) CreateOrganization(ctx context.Context, name, emailDomain string) (*models.Organization, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO organizations (name, email_domain) VALUES (?, ?)
	`, name, emailDomain)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetOrganization(ctx, id)
}

// GetOrganization retrieves an organization by ID.
func (s *SQLiteStore) GetOrganization(ctx context.Context, id int64) (*models.Organization, error) {
	org := &models.Organization{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email_domain, created_at
		FROM organizations WHERE id = ?
	`, id).Scan(
		&org.ID,
		&org.Name,
		&org.EmailDomain,
		&org.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return org, nil
}
