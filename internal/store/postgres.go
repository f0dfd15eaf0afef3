package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/uniconnect/uniconnect/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateChannel creates a new channel.
func (s *PostgresStore) CreateChannel(ctx context.Context, p ChannelParams) (*models.Channel, error) {
	ch := &models.Channel{}
	var codeHash *string
	if p.JoinCodeHash != "" {
		codeHash = &p.JoinCodeHash
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO channels (name, description, type, scope, subject_name, organization_id, join_code_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, name, description, type, scope, subject_name, organization_id, created_at
	`, p.Name, p.Description, p.Type, p.Scope, p.SubjectName, p.OrganizationID, codeHash).Scan(
		&ch.ID,
		&ch.Name,
		&ch.Description,
		&ch.Type,
		&ch.Scope,
		&ch.SubjectName,
		&ch.OrganizationID,
		&ch.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// GetChannel retrieves a channel by ID.
func (s *PostgresStore) GetChannel(ctx context.Context, id int64) (*models.Channel, error) {
	ch := &models.Channel{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, description, type, scope, subject_name, organization_id, created_at
		FROM channels WHERE id = $1
	`, id).Scan(
		&ch.ID,
		&ch.Name,
		&ch.Description,
		&ch.Type,
		&ch.Scope,
		&ch.SubjectName,
		&ch.OrganizationID,
		&ch.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return ch, nil
}

// GetChannelJoinCodeHash retrieves the join code hash for a study group.
func (s *PostgresStore) GetChannelJoinCodeHash(ctx context.Context, id int64) (string, error) {
	var codeHash *string
	err := s.pool.QueryRow(ctx, `
		SELECT join_code_hash FROM channels WHERE id = $1
	`, id).Scan(&codeHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	if codeHash == nil {
		return "", nil
	}
	return *codeHash, nil
}

// ListChannels retrieves every channel ordered by name. Visibility filtering
// happens client-side against the caller's organization.
func (s *PostgresStore) ListChannels(ctx context.Context) ([]models.Channel, error) {
	rows, err := s.pool.Query(ctx, `
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
		var ch models.Channel
		err := rows.Scan(
			&ch.ID,
			&ch.Name,
			&ch.Description,
			&ch.Type,
			&ch.Scope,
			&ch.SubjectName,
			&ch.OrganizationID,
			&ch.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}

	return channels, rows.Err()
}

// JoinChannel records a membership. The unique constraint on
// (channel_id, user_id) makes this idempotent: a repeated join is a no-op and
// reports created = false.
func (s *PostgresStore) JoinChannel(ctx context.Context, channelID int64, userID uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO channel_members (channel_id, user_id, role)
		VALUES ($1, $2, 'member')
		ON CONFLICT (channel_id, user_id) DO NOTHING
	`, channelID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListJoinedChannelIDs returns the ids of every channel the user has joined.
func (s *PostgresStore) ListJoinedChannelIDs(ctx context.Context, userID uuid.UUID) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT channel_id FROM channel_members WHERE user_id = $1 ORDER BY channel_id
	`, userID)
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
func (s *PostgresStore) CountChannelMembers(ctx context.Context, channelID int64) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM channel_members WHERE channel_id = $1
	`, channelID).Scan(&count)
	return count, err
}

// CreateMessage inserts a message and returns it with the server-assigned id.
func (s *PostgresStore) CreateMessage(ctx context.Context, channelID int64, senderID uuid.UUID, content string) (*models.Message, error) {
	msg := &models.Message{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO messages (channel_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, channel_id, sender_id, content, created_at, deleted
	`, channelID, senderID, content).Scan(
		&msg.ID,
		&msg.ChannelID,
		&msg.SenderID,
		&msg.Content,
		&msg.CreatedAt,
		&msg.Deleted,
	)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ListChannelMessages retrieves a channel's messages, soft-deletes excluded,
// ascending by creation time.
func (s *PostgresStore) ListChannelMessages(ctx context.Context, channelID int64) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, channel_id, sender_id, content, created_at, deleted
		FROM messages
		WHERE channel_id = $1 AND deleted = FALSE
		ORDER BY created_at ASC, id ASC
	`, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.ID,
			&msg.ChannelID,
			&msg.SenderID,
			&msg.Content,
			&msg.CreatedAt,
			&msg.Deleted,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// UpsertProfile creates or updates a profile row.
func (s *PostgresStore) UpsertProfile(ctx context.Context, id uuid.UUID, fullName string, organizationID *int64) (*models.Profile, error) {
	p := &models.Profile{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO profiles (id, full_name, organization_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET full_name = $2, organization_id = $3
		RETURNING id, full_name, organization_id, created_at
	`, id, fullName, organizationID).Scan(
		&p.ID,
		&p.FullName,
		&p.OrganizationID,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetProfile retrieves a profile by ID.
func (s *PostgresStore) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	p := &models.Profile{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, full_name, organization_id, created_at
		FROM profiles WHERE id = $1
	`, id).Scan(
		&p.ID,
		&p.FullName,
		&p.OrganizationID,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// ResolveProfiles maps profile ids to display names in one query. Unknown ids
// are simply absent from the result.
func (s *PostgresStore) ResolveProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, full_name FROM profiles WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

// CreateOrganization creates an organization.
func (s *PostgresStore) CreateOrganization(ctx context.Context, name, emailDomain string) (*models.Organization, error) {
	org := &models.Organization{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO organizations (name, email_domain)
		VALUES ($1, $2)
		RETURNING id, name, email_domain, created_at
	`, name, emailDomain).Scan(
		&org.ID,
		&org.Name,
		&org.EmailDomain,
		&org.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return org, nil
}

// GetOrganization retrieves an organization by ID.
func (s *PostgresStore) GetOrganization(ctx context.Context, id int64) (*models.Organization, error) {
	org := &models.Organization{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, email_domain, created_at
		FROM organizations WHERE id = $1
	`, id).Scan(
		&org.ID,
		&org.Name,
		&org.EmailDomain,
		&org.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return org, nil
}
