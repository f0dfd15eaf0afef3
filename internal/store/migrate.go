package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// postgresSchema is applied on startup. Statements are idempotent so repeated
// boots are safe. The unique index on channel_members is what makes join
// idempotent server-side; the client-side known-joined set is only an
// optimization on top of it.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS organizations (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	email_domain TEXT UNIQUE NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS profiles (
	id UUID PRIMARY KEY,
	full_name TEXT NOT NULL DEFAULT '',
	organization_id BIGINT REFERENCES organizations(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS channels (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	type TEXT NOT NULL CHECK (type IN ('campus', 'subject', 'global', 'study_group')),
	scope TEXT NOT NULL CHECK (scope IN ('campus', 'global')),
	subject_name TEXT,
	organization_id BIGINT REFERENCES organizations(id),
	join_code_hash TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CHECK (scope <> 'campus' OR organization_id IS NOT NULL)
);

CREATE TABLE IF NOT EXISTS channel_members (
	channel_id BIGINT NOT NULL REFERENCES channels(id),
	user_id UUID NOT NULL REFERENCES profiles(id),
	role TEXT NOT NULL DEFAULT 'member',
	joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (channel_id, user_id)
);

CREATE TABLE IF NOT EXISTS messages (
	id BIGSERIAL PRIMARY KEY,
	channel_id BIGINT NOT NULL REFERENCES channels(id),
	sender_id UUID NOT NULL REFERENCES profiles(id),
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_channels_organization ON channels(organization_id);
CREATE INDEX IF NOT EXISTS idx_channel_members_user ON channel_members(user_id);
CREATE INDEX IF NOT EXISTS idx_messages_channel_created ON messages(channel_id, created_at) WHERE deleted = FALSE;
`

// RunMigrations creates the schema against a PostgreSQL database.
func RunMigrations(ctx context.Context, databaseURL string) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, postgresSchema)
	return err
}
