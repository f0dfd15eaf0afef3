package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/uniconnect/uniconnect/internal/models"
)

// ChannelParams describes a channel to create. Seeding and tests use this;
// the chat core itself never creates channels.
type ChannelParams struct {
	Name           string
	Description    *string
	Type           models.ChannelType
	Scope          models.ChannelScope
	SubjectName    *string
	OrganizationID *int64
	JoinCodeHash   string // study groups only
}

// DataStore defines the interface for persistent storage of channels,
// memberships, messages, and profiles. Both PostgresStore and SQLiteStore
// implement this interface. Lookups return (nil, nil) when the row is absent.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// Channel operations
	CreateChannel(ctx context.Context, p ChannelParams) (*models.Channel, error)
	GetChannel(ctx context.Context, id int64) (*models.Channel, error)
	GetChannelJoinCodeHash(ctx context.Context, id int64) (string, error)
	ListChannels(ctx context.Context) ([]models.Channel, error)

	// Membership operations
	JoinChannel(ctx context.Context, channelID int64, userID uuid.UUID) (created bool, err error)
	ListJoinedChannelIDs(ctx context.Context, userID uuid.UUID) ([]int64, error)
	CountChannelMembers(ctx context.Context, channelID int64) (int64, error)

	// Message operations
	CreateMessage(ctx context.Context, channelID int64, senderID uuid.UUID, content string) (*models.Message, error)
	ListChannelMessages(ctx context.Context, channelID int64) ([]models.Message, error)

	// Profile operations
	UpsertProfile(ctx context.Context, id uuid.UUID, fullName string, organizationID *int64) (*models.Profile, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	ResolveProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)

	// Organization operations
	CreateOrganization(ctx context.Context, name, emailDomain string) (*models.Organization, error)
	GetOrganization(ctx context.Context, id int64) (*models.Organization, error)
}
