package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/uniconnect/uniconnect/internal/models"
	"github.com/uniconnect/uniconnect/internal/store"
)

// Seeds a development database with one university, the standard channel set,
// and a couple of profiles so the chat client has something to show.
func main() {
	databaseURL := flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	sqlitePath := flag.String("sqlite", os.Getenv("SQLITE_PATH"), "SQLite path (used when -database-url is empty)")
	joinCode := flag.String("join-code", "algo-crew", "Join code for the seeded study group")
	flag.Parse()

	ctx := context.Background()

	var db store.DataStore
	if *databaseURL != "" {
		if err := store.RunMigrations(ctx, *databaseURL); err != nil {
			fatal("migration failed: %v", err)
		}
		pg, err := store.NewPostgresStore(ctx, *databaseURL)
		if err != nil {
			fatal("postgres connection failed: %v", err)
		}
		db = pg
	} else {
		path := *sqlitePath
		if path == "" {
			path = "uniconnect.db"
		}
		sq, err := store.NewSQLiteStore(ctx, path)
		if err != nil {
			fatal("sqlite open failed: %v", err)
		}
		db = sq
	}
	defer db.Close()

	org, err := db.CreateOrganization(ctx, "State University", "stateu.edu")
	if err != nil {
		fatal("create organization: %v", err)
	}
	fmt.Printf("organization %d: %s\n", org.ID, org.Name)

	codeHash, err := bcrypt.GenerateFromPassword([]byte(*joinCode), bcrypt.DefaultCost)
	if err != nil {
		fatal("hash join code: %v", err)
	}

	channels := []store.ChannelParams{
		{
			Name:           "State University Campus",
			Description:    ptr("Campus-wide chat for State University"),
			Type:           models.ChannelCampus,
			Scope:          models.ScopeCampus,
			OrganizationID: &org.ID,
		},
		{
			Name:           "Computer Science",
			Description:    ptr("All things CS"),
			Type:           models.ChannelSubject,
			Scope:          models.ScopeCampus,
			SubjectName:    ptr("Computer Science"),
			OrganizationID: &org.ID,
		},
		{
			Name:           "Mathematics",
			Description:    ptr("Proofs, problem sets, panic"),
			Type:           models.ChannelSubject,
			Scope:          models.ScopeCampus,
			SubjectName:    ptr("Mathematics"),
			OrganizationID: &org.ID,
		},
		{
			Name:        "Global Lounge",
			Description: ptr("Open to every campus"),
			Type:        models.ChannelGlobal,
			Scope:       models.ScopeGlobal,
		},
		{
			Name:         "Algorithms Study Crew",
			Description:  ptr("Invite-only study group"),
			Type:         models.ChannelStudyGroup,
			Scope:        models.ScopeGlobal,
			JoinCodeHash: string(codeHash),
		},
	}

	for _, p := range channels {
		ch, err := db.CreateChannel(ctx, p)
		if err != nil {
			fatal("create channel %q: %v", p.Name, err)
		}
		fmt.Printf("channel %d: %s (%s)\n", ch.ID, ch.Name, ch.Type)
	}

	profiles := []struct {
		name string
		org  *int64
	}{
		{"Alice Zhang", &org.ID},
		{"Bob Martinez", &org.ID},
		{"Priya Sharma", nil},
	}

	for _, p := range profiles {
		id := uuid.New()
		profile, err := db.UpsertProfile(ctx, id, p.name, p.org)
		if err != nil {
			fatal("create profile %q: %v", p.name, err)
		}
		fmt.Printf("profile %s: %s\n", profile.ID, profile.FullName)
	}

	fmt.Printf("study group join code: %s\n", *joinCode)
}

func ptr(s string) *string { return &s }

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
