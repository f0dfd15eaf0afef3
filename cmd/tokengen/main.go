package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/uniconnect/uniconnect/internal/auth"
)

func main() {
	secret := flag.String("secret", "uniconnect-dev-secret", "JWT signing secret (must match the server's JWT_SECRET)")
	userIDStr := flag.String("user", "", "User UUID (random if omitted)")
	email := flag.String("email", "student@example.edu", "Email claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	userID := uuid.New()
	if *userIDStr != "" {
		var err error
		userID, err = uuid.Parse(*userIDStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid user UUID: %v\n", err)
			os.Exit(1)
		}
	}

	token, err := auth.Sign([]byte(*secret), userID, *email, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("User ID: %s\n", userID)
	fmt.Printf("Token:   %s\n", token)
}
