// Command devtoken prints a bearer token for local development, signed with
// JWT_SECRET the same way the server verifies it when no Firebase project is
// configured.
//
//	JWT_SECRET=... go run ./cmd/devtoken -email admin@example.com
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sakif/scholar-stream/internal/auth"
)

func main() {
	email := flag.String("email", "", "email claim (required)")
	uid := flag.String("uid", "", "subject claim; defaults to the email")
	ttl := flag.Duration("ttl", auth.DefaultTokenLifetime, "token lifetime")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "devtoken: -email is required")
		flag.Usage()
		os.Exit(2)
	}
	if *uid == "" {
		*uid = *email
	}

	tokens, err := auth.NewTokenService(os.Getenv("JWT_SECRET"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "devtoken:", err)
		os.Exit(1)
	}

	token, err := tokens.GenerateWithDuration(*email, *uid, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "devtoken:", err)
		os.Exit(1)
	}
	fmt.Println(token)
	if *ttl > 24*time.Hour {
		fmt.Fprintln(os.Stderr, "devtoken: warning, long-lived token")
	}
}
