// Command conti-token mints a bearer token for an owner, signed with the
// same JWT_SECRET the API verifies with.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"conti/internal/cli"
	"conti/internal/log"
	"conti/internal/middleware/auth"
)

func main() {
	owner := flag.String("owner", "", "owner the token identifies (JWT subject)")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentAuth)

	if *owner == "" {
		logger.Error("missing -owner")
		flag.Usage()
		os.Exit(2)
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Error("JWT_SECRET is not set")
		os.Exit(1)
	}
	if *ttl <= 0 {
		logger.Error("ttl must be positive", "ttl", *ttl)
		os.Exit(2)
	}

	token, err := auth.SignToken([]byte(secret), *owner, *ttl)
	if err != nil {
		logger.Error("Failed to sign token", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Token issued", log.FieldOwner, *owner, "expires_at", time.Now().Add(*ttl).Format(time.RFC3339))
	fmt.Println(token)
}
