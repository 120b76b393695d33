// Command tokengen mints a bearer token for the dispatch glue.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/spec-kit/ticket-bot/internal/auth"
	"github.com/spec-kit/ticket-bot/internal/config"
)

type options struct {
	service    string
	scopes     []auth.Scope
	ttlMinutes int
}

func parseFlags(args []string) (options, error) {
	flagSet := pflag.NewFlagSet("tokengen", pflag.ContinueOnError)
	service := flagSet.StringP("service", "s", "dispatch-glue", "name of the calling service")
	scopes := flagSet.StringSlice("scopes", nil, "comma separated scopes (default: all)")
	ttl := flagSet.Int("ttl-minutes", 0, "token lifetime in minutes (default: AUTH_ACCESS_TOKEN_TTL_MINUTES)")
	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	return options{service: *service, scopes: parseScopes(*scopes), ttlMinutes: *ttl}, nil
}

// parseScopes grants every scope when none are named.
func parseScopes(names []string) []auth.Scope {
	var granted []auth.Scope
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			granted = append(granted, auth.Scope(name))
		}
	}
	if len(granted) == 0 {
		return auth.AllScopes
	}
	return granted
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err == pflag.ErrHelp {
		return
	}
	if err != nil {
		log.Fatalf("invalid flags: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if opts.ttlMinutes <= 0 {
		opts.ttlMinutes = cfg.Auth.AccessTokenTTLMinutes
	}

	token, expiresAt, err := auth.NewTokenManager(cfg.Auth.JWTSecret, opts.ttlMinutes).GenerateToken(opts.service, opts.scopes)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Fprintln(os.Stdout, token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format("2006-01-02T15:04:05Z07:00"))
}
