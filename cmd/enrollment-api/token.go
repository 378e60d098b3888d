package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/service"
	"github.com/noah-isme/enrollment-api/pkg/config"
)

var errTokenInProduction = errors.New("token command is disabled in production")

// runTokenCommand mints an access token signed with the configured secret for
// local development, e.g. `enrollment-api token -user stu-1 -role STUDENT`.
func runTokenCommand(cfg *config.Config, args []string, out io.Writer) error {
	if cfg.Env == config.EnvProduction {
		return errTokenInProduction
	}

	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(out)
	userID := fs.String("user", "", "user or student ID placed in the token")
	role := fs.String("role", string(models.RoleStudent), "ADMIN, REGISTRAR or STUDENT")
	name := fs.String("name", "", "full name claim")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userID == "" {
		return errors.New("-user is required")
	}

	userRole := models.UserRole(strings.ToUpper(*role))
	switch userRole {
	case models.RoleAdmin, models.RoleRegistrar, models.RoleStudent:
	default:
		return fmt.Errorf("unknown role %q", *role)
	}

	tokens := service.NewTokenService(service.TokenConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		Expiry:   *ttl,
	})
	token, expiresAt, err := tokens.Issue(*userID, userRole, *name)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\nexpires_at=%s\n", token, expiresAt.UTC().Format(time.RFC3339))
	return err
}
