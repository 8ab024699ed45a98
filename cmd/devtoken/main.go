// devtoken mints bearer tokens for local testing against a server that
// shares JWT_SECRET.  Production tokens come from the identity provider.
//
//	devtoken --party p-1 --role PASSENGER --ttl 2h
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/utils"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	_ = godotenv.Load()

	var (
		party  string
		role   string
		secret string
		ttl    time.Duration
		header bool
	)
	flagSet := pflag.NewFlagSet("devtoken", pflag.ContinueOnError)
	flagSet.StringVar(&party, "party", "", "party id placed in the sub claim (required)")
	flagSet.StringVar(&role, "role", model.RolePassenger, "PASSENGER, OPERATOR or ADMIN")
	flagSet.StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "signing secret (default $JWT_SECRET)")
	flagSet.DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	flagSet.BoolVar(&header, "header", false, "print as an Authorization header")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	role = strings.ToUpper(role)
	switch {
	case party == "":
		return fmt.Errorf("--party is required")
	case secret == "":
		return fmt.Errorf("no secret: set JWT_SECRET or pass --secret")
	case role != model.RolePassenger && role != model.RoleOperator && role != model.RoleAdmin:
		return fmt.Errorf("unknown role %q", role)
	}

	tok, err := utils.NewAccessToken(secret, party, role, ttl)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	if header {
		fmt.Printf("Authorization: Bearer %s\n", tok.Token)
		return nil
	}
	fmt.Println(tok.Token)
	return nil
}
