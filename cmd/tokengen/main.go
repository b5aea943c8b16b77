// Command tokengen issues a bearer token for a ledger caller address,
// signed with the same JWT settings the API server loads.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"schnl-ledger/config"
	"schnl-ledger/internal/adapter/http/dto"
	"schnl-ledger/internal/core/domain"
	"schnl-ledger/internal/service"
)

func main() {
	configPath := flag.String("config", os.Getenv("SCHNL_CONFIG"), "config file (optional)")
	caller := flag.String("caller", "", "caller address (0x-prefixed, 20 bytes)")
	secret := flag.String("secret", "", "JWT secret (defaults to jwt.secret from config)")
	expiry := flag.Duration("expiry", 0, "token lifetime (defaults to jwt.expiry from config)")
	flag.Parse()

	if err := run(*configPath, *caller, *secret, *expiry); err != nil {
		fmt.Fprintf(os.Stderr, "tokengen: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, rawCaller, secret string, expiry time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	addr, err := domain.ParseAddress(rawCaller)
	if err != nil {
		return fmt.Errorf("caller: %w", err)
	}
	if secret == "" {
		secret = cfg.JWT.Secret
	}
	if secret == "" {
		return errors.New("no secret: pass -secret or set SCHNL_JWT_SECRET")
	}
	lifetime := cfg.JWT.Expiry
	if expiry > 0 {
		lifetime = expiry
	}

	token, exp, err := service.NewJWTTokenService(secret, lifetime, cfg.JWT.Issuer).Generate(addr)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(dto.TokenResponse{Token: token, Expiry: exp.Unix()})
}
