package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/snowflakedb/gosnowflake"
)

// SnowflakeConfig holds warehouse connection parameters
type SnowflakeConfig struct {
	Account   string
	User      string
	Password  string
	Warehouse string
	Database  string
	Schema    string
	Host      string
	Port      int
	// TokenFile switches to OAuth when present (container services)
	TokenFile string
}

// sessionKeepAlive is the session parameter that keeps idle sessions from expiring
const sessionKeepAlive = "client_session_keep_alive"

// OpenSnowflake opens and pings a Snowflake connection pool
func OpenSnowflake(ctx context.Context, cfg SnowflakeConfig) (*sql.DB, error) {
	token, err := readToken(cfg.TokenFile)
	if err != nil {
		return nil, err
	}
	dsnCfg := driverConfig(cfg, token)

	dsn, err := gosnowflake.DSN(dsnCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build snowflake DSN: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snowflake: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to snowflake: %w", err)
	}
	return db, nil
}

// driverConfig uses OAuth with the given token, or user/password when it is empty
func driverConfig(cfg SnowflakeConfig, token string) *gosnowflake.Config {
	keepAlive := "true"
	dsnCfg := &gosnowflake.Config{
		Account:   cfg.Account,
		Warehouse: cfg.Warehouse,
		Database:  cfg.Database,
		Schema:    cfg.Schema,
		Params:    map[string]*string{sessionKeepAlive: &keepAlive},
	}

	if token != "" {
		dsnCfg.Host = cfg.Host
		dsnCfg.Port = cfg.Port
		dsnCfg.Protocol = "https"
		dsnCfg.Authenticator = gosnowflake.AuthTypeOAuth
		dsnCfg.Token = token
	} else {
		dsnCfg.User = cfg.User
		dsnCfg.Password = cfg.Password
	}
	return dsnCfg
}

func readToken(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read snowflake token: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
