package config

import (
	"os"
	"strconv"
)

type Config struct {
	HTTPAddr    string
	ServiceName string
	Env         string
	// TreasuryAccount is the workflow engine's own identity: it receives
	// order payments and acts against the catalog when decrementing stock.
	TreasuryAccount string
	// AdminAccount is granted PRODUCT on the catalog at startup so the seed
	// products can be registered.
	AdminAccount string
	SeedCatalog  bool
}

func Load() Config {
	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		ServiceName:     getenv("SERVICE_NAME", "fulfillment"),
		Env:             getenv("ENV", "dev"),
		TreasuryAccount: getenv("TREASURY_ACCOUNT", "treasury"),
		AdminAccount:    getenv("ADMIN_ACCOUNT", "admin"),
		SeedCatalog:     getenvBool("SEED_CATALOG", true),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
