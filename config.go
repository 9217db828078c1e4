package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Port     int            `json:"port" env:"PORT"`
	Env      string         `json:"env" env:"ENV"`
	Pepper   string         `json:"pepper" env:"PEPPER"`
	HMACKey  string         `json:"hmac_key" env:"HMAC_KEY"`
	CSRFKey  string         `json:"csrf_key" env:"CSRF_KEY"`
	PageSize int            `json:"page_size" env:"PAGE_SIZE"`
	Database PostgresConfig `json:"database"`
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

type PostgresConfig struct {
	Host     string `json:"host" env:"DB_HOST"`
	Port     int    `json:"port" env:"DB_PORT"`
	User     string `json:"user" env:"DB_USER"`
	Password string `json:"password" env:"DB_PASSWORD"`
	Name     string `json:"name" env:"DB_NAME"`
}

func (pc PostgresConfig) Dialect() string {
	return "postgres"
}

func (pc PostgresConfig) ConnectionInfo() string {
	if pc.Password == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable", pc.Host, pc.Port, pc.User, pc.Name)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", pc.Host, pc.Port, pc.User, pc.Password, pc.Name)
}

func DefaultConfig() Config {
	return Config{
		Port:     1111,
		Env:      "dev",
		Pepper:   "secret-random-string",
		HMACKey:  "secret-hmac-key",
		CSRFKey:  "32-byte-long-auth-key-change-me!",
		PageSize: 10,
		Database: DefaultPostgresConfig(),
	}
}

func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "",
		Name:     "bookfeed",
	}
}

// LoadConfig assembles the app configuration: dev defaults, overlaid with a
// .config.json file if one is present, overlaid with environment variables.
// In production the file is required and the app refuses to start without it.
func LoadConfig(isProd bool) Config {
	c := DefaultConfig()
	f, err := os.Open(".config.json")
	if err != nil {
		if isProd {
			panic("a .config.json file is required in production")
		}
	} else {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(&c); err != nil {
			panic(err)
		}
		fmt.Println("Successfully loaded .config.json")
	}
	if err := env.Parse(&c); err != nil {
		panic(err)
	}
	return c
}
