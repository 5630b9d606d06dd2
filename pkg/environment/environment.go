package environment

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
)

// Production defines the prod environment
const Production = "prod"

// Dev defines the dev environment
const Dev = "dev"

// Environment holds the applications configuration read from a .env file
type Environment struct {
	Environment   string `mapstructure:"APP_ENV"`
	Port          string `mapstructure:"PORT"`
	Cors          string `mapstructure:"CORS"`
	Database      string `mapstructure:"DATABASE"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	Redis         string `mapstructure:"REDIS"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
}

// Global is the environment the application runs in
var Global Environment

// Initialize reads the .env file into Global; missing file falls back to defaults
func Initialize() {
	Global = Environment{
		Environment: Dev,
		Port:        "8080",
		Database:    "tasktracker",
		DatabaseURL: "mongodb://localhost:27017",
	}

	data, err := godotenv.Read(".env")
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		panic(err)
	}

	err = mapstructure.Decode(data, &Global)
	if err != nil {
		panic(err)
	}
}
