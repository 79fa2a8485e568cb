package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	ServerPort string

	AgentEndpoint string
	GithubAPIURL  string
	GithubToken   string
}

func LoadConfig() (Config, error) {

	err := godotenv.Load()

	return Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "pr_grading"),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		AgentEndpoint: getEnv("AGENT_ENDPOINT", "http://localhost:8000"),
		GithubAPIURL:  getEnv("GITHUB_API_URL", "https://api.github.com"),
		GithubToken:   getEnv("GITHUB_TOKEN", ""),
	}, err
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
