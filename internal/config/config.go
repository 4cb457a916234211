package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config параметры запуска сервиса
type Config struct {
	Port       string
	DBPath     string
	UploadsDir string
}

// Load читает .env, если он есть, и собирает конфигурацию из окружения
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment variables")
	}
	return Config{
		Port:       getenv("PORT", "4000"),
		DBPath:     getenv("BARKEEP_DB", "drinks.db"),
		UploadsDir: getenv("BARKEEP_UPLOADS", "uploads"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
