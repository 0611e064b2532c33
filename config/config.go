package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI       string
	DatabaseName   string
	Port           string
	LocationAPIKey string
	JWTSecret      string
	UploadDir      string
}

// Load reads configuration from a .env file, if present, and the
// process environment. Missing database credentials are not validated
// here; the driver reports its own connect error.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from the environment.")
	}

	return Config{
		MongoURI:       mongoURI(),
		DatabaseName:   getEnv("DB_NAME", "places"),
		Port:           getEnv("PORT", "8000"),
		LocationAPIKey: os.Getenv("LOCATION_API_KEY"),
		JWTSecret:      getEnv("JWT_SECRET", "supersecret_dont_share"),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads/images"),
	}
}

func mongoURI() string {
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		return uri
	}

	host := getEnv("DB_HOST", "localhost:27017")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	if user != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s", user, password, host)
	}
	return "mongodb://" + host
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
