package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"library-system/pkg/database"
	"library-system/pkg/handlers"
	"library-system/pkg/models"
)

func main() {
	log.Println("Starting library service...")

	db, err := database.Init()
	if err != nil {
		log.Fatalf("Database init failed: %v", err)
	}

	handler := handlers.New(db)

	if err := handler.Auth().PurgeExpired(); err != nil {
		log.Printf("Failed to purge expired sessions: %v", err)
	}

	adminUsername := getEnv("ADMIN_USERNAME", "admin")
	adminPassword := getEnv("ADMIN_PASSWORD", "admin123")
	if err := handler.Auth().SeedAdmin(adminUsername, adminPassword); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}
	log.Printf("Admin user ready: %s", adminUsername)

	if getEnv("SEED_SAMPLE_DATA", "false") == "true" {
		seedSampleBooks(db)
	}

	server := gin.Default()
	handler.RegisterRoutes(server)

	port := getEnv("SERVER_PORT", "8099")
	log.Printf("Library service starting on :%s", port)
	if err := server.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func seedSampleBooks(db *gorm.DB) {
	sampleBooks := []models.Book{
		{Title: "Dune", Author: "Frank Herbert", ISBN: "978-0441172719"},
		{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", ISBN: "978-0441478125"},
		{Title: "Foundation", Author: "Isaac Asimov", ISBN: "978-0553293357"},
	}

	for _, book := range sampleBooks {
		var existing models.Book
		if err := db.Where("title = ? AND author = ?", book.Title, book.Author).First(&existing).Error; err != nil {
			book.BookUid = uuid.New().String()
			book.Status = models.BookAvailable
			if err := db.Create(&book).Error; err != nil {
				log.Printf("Failed to create sample book %s: %v", book.Title, err)
			}
		}
	}
	log.Println("Sample books seeded")
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
