// Command generate_demo creates a demo database with sample reading lists.
// Usage: go run cmd/generate_demo/main.go [-db path/to/demo.db]
package main

import (
	"flag"
	"log"
	"os"

	"github.com/mrlokans/readinglists/internal/config"
	"github.com/mrlokans/readinglists/internal/database"
	"github.com/mrlokans/readinglists/internal/entities"
	"github.com/mrlokans/readinglists/internal/readinglists"
	"github.com/mrlokans/readinglists/internal/remote"
	"github.com/mrlokans/readinglists/internal/utils"
)

const defaultDemoDatabasePath = "./demo/demo.db"

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	log.Printf("Generating demo database at %s...", *dbPath)

	// Delete existing demo database to start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing demo database: %v", err)
	}

	// Create database at demo path
	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	// Sync stays disabled, so the client is never called
	cfg := config.NewConfig()
	controller := readinglists.NewController(readinglists.Options{
		DB:  db.DB,
		API: remote.NewClient(remote.Options{BaseURL: cfg.Remote.BaseURL}),
	})
	defer controller.Shutdown()

	for _, demo := range getDemoLists() {
		var description *string
		if demo.Description != "" {
			description = &demo.Description
		}
		list, err := controller.CreateReadingList(demo.Name, description, articles(demo.Project, demo.Titles))
		if err != nil {
			log.Printf("Failed to create list %s: %v", demo.Name, err)
			continue
		}
		log.Printf("Saved: %s (%d entries)", list.Name, len(demo.Titles))
	}

	// Save a few articles to the default list
	for _, article := range articles("en.wikipedia.org", []string{"Alan_Turing", "Ada_Lovelace"}) {
		if _, err := controller.UserSave(article); err != nil {
			log.Printf("Failed to save %s: %v", article.DisplayTitle, err)
		}
	}

	log.Println("Demo database generated successfully!")
}

// DemoList describes one sample list and the titles it holds.
type DemoList struct {
	Name        string
	Description string
	Project     string
	Titles      []string
}

func getDemoLists() []DemoList {
	return []DemoList{
		{
			Name:        "Stoics",
			Description: "Philosophers of the Stoa",
			Project:     "en.wikipedia.org",
			Titles:      []string{"Marcus_Aurelius", "Seneca_the_Younger", "Epictetus", "Zeno_of_Citium"},
		},
		{
			Name:    "Trip to Lisbon",
			Project: "en.wikipedia.org",
			Titles:  []string{"Lisbon", "Belém_Tower", "Jerónimos_Monastery", "Sintra"},
		},
		{
			Name:        "Physik",
			Description: "Artikel auf Deutsch",
			Project:     "de.wikipedia.org",
			Titles:      []string{"Quantenmechanik", "Relativitätstheorie"},
		},
	}
}

func articles(project string, titles []string) []entities.Article {
	result := make([]entities.Article, 0, len(titles))
	for _, title := range titles {
		result = append(result, entities.Article{
			Key:          utils.ArticleKey(project, title),
			DisplayTitle: utils.DisplayTitle(title),
		})
	}
	return result
}
