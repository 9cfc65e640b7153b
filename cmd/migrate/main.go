package main

import (
	"flag"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	path := flag.String("path", "migrations", "migrations directory")
	down := flag.Bool("down", false, "roll back instead of applying")
	flag.Parse()

	m, err := migrate.New("file://"+*path, os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatalf("migrate init: %v", err)
	}
	defer m.Close()

	if *down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if err != nil && err != migrate.ErrNoChange {
		log.Fatalf("migrate: %v", err)
	}
	if err == migrate.ErrNoChange {
		log.Println("no schema changes to apply")
		return
	}
	log.Println("migrations applied")
}
