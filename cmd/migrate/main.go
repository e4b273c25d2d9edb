package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/dosreb/planlibrary/internal/pkg/database"
	"github.com/dosreb/planlibrary/internal/pkg/env"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	// Lade Umgebungsvariablen aus .env-Datei
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	cfg := database.LoadConfig()
	source := "file://" + env.GetEnv("MIGRATIONS_PATH", "migrations")

	log.Printf("Verbinde mit Datenbank: %s@%s:%s/%s", cfg.User, cfg.Host, cfg.Port, cfg.Name)

	m, err := migrate.New(source, cfg.MigrationURL())
	if err != nil {
		log.Fatalf("Fehler beim Initialisieren der Migration: %v", err)
	}

	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			log.Printf("Fehler beim Schließen der Migrationsressourcen: %v, %v", sourceErr, dbErr)
		}
	}()

	switch command {
	case "up":
		err := m.Up()
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			log.Println("Keine Änderungen: Datenbank ist bereits auf dem neuesten Stand")
		case err != nil:
			log.Fatalf("Fehler beim Ausführen der Migrationen: %v", err)
		default:
			log.Println("Migrationen erfolgreich ausgeführt")
		}

	case "down":
		// Letzte Migration zurückrollen
		if err := m.Steps(-1); err != nil {
			log.Fatalf("Fehler beim Zurückrollen der letzten Migration: %v", err)
		}
		log.Println("Letzte Migration erfolgreich zurückgerollt")

	case "goto":
		if len(os.Args) < 3 {
			log.Fatalf("Bitte geben Sie eine Versionsnummer an")
		}
		version, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil {
			log.Fatalf("Ungültige Versionsnummer: %v", err)
		}

		err = m.Migrate(uint(version))
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			log.Printf("Keine Änderungen: Datenbank ist bereits auf Version %d", version)
		case err != nil:
			log.Fatalf("Fehler beim Migrieren zur Version %d: %v", version, err)
		default:
			log.Printf("Migration zur Version %d erfolgreich", version)
		}

	case "status":
		version, dirty, err := m.Version()
		switch {
		case errors.Is(err, migrate.ErrNilVersion):
			log.Println("Keine Migrationen wurden bisher ausgeführt")
		case err != nil:
			log.Fatalf("Fehler beim Abrufen der Migrationsversion: %v", err)
		default:
			dirtyStatus := ""
			if dirty {
				dirtyStatus = " (dirty)"
			}
			log.Printf("Aktuelle Migrationsversion: %d%s", version, dirtyStatus)
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Verwendung: go run ./cmd/migrate [command]")
	fmt.Println("Verfügbare Befehle:")
	fmt.Println("  up     - Führe alle ausstehenden Migrationen aus")
	fmt.Println("  down   - Rolle die letzte Migration zurück")
	fmt.Println("  goto N - Migriere zur Version N")
	fmt.Println("  status - Zeige aktuelle Migrationsversion an")
}
