package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bookfeed/crud"
	"bookfeed/http"
)

// main is the app's entry point.
func main() {
	// Check if the flag "-prod" has been provided. It means that we're running in production.
	productionBool := flag.Bool("prod", false, "Provide this flag in production to ensure that a .config.json file is provided before the application starts.")
	flag.Parse()

	// Load configuration from a .config.json file if present, otherwise use
	// the default dev setup, with environment variables on top of either.
	config := LoadConfig(*productionBool)

	// Console-friendly logs in development, plain json in production.
	if !config.IsProd() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Open a database connection and execute migrations.
	db := NewDB(config.Database.ConnectionInfo())
	err := Open(db, config.IsProd())
	must(err)
	defer Close(db)
	err = AutoMigrate(db)
	must(err)

	// Start the crud services.
	services, err := crud.NewServices(
		db.Gorm,
		crud.WithUser(config.HMACKey, config.Pepper),
		crud.WithBook(config.PageSize),
		crud.WithReview(config.PageSize),
		crud.WithFollow(),
		crud.WithImage(),
	)
	must(err)

	// Set up a webserver.
	server := http.NewServer(config.IsProd(), config.CSRFKey, services)

	// Serve the app.
	server.Run(config.Port)
}

// must is a little helper for shortening the panic instruction.
func must(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}
