// Command server runs the club board API.
//
//	server [--config config.yaml] serve     start HTTP (default)
//	server [--config config.yaml] migrate   create or upgrade the schema and exit
//	server [--config config.yaml] seed      load demo clubs and exit
//
// Settings come from the YAML file, then .env, then the process
// environment; see internal/config.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/sakif/clubboard/internal/auth"
	"github.com/sakif/clubboard/internal/config"
	sqliteRepo "github.com/sakif/clubboard/internal/repository/sqlite"
	"github.com/sakif/clubboard/internal/seed"
	"github.com/sakif/clubboard/internal/server"
)

func main() {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
		os.Exit(1)
	}

	app := &cli.App{
		Name:  "clubboard",
		Usage: "club and event recruiting API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config file",
				Value:   "config.yaml",
				EnvVars: []string{"CONFIG_FILE"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create or upgrade the database schema",
				Action: migrate,
			},
			{
				Name:   "seed",
				Usage:  "load the demo clubs and the admin account",
				Action: seedData,
			},
		},
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "clubboard: %v\n", err)
		os.Exit(1)
	}
}

func load(c *cli.Context) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	return cfg, cfg.NewLogger(), nil
}

func serve(c *cli.Context) error {
	cfg, logger, err := load(c)
	if err != nil {
		return err
	}

	db, err := server.OpenDB(cfg.Database.Path)
	if err != nil {
		return err
	}

	if cfg.Seed.OnStart {
		if err := runSeed(c, cfg, db, logger); err != nil {
			db.Close()
			return err
		}
	} else if err := ensureAdmin(c, cfg, db, logger); err != nil {
		db.Close()
		return err
	}

	srv, err := server.New(cfg, db, logger)
	if err != nil {
		db.Close()
		return fmt.Errorf("creating server: %w", err)
	}
	// Start blocks until SIGINT/SIGTERM and closes db on the way out.
	return srv.Start()
}

func migrate(c *cli.Context) error {
	cfg, logger, err := load(c)
	if err != nil {
		return err
	}
	db, err := server.OpenDB(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("schema up to date", slog.String("database", cfg.Database.Path))
	return nil
}

func seedData(c *cli.Context) error {
	cfg, logger, err := load(c)
	if err != nil {
		return err
	}
	db, err := server.OpenDB(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	return runSeed(c, cfg, db, logger)
}

func newSeeder(cfg *config.Config, db *sqliteRepo.DB, logger *slog.Logger) *seed.Seeder {
	return seed.New(db.Clubs(), db.Users(), auth.NewPasswordService(cfg.Auth.BcryptCost), logger)
}

func runSeed(c *cli.Context, cfg *config.Config, db *sqliteRepo.DB, logger *slog.Logger) error {
	res, err := newSeeder(cfg, db, logger).Run(c.Context, seed.DemoClubs)
	if err != nil {
		return err
	}
	logger.Info("seed finished",
		slog.Int("clubs_created", res.ClubsCreated),
		slog.Int("clubs_skipped", res.ClubsSkipped),
		slog.Int("users_created", res.UsersCreated),
		slog.Int("users_skipped", res.UsersSkipped),
	)
	return ensureAdmin(c, cfg, db, logger)
}

func ensureAdmin(c *cli.Context, cfg *config.Config, db *sqliteRepo.DB, logger *slog.Logger) error {
	_, err := newSeeder(cfg, db, logger).EnsureAdmin(c.Context, seed.Admin{
		Username: cfg.Seed.AdminUsername,
		Password: cfg.Seed.AdminPassword,
	})
	return err
}
