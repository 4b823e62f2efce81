// Command migrate applies, inspects and reverts the socialconnect schema.
//
//	migrate up            apply pending SQL migrations
//	migrate auto          run GORM AutoMigrate (development only)
//	migrate status        list applied and pending migrations
//	migrate down [N]      revert migration N, or the latest one
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"text/tabwriter"

	"socialconnect/internal/config"
	"socialconnect/internal/database"

	"gorm.io/gorm"
)

var errUsage = errors.New("usage: migrate <up|auto|status|down> [version]")

func main() {
	flag.Parse()
	if err := run(context.Background(), flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	switch args[0] {
	case "up":
		return database.RunMigrations(ctx, db)
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		return database.ApplySchema(ctx, db, cfg)
	case "status":
		return printStatus(ctx, db, cfg)
	case "down":
		return down(ctx, db, args[1:])
	default:
		return errUsage
	}
}

func down(ctx context.Context, db *gorm.DB, args []string) error {
	migrator := database.NewMigrator(db, database.GetMigrations())
	if len(args) > 0 {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		return migrator.Down(ctx, version)
	}

	applied, err := migrator.Applied(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		return errors.New("no migrations applied")
	}
	return migrator.Down(ctx, applied[len(applied)-1])
}

func printStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	status, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "mode\t%s\n", status.Mode)
	fmt.Fprintf(w, "env\t%s\n", status.Environment)
	fmt.Fprintf(w, "sql migrations\t%t\n", status.WillRunSQL)
	fmt.Fprintf(w, "auto migrate\t%t\n", status.WillRunAutoMigrate)
	fmt.Fprintf(w, "applied\t%v\n", status.AppliedVersions)
	for _, m := range status.PendingMigrations {
		fmt.Fprintf(w, "pending\t%s\n", m)
	}
	return w.Flush()
}
