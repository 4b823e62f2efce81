package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"socialconnect/internal/middleware"

	"gorm.io/gorm"
)

// Migration is one versioned pair of Postgres scripts.
type Migration struct {
	Version    int
	Name       string
	UpScript   string
	DownScript string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

//go:embed migrations/*.sql
var migrationFS embed.FS

var migrations = mustLoadMigrations(migrationFS)

// loadMigrations reads NNNNNN_name.up.sql / .down.sql pairs from the
// migrations directory of fsys, ordered by version.
func loadMigrations(fsys fs.FS) ([]Migration, error) {
	ups, err := fs.Glob(fsys, "migrations/*.up.sql")
	if err != nil {
		return nil, err
	}

	seen := make(map[int]string, len(ups))
	out := make([]Migration, 0, len(ups))
	for _, file := range ups {
		base := strings.TrimSuffix(path.Base(file), ".up.sql")
		prefix, name, ok := strings.Cut(base, "_")
		if !ok || name == "" {
			return nil, fmt.Errorf("migration %s: expected NNNNNN_name.up.sql", file)
		}
		version, err := strconv.Atoi(prefix)
		if err != nil || version <= 0 {
			return nil, fmt.Errorf("migration %s: invalid version %q", file, prefix)
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration %s: version %d already used by %s", file, version, prev)
		}
		seen[version] = file

		up, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, err
		}
		down, err := fs.ReadFile(fsys, path.Join("migrations", base+".down.sql"))
		if err != nil {
			return nil, fmt.Errorf("migration %s: missing down script: %w", file, err)
		}
		out = append(out, Migration{Version: version, Name: name, UpScript: string(up), DownScript: string(down)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func mustLoadMigrations(fsys fs.FS) []Migration {
	set, err := loadMigrations(fsys)
	if err != nil {
		panic(fmt.Sprintf("embedded migrations: %v", err))
	}
	return set
}

// GetMigrations returns the embedded migrations in version order.
func GetMigrations() []Migration {
	return migrations
}

func GetMigrationByVersion(version int) *Migration {
	for i := range migrations {
		if migrations[i].Version == version {
			m := migrations[i]
			return &m
		}
	}
	return nil
}

// MigrationLog records one applied migration.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"not null"`
}

func (MigrationLog) TableName() string {
	return "migration_logs"
}

// Migrator applies a migration set and tracks it in migration_logs. Each
// script runs in the same transaction as its log row.
type Migrator struct {
	db  *gorm.DB
	set []Migration
}

func NewMigrator(db *gorm.DB, set []Migration) *Migrator {
	return &Migrator{db: db, set: set}
}

func (m *Migrator) ensureLog(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&MigrationLog{}); err != nil {
		return fmt.Errorf("ensure migration_logs: %w", err)
	}
	return nil
}

// Applied lists applied versions in ascending order.
func (m *Migrator) Applied(ctx context.Context) ([]int, error) {
	if err := m.ensureLog(ctx); err != nil {
		return nil, err
	}
	var versions []int
	if err := m.db.WithContext(ctx).Model(&MigrationLog{}).Order("version ASC").Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("read applied migrations: %w", err)
	}
	return versions, nil
}

// Pending lists the migrations that have not been applied yet.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateAppliedVersions(applied, m.set); err != nil {
		return nil, err
	}
	done := make(map[int]struct{}, len(applied))
	for _, v := range applied {
		done[v] = struct{}{}
	}
	var pending []Migration
	for _, mig := range m.set {
		if _, ok := done[mig.Version]; !ok {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// Up applies every pending migration in version order.
func (m *Migrator) Up(ctx context.Context) error {
	pending, err := m.Pending(ctx)
	if err != nil {
		return err
	}
	for _, mig := range pending {
		middleware.Logger.Info("Applying migration", slog.String("migration", mig.String()))
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.UpScript).Error; err != nil {
				return err
			}
			return tx.Create(&MigrationLog{Version: mig.Version, Name: mig.Name, AppliedAt: NowUTC()}).Error
		})
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", mig, err)
		}
	}
	return nil
}

// Down reverts version, which must be the most recently applied migration.
// Later tables reference earlier ones, so rollbacks happen newest first.
func (m *Migrator) Down(ctx context.Context, version int) error {
	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 || applied[len(applied)-1] != version {
		return fmt.Errorf("migration %d is not the latest applied migration (applied: %v)", version, applied)
	}

	var target *Migration
	for i := range m.set {
		if m.set[i].Version == version {
			target = &m.set[i]
		}
	}
	if target == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	middleware.Logger.Info("Rolling back migration", slog.String("migration", target.String()))
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(target.DownScript).Error; err != nil {
			return fmt.Errorf("roll back migration %s: %w", target, err)
		}
		return tx.Where("version = ?", version).Delete(&MigrationLog{}).Error
	})
}

func validateAppliedVersions(applied []int, registered []Migration) error {
	known := make(map[int]struct{}, len(registered))
	for _, m := range registered {
		known[m.Version] = struct{}{}
	}

	var unknown []string
	for _, version := range applied {
		if _, ok := known[version]; !ok {
			unknown = append(unknown, fmt.Sprintf("%06d", version))
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	return fmt.Errorf("migration_logs contains versions unknown to this build: %s", strings.Join(unknown, ", "))
}

// RunMigrations applies the embedded Postgres migrations.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	return NewMigrator(db, migrations).Up(ctx)
}

// RollbackMigration reverts the latest applied embedded migration.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	return NewMigrator(db, migrations).Down(ctx, version)
}
