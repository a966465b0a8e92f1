// Package sqlstore implements store.Store on gorm, backed by SQLite or MySQL.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/balkashynov/tally/internal/models"
	"github.com/balkashynov/tally/internal/store"
)

// Store manages all database operations through gorm.
type Store struct {
	db *gorm.DB
}

var (
	_ store.Store      = (*Store)(nil)
	_ store.Transactor = (*Store)(nil)
)

// Options controls how the connection is opened.
type Options struct {
	// LogSQL traces every statement through Logger.
	LogSQL bool
	Logger *slog.Logger
}

// MySQLConfig describes a MySQL server. DSN, when set, wins over the other fields.
type MySQLConfig struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// OpenSQLite opens (or creates) the SQLite database at path and runs migrations.
func OpenSQLite(path string, opts Options) (*Store, error) {
	if path != ":memory:" {
		// Ensure the directory exists
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	return open(sqlite.Open(dsn), opts)
}

// OpenMySQL connects to MySQL and runs migrations.
func OpenMySQL(cfg MySQLConfig, opts Options) (*Store, error) {
	dsn := cfg.DSN
	if dsn == "" {
		if cfg.Database == "" {
			return nil, errors.New("mysql: database name is required")
		}
		mc := gomysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		mc.DBName = cfg.Database
		mc.ParseTime = true
		mc.Loc = time.UTC
		dsn = mc.FormatDSN()
	}
	return open(mysql.Open(dsn), opts)
}

func open(dialector gorm.Dialector, opts Options) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogger(opts),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// newLogger keeps gorm quiet unless SQL tracing was asked for.
func newLogger(opts Options) logger.Interface {
	if !opts.LogSQL || opts.Logger == nil {
		return logger.Default.LogMode(logger.Silent)
	}
	return logger.NewSlogLogger(opts.Logger, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Info,
		IgnoreRecordNotFoundError: true,
	})
}

// migrate creates/updates the database schema
func (s *Store) migrate() error {
	if err := s.db.AutoMigrate(
		&models.Client{},
		&models.Project{},
		&models.Interval{},
	); err != nil {
		return err
	}

	// SQLite can enforce one running interval per project; MySQL has no
	// partial indexes so the engine's check-then-act is all it gets.
	if s.db.Dialector.Name() == "sqlite" {
		return s.db.Exec(
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_intervals_one_running
			 ON intervals(project_id) WHERE is_running = 1`,
		).Error
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InTx runs fn inside a database transaction.
func (s *Store) InTx(ctx context.Context, fn func(store.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// ---------------------------------------------------------------------------
// Intervals
// ---------------------------------------------------------------------------

func (s *Store) InsertInterval(ctx context.Context, iv *models.Interval) (*models.Interval, error) {
	rec := *iv
	rec.ID = 0
	rec.StartTime = rec.StartTime.UTC()
	if rec.EndTime != nil {
		t := rec.EndTime.UTC()
		rec.EndTime = &t
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, err
	}
	return s.getInterval(ctx, rec.ID)
}

func (s *Store) UpdateInterval(ctx context.Context, id uint, patch models.IntervalPatch) (*models.Interval, error) {
	if _, err := s.getInterval(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if patch.StartTime != nil {
		updates[store.FieldStartTime] = patch.StartTime.UTC()
	}
	if patch.EndTime != nil {
		updates[store.FieldEndTime] = patch.EndTime.UTC()
	}
	if patch.DurationSeconds != nil {
		updates[store.FieldDurationSeconds] = *patch.DurationSeconds
	}
	if patch.IsRunning != nil {
		updates[store.FieldIsRunning] = *patch.IsRunning
	}
	if patch.Notes != nil {
		if *patch.Notes == "" {
			updates["notes"] = nil
		} else {
			updates["notes"] = *patch.Notes
		}
	}

	if len(updates) > 0 {
		err := s.db.WithContext(ctx).
			Model(&models.Interval{}).
			Where("id = ?", id).
			Updates(updates).Error
		if err != nil {
			return nil, err
		}
	}
	return s.getInterval(ctx, id)
}

func (s *Store) DeleteInterval(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Interval{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) FindInterval(ctx context.Context, q store.Query) (*models.Interval, error) {
	rows, err := s.ListIntervals(ctx, q.Take(1))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil // No rows is not an error
	}
	return &rows[0], nil
}

func (s *Store) ListIntervals(ctx context.Context, q store.Query) ([]models.Interval, error) {
	tx, err := applyQuery(s.db.WithContext(ctx).Model(&models.Interval{}), q)
	if err != nil {
		return nil, err
	}
	intervals := []models.Interval{}
	if err := tx.Find(&intervals).Error; err != nil {
		return nil, err
	}
	return intervals, nil
}

func (s *Store) getInterval(ctx context.Context, id uint) (*models.Interval, error) {
	var iv models.Interval
	err := s.db.WithContext(ctx).First(&iv, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &iv, nil
}

// applyQuery translates q into WHERE/ORDER/LIMIT clauses. Field names are
// checked against the known columns before they reach SQL.
func applyQuery(tx *gorm.DB, q store.Query) (*gorm.DB, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	for _, f := range q.Filters {
		col := clause.Column{Name: f.Field}
		value := f.Value
		if t, ok := value.(time.Time); ok {
			value = t.UTC()
		}
		switch f.Op {
		case store.Eq:
			tx = tx.Where(clause.Eq{Column: col, Value: value})
		case store.Gt:
			tx = tx.Where(clause.Gt{Column: col, Value: value})
		case store.Gte:
			tx = tx.Where(clause.Gte{Column: col, Value: value})
		case store.Lt:
			tx = tx.Where(clause.Lt{Column: col, Value: value})
		case store.Lte:
			tx = tx.Where(clause.Lte{Column: col, Value: value})
		case store.IsNull:
			tx = tx.Where(clause.Eq{Column: col, Value: nil})
		case store.NotNull:
			tx = tx.Where(clause.Neq{Column: col, Value: nil})
		}
	}

	order := clause.OrderByColumn{Column: clause.Column{Name: store.FieldID}}
	if q.OrderBy != nil {
		order = clause.OrderByColumn{Column: clause.Column{Name: q.OrderBy.Field}, Desc: q.OrderBy.Desc}
		tx = tx.Order(order)
		// stable tiebreak
		order = clause.OrderByColumn{Column: clause.Column{Name: store.FieldID}}
	}
	tx = tx.Order(order)

	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	return tx, nil
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

func (s *Store) CreateClient(ctx context.Context, c *models.Client) (*models.Client, error) {
	rec := *c
	rec.ID = 0
	rec.Projects = nil
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) ListClients(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (s *Store) CreateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	var client models.Client
	err := s.db.WithContext(ctx).First(&client, p.ClientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("client #%d not found", p.ClientID)
	}
	if err != nil {
		return nil, err
	}

	rec := *p
	rec.ID = 0
	rec.Client = models.Client{}
	if err := s.db.WithContext(ctx).Omit("Client").Create(&rec).Error; err != nil {
		return nil, err
	}
	rec.Client = client
	return &rec, nil
}

func (s *Store) GetProject(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).Preload("Client").First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.WithContext(ctx).
		Preload("Client").
		Order("id ASC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (s *Store) SetProjectRate(ctx context.Context, id uint, rate *float64) error {
	var project models.Project
	err := s.db.WithContext(ctx).First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}

	var value any
	if rate != nil {
		value = *rate
	}
	return s.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", id).
		Update("hourly_rate", value).Error
}
