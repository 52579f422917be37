// Package postgres implements store.Store on a direct Postgres connection
// through gorm.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/manash/adhook/internal/logger"
	"github.com/manash/adhook/internal/store"
	"github.com/manash/adhook/pkg/models"
)

// Row is the table layout of a generation record.
type Row struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID      *string        `gorm:"column:user_id;type:text"`
	ProductName string         `gorm:"column:product_name;type:text;not null"`
	Description string         `gorm:"column:description;type:text;not null"`
	Platform    string         `gorm:"column:platform;type:text;not null;default:'Facebook'"`
	Variations  datatypes.JSON `gorm:"column:variations;type:jsonb;not null"`
	CreatedAt   time.Time      `gorm:"column:created_at;not null;default:now();index:idx_adhook_generations_created_at,sort:desc"`
}

func (Row) TableName() string {
	return store.Table
}

type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

var _ store.Store = (*Store)(nil)

func New(dsn string, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	serviceLog := log.With("service", "PostgresStore")

	gormLog := gormLogger.New(
		gormWriter{log: serviceLog},
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	return &Store{db: db, log: serviceLog}, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`).Error; err != nil {
		return fmt.Errorf("failed to enable pgcrypto extension: %w", err)
	}
	if err := db.AutoMigrate(&Row{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", store.Table, err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, gen *models.Generation) error {
	row, err := toRow(gen)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	gen.ID = models.RecordID(row.ID.String())
	gen.CreatedAt = row.CreatedAt
	return nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]*models.Generation, error) {
	var rows []Row
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(store.ClampLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*models.Generation, 0, len(rows))
	for i := range rows {
		out = append(out, fromRow(&rows[i]))
	}
	return out, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRow(gen *models.Generation) (*Row, error) {
	row := &Row{
		UserID:      gen.UserID,
		ProductName: gen.ProductName,
		Description: gen.Description,
		Platform:    gen.Platform,
		Variations:  datatypes.JSON(gen.Variations.Raw()),
		CreatedAt:   gen.CreatedAt,
	}
	if gen.Variations.IsZero() {
		row.Variations = datatypes.JSON("null")
	}
	if gen.ID != "" {
		id, err := uuid.Parse(string(gen.ID))
		if err != nil {
			return nil, fmt.Errorf("invalid record id %q: %w", gen.ID, err)
		}
		row.ID = id
	}
	return row, nil
}

func fromRow(row *Row) *models.Generation {
	return &models.Generation{
		ID:          models.RecordID(row.ID.String()),
		UserID:      row.UserID,
		ProductName: row.ProductName,
		Description: row.Description,
		Platform:    row.Platform,
		Variations:  models.RawVariations(row.Variations),
		CreatedAt:   row.CreatedAt,
	}
}

// gormWriter routes gorm's slow query and error lines into the zap logger.
type gormWriter struct {
	log *logger.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warn(fmt.Sprintf(format, args...))
}
