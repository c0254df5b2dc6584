package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"msgcenter/backend/internal/config"
	"msgcenter/backend/internal/storage"
)

// Store SQL 数据库存储实现（支持 MySQL 5.7+ 和 PostgreSQL）
type Store struct {
	db         *sql.DB
	gormDB     *gorm.DB // GORM实例，仅用于迁移
	driverName string   // "mysql" or "postgres"
	now        func() time.Time
}

// NewStore 根据数据库配置创建存储，按需执行自动迁移
func NewStore(cfg config.DatabaseConfig) (*Store, error) {
	driverName := cfg.Type
	if driverName != "mysql" && driverName != "postgres" {
		return nil, fmt.Errorf("unsupported database driver: %s (supported: mysql, postgres)", driverName)
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := NewStoreFromDB(db, driverName)

	if cfg.AutoMigrate {
		if err := store.openGorm(); err != nil {
			db.Close()
			return nil, err
		}
		if err := store.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	return store, nil
}

// NewStoreFromDB 基于已有连接创建存储，不做连接检查与迁移
func NewStoreFromDB(db *sql.DB, driverName string) *Store {
	return &Store{
		db:         db,
		driverName: driverName,
		now:        time.Now,
	}
}

func (s *Store) openGorm() error {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var dialector gorm.Dialector
	switch s.driverName {
	case "mysql":
		dialector = mysql.New(mysql.Config{Conn: s.db})
	default:
		dialector = postgres.New(postgres.Config{Conn: s.db})
	}

	gormDB, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize GORM: %w", err)
	}
	s.gormDB = gormDB
	return nil
}

// Migrate 使用 GORM AutoMigrate 同步表结构
func (s *Store) Migrate() error {
	if s.gormDB == nil {
		return nil
	}
	return s.gormDB.AutoMigrate(
		&identityModel{},
		&portalModel{},
		&messageModel{},
		&attachmentModel{},
		&offerMetadataModel{},
		&tokenModel{},
	)
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Health 检查数据库健康状态
func (s *Store) Health(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.db.PingContext(ctx)
}

// rebind 将 ? 占位符转换为当前驱动的占位符
func (s *Store) rebind(query string) string {
	if s.driverName != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// inClause 生成 IN 子句的占位符列表
func inClause(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

var (
	_ storage.Store           = (*Store)(nil)
	_ storage.TokenRepository = (*Store)(nil)
)
