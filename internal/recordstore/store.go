package recordstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Result - итог ExecuteNonQuery.
type Result struct {
	LastInsertID int64
	RowsAffected int64
}

// Executor - контракт хранилища, которым пользуются сервисы и кеш рынка.
type Executor interface {
	ExecuteNonQuery(ctx context.Context, stmt string, params ...any) (Result, error)
	ExecuteQuery(ctx context.Context, stmt string, params ...any) ([]Row, error)
}

// Store - локальная SQLite-база поверх gorm + modernc.
type Store struct {
	gdb   *gorm.DB
	sqlDB *sql.DB
}

var _ Executor = (*Store)(nil)

// Open открывает (или создаёт) файл БД по пути path. ":memory:" открывает БД в памяти.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, wrapError("mkdir", err)
		}
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	gdb, err := gorm.Open(gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, wrapError("open", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, wrapError("open", err)
	}
	// SQLite пишет из одного соединения; для :memory: это ещё и одна БД на процесс
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, wrapError("ping", err)
	}
	return &Store{gdb: gdb, sqlDB: sqlDB}, nil
}

// Migrate приводит схему к актуальной.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.gdb.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return wrapError("migrate", err)
	}
	return nil
}

// ExecuteNonQuery выполняет изменяющий оператор с позиционными параметрами (?).
func (s *Store) ExecuteNonQuery(ctx context.Context, stmt string, params ...any) (Result, error) {
	res, err := s.sqlDB.ExecContext(ctx, stmt, params...)
	if err != nil {
		return Result{}, wrapError("exec", err)
	}
	var out Result
	if out.LastInsertID, err = res.LastInsertId(); err != nil {
		return Result{}, wrapError("last insert id", err)
	}
	if out.RowsAffected, err = res.RowsAffected(); err != nil {
		return Result{}, wrapError("rows affected", err)
	}
	return out, nil
}

// ExecuteQuery выполняет запрос и материализует все строки.
func (s *Store) ExecuteQuery(ctx context.Context, stmt string, params ...any) ([]Row, error) {
	rows, err := s.gdb.WithContext(ctx).Raw(stmt, params...).Rows()
	if err != nil {
		return nil, wrapError("query", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, wrapError("columns", err)
	}
	out := make([]Row, 0)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, wrapError("scan", err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("rows", err)
	}
	return out, nil
}

// Close закрывает пул соединений.
func (s *Store) Close() error {
	if err := s.sqlDB.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}
