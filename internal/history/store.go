package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/iabetor/voxskill/internal/delivery"
	"github.com/iabetor/voxskill/internal/logger"
)

// Store 把每次成功的合成投递写入 SQLite，便于排查与统计。
// 只做追加记录，解析器不会读它。
type Store struct {
	db     *sql.DB
	engine string
}

// Entry 是一条合成历史记录。
type Entry struct {
	ID         int64
	Engine     string
	Voice      string
	TextChars  int
	MimeType   string
	AudioBytes int
	Kind       string
	ValueLen   int
	DurationMs int64
	CreatedAt  string
}

// Open 打开或创建历史数据库。engine 是当前配置的合成引擎名。
func Open(dbPath, engine string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("创建数据库目录失败: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	// WAL 模式（更好的并发性能）
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("设置 WAL 模式失败: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS synth_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		engine TEXT NOT NULL,
		voice TEXT DEFAULT '',
		text_chars INTEGER NOT NULL,
		mime_type TEXT NOT NULL,
		audio_bytes INTEGER NOT NULL,
		kind TEXT NOT NULL,
		value_len INTEGER NOT NULL,
		duration_ms INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("创建历史表失败: %w", err)
	}

	logger.Infof("[history] 合成历史数据库已打开: %s", dbPath)

	return &Store{db: db, engine: engine}, nil
}

// Record 写入一条投递记录，实现 delivery.Recorder。
// 不存原文，只存字符数。
func (s *Store) Record(ctx context.Context, rec delivery.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO synth_history
		 (engine, voice, text_chars, mime_type, audio_bytes, kind, value_len, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.engine, rec.Voice, len([]rune(rec.Text)), rec.MimeType,
		rec.AudioBytes, string(rec.Kind), rec.ValueLen, rec.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("写入合成记录失败: %w", err)
	}
	return nil
}

// Recent 返回最近 n 条记录，按时间倒序。
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, engine, voice, text_chars, mime_type, audio_bytes, kind, value_len, duration_ms, created_at
		 FROM synth_history ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("查询合成历史失败: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Engine, &e.Voice, &e.TextChars, &e.MimeType,
			&e.AudioBytes, &e.Kind, &e.ValueLen, &e.DurationMs, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("读取合成历史失败: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close 关闭数据库。
func (s *Store) Close() error {
	return s.db.Close()
}

// Prune 删除 before 之前的记录，返回删除条数。
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM synth_history WHERE created_at < ?`,
		before.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, fmt.Errorf("清理合成历史失败: %w", err)
	}
	return res.RowsAffected()
}
