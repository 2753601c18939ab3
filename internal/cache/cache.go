// Package cache 提供合成结果的磁盘缓存：
// WAV 文件落盘，SQLite 做索引，按总字节数做 LRU 淘汰。
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/internal/logger"
)

// Store 是缓存实例。内部用 SQLite 串行化元数据操作，可并发使用。
type Store struct {
	db       *sql.DB
	dir      string
	maxBytes int64
}

// Open 打开或创建缓存目录。maxSizeMB <= 0 表示不限制大小。
func Open(dir string, maxSizeMB int) (*Store, error) {
	if dir == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			dir = filepath.Join(home, ".jtalk", "cache")
		} else {
			dir = "./cache"
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建缓存目录失败: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "index.db"))
	if err != nil {
		return nil, fmt.Errorf("打开缓存索引失败: %w", err)
	}

	// WAL 模式（更好的并发性能）
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("设置 WAL 模式失败: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS tts_cache (
		cache_key TEXT PRIMARY KEY,
		file TEXT NOT NULL,
		size INTEGER NOT NULL,
		sample_rate INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_used DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("缓存索引迁移失败: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_tts_cache_last_used ON tts_cache(last_used)`); err != nil {
		logger.Warnf("[cache] 创建索引失败: %v", err)
	}

	logger.Infof("[cache] 缓存已打开: %s", dir)
	return &Store{db: db, dir: dir, maxBytes: int64(maxSizeMB) * 1024 * 1024}, nil
}

// Key 由文本、引擎名、语音名与参数串计算缓存键。
func Key(text, engine, voice, params string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{text, engine, voice, params}, "|")))
	return hex.EncodeToString(sum[:])
}

// Lookup 查询缓存。命中时返回 WAV 文件路径与采样率，并刷新 last_used。
func (s *Store) Lookup(key string) (string, int, bool, error) {
	var file string
	var sampleRate int
	err := s.db.QueryRow(`SELECT file, sample_rate FROM tts_cache WHERE cache_key = ?`, key).
		Scan(&file, &sampleRate)
	if err == sql.ErrNoRows {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, fmt.Errorf("查询缓存失败: %w", err)
	}

	path := filepath.Join(s.dir, file)
	if _, err := os.Stat(path); err != nil {
		// 文件被外部删除，清掉失效的索引行
		logger.Warnf("[cache] 缓存文件丢失，移除索引: %s", file)
		s.db.Exec(`DELETE FROM tts_cache WHERE cache_key = ?`, key)
		return "", 0, false, nil
	}

	if _, err := s.db.Exec(`UPDATE tts_cache SET last_used = CURRENT_TIMESTAMP WHERE cache_key = ?`, key); err != nil {
		logger.Warnf("[cache] 刷新 last_used 失败: %v", err)
	}
	return path, sampleRate, true, nil
}

// Put 写入一条缓存。data 是完整的 WAV 字节。写入后按大小上限淘汰最久未用的条目。
func (s *Store) Put(key string, data []byte, sampleRate int) (string, error) {
	file := key + ".wav"
	path := filepath.Join(s.dir, file)

	// 先写临时文件再改名，避免读到半截文件
	tmp := filepath.Join(s.dir, "tmp-"+uuid.NewString()+".wav")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("写入缓存文件失败: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("写入缓存文件失败: %w", err)
	}

	_, err := s.db.Exec(`INSERT INTO tts_cache (cache_key, file, size, sample_rate) VALUES (?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET file = excluded.file, size = excluded.size,
		sample_rate = excluded.sample_rate, last_used = CURRENT_TIMESTAMP`,
		key, file, len(data), sampleRate)
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("写入缓存索引失败: %w", err)
	}

	if err := s.evict(); err != nil {
		logger.Warnf("[cache] 淘汰失败: %v", err)
	}
	return path, nil
}

// evict 按 last_used 从旧到新删除条目，直到总大小不超过上限。
func (s *Store) evict() error {
	if s.maxBytes <= 0 {
		return nil
	}

	var total int64
	if err := s.db.QueryRow(`SELECT COALESCE(SUM(size), 0) FROM tts_cache`).Scan(&total); err != nil {
		return err
	}

	for total > s.maxBytes {
		var key, file string
		var size int64
		err := s.db.QueryRow(`SELECT cache_key, file, size FROM tts_cache ORDER BY last_used ASC LIMIT 1`).
			Scan(&key, &file, &size)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}

		if _, err := s.db.Exec(`DELETE FROM tts_cache WHERE cache_key = ?`, key); err != nil {
			return err
		}
		os.Remove(filepath.Join(s.dir, file))
		total -= size
		logger.Debugf("[cache] 淘汰缓存条目: %s (%d bytes)", file, size)
	}
	return nil
}

// Dir 返回缓存目录。
func (s *Store) Dir() string {
	return s.dir
}

// Close 关闭缓存索引。
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
