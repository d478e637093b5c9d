package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

// Store 基于 JSON 文件的持仓和统计存储，两份数据各自一个文件
type Store struct {
	positionsPath  string
	statsPath      string
	recoverCorrupt bool
	now            func() time.Time
}

func New(positionsPath, statsPath string, recoverCorrupt bool) *Store {
	return &Store{
		positionsPath:  positionsPath,
		statsPath:      statsPath,
		recoverCorrupt: recoverCorrupt,
		now:            time.Now,
	}
}

func (s *Store) Load(ctx context.Context) (model.Snapshot, error) {
	snap := model.Snapshot{}
	found, err := s.read(s.positionsPath, &snap, func() error {
		for sym, pos := range snap {
			if pos.Symbol == "" {
				pos.Symbol = sym
				snap[sym] = pos
			}
		}
		return snap.Check()
	})
	if err != nil {
		return nil, err
	}
	if !found || snap == nil {
		return model.Snapshot{}, nil
	}
	return snap, nil
}

func (s *Store) Save(ctx context.Context, snap model.Snapshot) error {
	if snap == nil {
		snap = model.Snapshot{}
	}
	return writeAtomic(s.positionsPath, snap)
}

func (s *Store) LoadStats(ctx context.Context) (model.Statistics, error) {
	var st model.Statistics
	if _, err := s.read(s.statsPath, &st, nil); err != nil {
		return model.Statistics{}, err
	}
	return st, nil
}

func (s *Store) SaveStats(ctx context.Context, stats model.Statistics) error {
	return writeAtomic(s.statsPath, stats)
}

// read 文件不存在返回 found=false；解析或 check 失败返回 ErrCorruptSnapshot，
// 开启 recoverCorrupt 时把坏文件挪走后当作不存在
func (s *Store) read(path string, v any, check func() error) (bool, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if len(b) == 0 {
		return false, nil
	}
	err = json.Unmarshal(b, v)
	if err == nil && check != nil {
		err = check()
	}
	if err != nil {
		return false, s.corrupt(path, err)
	}
	return true, nil
}

func (s *Store) corrupt(path string, cause error) error {
	if !s.recoverCorrupt {
		return fmt.Errorf("%w: %s: %v", port.ErrCorruptSnapshot, path, cause)
	}
	aside := fmt.Sprintf("%s.corrupt-%d", path, s.now().Unix())
	if err := os.Rename(path, aside); err != nil {
		return fmt.Errorf("%w: %s: move aside: %v", port.ErrCorruptSnapshot, path, err)
	}
	log.Warn().Str("file", path).Str("moved_to", aside).Err(cause).Msg("corrupt state file moved aside, starting empty")
	return nil
}

// writeAtomic 同目录写临时文件 + fsync + rename
func writeAtomic(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

var (
	_ port.PositionStore = (*Store)(nil)
	_ port.StatsStore    = (*Store)(nil)
)
