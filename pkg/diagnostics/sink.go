package diagnostics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/logger"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/store"
)

// ArchiveDir 旧日志归档目录
const ArchiveDir = "old_logs"

// Document 某一天的诊断文档
type Document struct {
	Date    string  `json:"date"`
	RunID   string  `json:"runId"`
	Entries []Entry `json:"entries"`
}

// Sink 诊断日志持久化
type Sink interface {
	Persist(ctx context.Context, date string, l *Log) (string, error)
	Load(ctx context.Context, date string) (Document, []string, error)
}

// FileSink 按日期保存诊断文档，同一天的旧文档先移动到归档目录
type FileSink struct {
	dir string
	now func() time.Time
}

// NewFileSink 创建文件诊断存储
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir, now: time.Now}
}

// PathFor 某天诊断文档的路径
func (s *FileSink) PathFor(date string) string {
	return filepath.Join(s.dir, fmt.Sprintf("substitute_logs_%s.json", date))
}

// Persist 写入诊断文档，返回已归档的旧文档路径（没有旧文档时为空）
func (s *FileSink) Persist(ctx context.Context, date string, l *Log) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := s.PathFor(date)

	archived, err := s.archive(path, date)
	if err != nil {
		return "", err
	}

	doc := Document{Date: date, RunID: l.RunID(), Entries: l.Entries()}
	if doc.Entries == nil {
		doc.Entries = []Entry{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return archived, fmt.Errorf("序列化诊断日志失败: %w", err)
	}
	if err := store.WriteFileAtomic(path, data, 0o644); err != nil {
		return archived, fmt.Errorf("写入诊断日志失败: %w", err)
	}
	return archived, nil
}

// Load 读取某天的诊断文档；损坏时备份并返回空文档与警告
func (s *FileSink) Load(ctx context.Context, date string) (Document, []string, error) {
	path := s.PathFor(date)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{Date: date, Entries: []Entry{}}, nil, nil
		}
		return Document{}, nil, fmt.Errorf("读取诊断日志失败: %w", err)
	}

	var doc Document
	if len(bytes.TrimSpace(data)) > 0 {
		if err = json.Unmarshal(data, &doc); err == nil {
			if doc.Entries == nil {
				doc.Entries = []Entry{}
			}
			return doc, nil, nil
		}
	}

	log := logger.WithField("component", "diagnostics")
	log.Warn().Err(err).Str("path", path).Msg("诊断日志损坏，已归档并重置")
	if _, aerr := s.archive(path, date); aerr != nil {
		return Document{}, nil, aerr
	}
	return Document{Date: date, Entries: []Entry{}}, []string{"Previous diagnostics log was corrupted and has been reset"}, nil
}

// Archived 某天已归档的旧文档，按文件名排序
func (s *FileSink) Archived(date string) ([]string, error) {
	prefix := "substitute_logs_" + strings.ReplaceAll(date, "-", "")
	entries, err := os.ReadDir(filepath.Join(s.dir, ArchiveDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			out = append(out, filepath.Join(s.dir, ArchiveDir, e.Name()))
		}
	}
	return out, nil
}

// archive 把已有的文档移动到 old_logs/substitute_logs_YYYYMMDD_HHMMSS.json
func (s *FileSink) archive(path, date string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("检查诊断日志失败: %w", err)
	}

	archiveDir := filepath.Join(s.dir, ArchiveDir)
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", fmt.Errorf("创建归档目录失败: %w", err)
	}

	stamp := s.now().Format("150405")
	base := fmt.Sprintf("substitute_logs_%s_%s", strings.ReplaceAll(date, "-", ""), stamp)
	target := filepath.Join(archiveDir, base+".json")
	for i := 1; fileExists(target); i++ {
		target = filepath.Join(archiveDir, fmt.Sprintf("%s_%d.json", base, i))
	}

	if err := os.Rename(path, target); err != nil {
		return "", fmt.Errorf("归档诊断日志失败: %w", err)
	}
	return target, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
