// Package store 持久化代课分配文档
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/logger"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
)

// RecoveryWarning 文档损坏被重置时返回的警告
const RecoveryWarning = "Previous data was corrupted and has been reset"

// Store 分配文档存储
type Store interface {
	// Load 读取当前文档；损坏的文档会被重置并通过警告返回，而不是返回错误
	Load(ctx context.Context) (model.AssignmentDocument, []string, error)
	// Save 原子替换当前文档
	Save(ctx context.Context, doc model.AssignmentDocument) error
	// Clear 重置为空文档
	Clear(ctx context.Context) error
}

// FileStore 基于单个 JSON 文件的存储
type FileStore struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewFileStore 创建文件存储
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Path 文档路径
func (s *FileStore) Path() string {
	return s.path
}

// Load 读取文档；文件不存在视为空文档
func (s *FileStore) Load(ctx context.Context) (model.AssignmentDocument, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.EmptyDocument(), nil, nil
		}
		return model.EmptyDocument(), nil, fmt.Errorf("读取分配文档失败: %w", err)
	}

	doc, perr := decode(data)
	if perr == nil {
		return doc, nil, nil
	}

	log := logger.WithField("component", "store")
	log.Warn().Err(perr).Str("path", s.path).Msg("分配文档损坏，重置为空文档")

	if backup, berr := s.backup(data); berr != nil {
		log.Error().Err(berr).Msg("备份损坏文档失败")
	} else if backup != "" {
		log.Info().Str("backup", backup).Msg("已备份损坏文档")
	}
	if werr := s.write(model.EmptyDocument()); werr != nil {
		log.Error().Err(werr).Msg("重置分配文档失败")
	}
	return model.EmptyDocument(), []string{RecoveryWarning}, nil
}

// Save 原子写入文档
func (s *FileStore) Save(ctx context.Context, doc model.AssignmentDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(doc.Normalize())
}

// Clear 重置为 {assignments: [], warnings: []}
func (s *FileStore) Clear(ctx context.Context) error {
	return s.Save(ctx, model.EmptyDocument())
}

func (s *FileStore) write(doc model.AssignmentDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化分配文档失败: %w", err)
	}
	return WriteFileAtomic(s.path, data, 0o644)
}

// backup 把损坏的内容复制到 <name>.corrupt-<时间戳>，空文件不备份
func (s *FileStore) backup(data []byte) (string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", nil
	}
	dir, base := filepath.Split(s.path)
	target := filepath.Join(dir, fmt.Sprintf("%s.corrupt-%s", base, s.now().Format("20060102-150405")))
	if err := WriteFileAtomic(target, data, 0o644); err != nil {
		return "", err
	}
	return target, nil
}

// decode 解析文档；空内容、非对象或缺少字段均视为损坏
func decode(data []byte) (model.AssignmentDocument, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return model.AssignmentDocument{}, fmt.Errorf("文档为空")
	}
	if trimmed[0] != '{' {
		return model.AssignmentDocument{}, fmt.Errorf("文档不是 JSON 对象")
	}
	var doc model.AssignmentDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return model.AssignmentDocument{}, err
	}
	return doc.Normalize(), nil
}
