package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/ayxworxfr/wm_console/internal/domain/models"
	"github.com/ayxworxfr/wm_console/pkg/crypter"
	"github.com/ayxworxfr/wm_console/pkg/utils"
)

const sessionFile = "session.dat"

// Store 本地会话存储，令牌与用户信息加密落盘
// 所有方法并发安全
type Store struct {
	mu      sync.RWMutex
	crypter crypter.Crypter
	path    string
	current *models.Session
}

// NewStore 创建会话存储，dir为空时使用用户默认目录
func NewStore(dir, keyFile string) (*Store, error) {
	base, err := utils.UserStorageDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare storage dir")
	}

	c, err := crypter.NewFileCrypter(filepath.Join(base, keyFile))
	if err != nil {
		return nil, errors.Wrap(err, "failed to init session crypter")
	}

	s := &Store{
		crypter: c,
		path:    filepath.Join(base, sessionFile),
	}
	if err := s.load(); err != nil {
		// 会话文件损坏时按未登录处理，不阻塞启动
		s.current = nil
	}
	return s, nil
}

// load 从磁盘恢复会话，文件不存在时视为未登录
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to read session file")
	}

	plaintext, err := s.crypter.Decrypt(data)
	if err != nil {
		return errors.Wrap(err, "failed to decrypt session")
	}

	var sess models.Session
	if err := json.Unmarshal(plaintext, &sess); err != nil {
		return errors.Wrap(err, "invalid session payload")
	}
	s.current = &sess
	return nil
}

// Save 写入新会话并持久化
func (s *Store) Save(sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = sess
	return s.persist()
}

// persist 加密并写盘，调用方需持有锁
func (s *Store) persist() error {
	if s.current == nil {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "failed to remove session file")
		}
		return nil
	}

	plaintext, err := json.Marshal(s.current)
	if err != nil {
		return err
	}
	ciphertext, err := s.crypter.Encrypt(plaintext)
	if err != nil {
		return errors.Wrap(err, "failed to encrypt session")
	}
	if err := os.WriteFile(s.path, ciphertext, 0o600); err != nil {
		return errors.Wrap(err, "failed to write session file")
	}
	return nil
}

// Clear 清除会话（登出或刷新失败时调用）
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	return s.persist()
}

// AccessToken 返回当前访问令牌，未登录时为空串
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return ""
	}
	return s.current.AccessToken
}

// RefreshToken 返回当前刷新令牌
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return ""
	}
	return s.current.RefreshToken
}

// SetAccessToken 刷新成功后替换访问令牌并落盘
func (s *Store) SetAccessToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return errors.New("no active session")
	}
	s.current.AccessToken = token
	return s.persist()
}

// CurrentUser 返回当前登录用户，未登录时为nil
func (s *Store) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}
	return s.current.User
}

// IsAuthenticated 判断是否存在有效会话
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current.IsAuthenticated()
}
