package crypter

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
)

// Crypter 对称加密器接口
type Crypter interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// KeyFile 密钥文件结构
type KeyFile struct {
	AESKey string `json:"aes_key"`
}

// LoadOrCreateKey 从密钥文件加载AES密钥，文件不存在时生成新密钥并落盘
// 密钥文件权限限定为当前用户可读写
func LoadOrCreateKey(keyPath string) ([]byte, error) {
	if _, err := os.Stat(keyPath); os.IsNotExist(err) {
		return createNewKey(keyPath)
	}

	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	var kf KeyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("invalid key file format: %w", err)
	}

	key, err := base64.StdEncoding.DecodeString(kf.AESKey)
	if err != nil {
		return nil, fmt.Errorf("invalid key encoding: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("unexpected key length: %d", len(key))
	}
	return key, nil
}

// createNewKey 生成32字节随机密钥并写入密钥文件
func createNewKey(keyPath string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	data, err := json.Marshal(KeyFile{AESKey: base64.StdEncoding.EncodeToString(key)})
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(keyPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}
	return key, nil
}

// NewFileCrypter 创建基于密钥文件的AES加密器
func NewFileCrypter(keyPath string) (*AESCrypter, error) {
	key, err := LoadOrCreateKey(keyPath)
	if err != nil {
		return nil, err
	}
	return NewAESCrypter(key)
}
