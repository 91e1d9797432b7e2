package crypter

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
)

// AESCrypter AES-GCM对称加密器，AEAD在构造时装配完成
type AESCrypter struct {
	aead cipher.AEAD
}

// NewAESCrypter 用给定密钥创建AES-GCM加密器，密钥长度须为16/24/32字节
func NewAESCrypter(key []byte) (*AESCrypter, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESCrypter{aead: aead}, nil
}

// Encrypt 加密数据，随机nonce前置在密文中
func (a *AESCrypter) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, a.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return a.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt 解密Encrypt产出的密文
func (a *AESCrypter) Decrypt(ciphertext []byte) ([]byte, error) {
	nonceSize := a.aead.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}
	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return a.aead.Open(nil, nonce, sealed, nil)
}
