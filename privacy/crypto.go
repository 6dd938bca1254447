package privacy

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"github.com/BaSui01/fedsearch/types"
)

// QueryCipher 受限节点查询载荷的对称加密器.
// 密钥由共享密钥经 SHA-256 派生; 密文对任何中间人不透明.
type QueryCipher struct {
	aead cipher.AEAD
}

// NewQueryCipher 从共享密钥派生 AES-256-GCM 加密器.
// 空密钥直接报错: 受限节点缺少密钥属于配置错误, 必须 fail-closed.
func NewQueryCipher(sharedSecret string) (*QueryCipher, error) {
	if sharedSecret == "" {
		return nil, types.NewError(types.ErrEncryptionFailed, "shared secret is empty")
	}

	key := sha256.Sum256([]byte(sharedSecret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, types.NewError(types.ErrEncryptionFailed, "failed to create cipher").WithCause(err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, types.NewError(types.ErrEncryptionFailed, "failed to create GCM").WithCause(err)
	}
	return &QueryCipher{aead: aead}, nil
}

// Encrypt 加密查询文本, 返回 base64(nonce || ciphertext).
func (c *QueryCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", types.NewError(types.ErrEncryptionFailed, "failed to generate nonce").WithCause(err)
	}

	ciphertext := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt 解密 Encrypt 产出的载荷.
// 变换路径本身从不调用它 (单向契约); 仅供持有共享密钥的节点侧使用.
func (c *QueryCipher) Decrypt(payload string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", types.NewError(types.ErrEncryptionFailed, "payload is not base64").WithCause(err)
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", types.NewError(types.ErrEncryptionFailed, "ciphertext too short")
	}

	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", types.NewError(types.ErrEncryptionFailed, "failed to decrypt").WithCause(err)
	}
	return string(plaintext), nil
}
