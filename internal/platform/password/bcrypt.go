// Package password はbcryptによるパスワードのハッシュ化と検証を提供します。
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher はbcryptでパスワードをハッシュ化します。
// ソルトは呼び出しごとにランダムに生成されるため、同じ入力でも結果は毎回異なります。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher は指定コストのBcryptHasherを生成します。
// 範囲外のコストが渡された場合は bcrypt.DefaultCost を使用します。
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash は平文パスワードからbcryptハッシュを生成します。
// 72バイトを超える入力は bcrypt.ErrPasswordTooLong をラップして返します。
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify は平文パスワードがハッシュと一致するかを返します。
// ハッシュの形式が不正な場合もエラーではなく false を返します。
func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
