package jwtauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// AccessTokenType 表示 Access Token 类型
	AccessTokenType = "access"
	// RefreshTokenType 表示 Refresh Token 类型
	RefreshTokenType = "refresh"
)

// Claims 定义 JWT 载荷结构
// 客户端只做载荷检视，签名由服务端校验，所以字段全部可选解析
type Claims struct {
	UserID    any    `json:"user_id,omitempty"`    // 用户ID（后端下发可能是数字或字符串）
	Username  string `json:"username,omitempty"`   // 用户名
	TokenType string `json:"token_type,omitempty"` // token类型：access/refresh
	jwt.RegisteredClaims
}

// Inspect 不校验签名地解析token载荷
// 客户端没有签名密钥，只需要读取过期时间等声明来决定是否提前刷新；
// 真正的鉴权始终由服务端完成
func Inspect(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("empty token")
	}

	parser := jwt.NewParser()
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("parse token failed: %w", err)
	}
	return claims, nil
}

// ExpiresAt 返回token的过期时间，载荷中没有exp时返回零值
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ExpiresWithin 判断token是否将在给定时间窗口内过期
// 已过期同样返回true；没有exp声明时返回false（无法判断则不主动刷新）
func ExpiresWithin(tokenString string, window time.Duration) bool {
	claims, err := Inspect(tokenString)
	if err != nil {
		return false
	}
	exp := claims.ExpiresAtTime()
	if exp.IsZero() {
		return false
	}
	return time.Until(exp) <= window
}

// ParseDuration 解析带自定义单位的时间字符串（支持s/m/h/d/w）
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, errors.New("empty duration string")
	}

	// 支持的时间单位
	units := map[string]time.Duration{
		"s": time.Second,
		"m": time.Minute,
		"h": time.Hour,
		"d": time.Hour * 24,
		"w": time.Hour * 24 * 7,
	}

	// 提取数字和单位
	numStr := ""
	unit := ""
	for _, char := range s {
		if char >= '0' && char <= '9' || char == '.' {
			numStr += string(char)
		} else {
			unit += string(char)
		}
	}

	if numStr == "" || unit == "" {
		return 0, fmt.Errorf("invalid duration format: %s", s)
	}

	var num float64
	if _, err := fmt.Sscanf(numStr, "%f", &num); err != nil {
		return 0, fmt.Errorf("invalid number in duration: %s", s)
	}

	dur, ok := units[unit]
	if !ok {
		return 0, fmt.Errorf("unknown unit in duration: %s", unit)
	}

	return time.Duration(num * float64(dur)), nil
}
