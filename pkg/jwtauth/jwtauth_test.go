package jwtauth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte("test-secret"))
	assert.NoError(t, err)
	return s
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "60 seconds", input: "60s", want: 60 * time.Second},
		{name: "5 minutes", input: "5m", want: 5 * time.Minute},
		{name: "24 hours", input: "24h", want: 24 * time.Hour},
		{name: "30 days", input: "30d", want: 30 * 24 * time.Hour},
		{name: "2 weeks", input: "2w", want: 2 * 7 * 24 * time.Hour},
		{name: "empty", input: "", wantErr: true},
		{name: "no unit", input: "30", wantErr: true},
		{name: "unknown unit", input: "5y", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInspect(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tokenStr := signToken(t, Claims{
		Username:  "alice",
		TokenType: AccessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	claims, err := Inspect(tokenStr)
	assert.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, AccessTokenType, claims.TokenType)
	assert.Equal(t, exp.Unix(), claims.ExpiresAtTime().Unix())
}

func TestInspect_Invalid(t *testing.T) {
	_, err := Inspect("")
	assert.Error(t, err)

	_, err = Inspect("not-a-jwt")
	assert.Error(t, err)
}

func TestExpiresWithin(t *testing.T) {
	soon := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	far := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	expired := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	noExp := signToken(t, Claims{Username: "bob"})

	assert.True(t, ExpiresWithin(soon, 2*time.Minute))
	assert.False(t, ExpiresWithin(far, 2*time.Minute))
	// 已过期视为需要刷新
	assert.True(t, ExpiresWithin(expired, 2*time.Minute))
	// 无exp声明时无法判断，不触发主动刷新
	assert.False(t, ExpiresWithin(noExp, 2*time.Minute))
	// 非法token不触发
	assert.False(t, ExpiresWithin("garbage", 2*time.Minute))
}
