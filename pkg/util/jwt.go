package util

import (
	"errors"
	"sync"

	"MoirServer/config"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid token 解析失败或签名不合法。
var ErrTokenInvalid = errors.New("token invalid")

// Claims 身份服务签发的访问令牌载荷。
// 本服务只做校验，签发由身份服务负责。
type Claims struct {
	UserUUID string `json:"user_uuid"`
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}

var (
	jwtMu  sync.RWMutex
	jwtCfg = config.DefaultJWTConfig()
)

// SetJWTConfig 设置令牌校验参数（main 初始化时调用）。
func SetJWTConfig(cfg config.JWTConfig) {
	jwtMu.Lock()
	jwtCfg = cfg
	jwtMu.Unlock()
}

// ParseToken 解析并校验访问令牌（HS256）。
func ParseToken(tokenString string) (*Claims, error) {
	jwtMu.RLock()
	cfg := jwtCfg
	jwtMu.RUnlock()

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserUUID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
