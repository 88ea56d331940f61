package repository

import (
	"math/rand"
	"time"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// getRandomExpireTime 生成带随机抖动的过期时间（基础时间 ±10%），防止缓存集中失效
func getRandomExpireTime(baseExpire time.Duration) time.Duration {
	jitterRange := float64(baseExpire) * 0.1
	jitter := time.Duration(rand.Float64()*jitterRange*2 - jitterRange)
	return baseExpire + jitter
}

// normalizePage 规范分页参数，返回 offset 与 limit
func normalizePage(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return (page - 1) * pageSize, pageSize
}
