package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	CacheNoCache = 0
	CacheCustom  = -1
	CachePhotos  = 7 * 86400 // Stored photos never change under the same path
)

type CacheRouter struct {
	CacheTime int // defaults to CacheNoCache = 0
}

func (cr *CacheRouter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		SetCacheHeader(c, cr.CacheTime)
		c.Next()
	}
}

// SetCacheHeader overrides the cache-control header for a single response
func SetCacheHeader(c *gin.Context, cacheTime int) {
	if cacheTime == CacheCustom {
		return
	}
	if cacheTime == CacheNoCache {
		c.Header("cache-control", "no-cache")
	} else {
		c.Header("cache-control", "private, max-age="+strconv.Itoa(cacheTime))
	}
}
