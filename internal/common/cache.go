package common

import (
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

type Cache struct {
	*cache.Cache
}

func NewCache(expirationTime, cleanupTime time.Duration) *Cache {
	return &Cache{cache.New(expirationTime, cleanupTime)}
}

func (c *Cache) Set(key string, value interface{}, expiration ...time.Duration) {
	if len(expiration) > 0 {
		c.Cache.Set(key, value, expiration[0])
		return
	}
	c.Cache.Set(key, value, cache.DefaultExpiration)
}

func (c *Cache) Get(key string) (interface{}, bool) {
	return c.Cache.Get(key)
}

func (c *Cache) Flush() {
	c.Cache.Flush()
}

func CacheKeySiteByHost(host string) string {
	return "site_by_host:" + strings.ToLower(host)
}

func CacheKeyArticle(id int) string {
	return "article:" + strconv.Itoa(id)
}

func CacheKeyArticleBySlug(siteID int, slug string) string {
	return "article_by_slug:" + strconv.Itoa(siteID) + ":" + slug
}

func CacheKeySectionByPath(siteID int, path string) string {
	return "section_by_path:" + strconv.Itoa(siteID) + ":" + strings.ToLower(path)
}
