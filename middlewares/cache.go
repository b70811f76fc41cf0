package middlewares

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/gob"
	"encoding/hex"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type cachedBody struct {
	Status int
	Header map[string][]string
	Body   []byte
}

func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// CacheKeyFrom maps a GET request to a namespaced Redis key. Namespacing by
// view (list, item, grouped, month) keeps invalidation a prefix scan.
func CacheKeyFrom(c *gin.Context) string {
	method := c.Request.Method
	path := c.FullPath()
	rawq := c.Request.URL.RawQuery

	if method != "GET" || path == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(path, "/events/grouped"):
		return "cache:events:grouped:" + sha1Hex("GET|/events/grouped/"+c.Param("year"))
	case strings.HasPrefix(path, "/events/month"):
		return "cache:events:month:" + sha1Hex("GET|/events/month/"+c.Param("year")+"/"+c.Param("month"))
	case strings.HasPrefix(path, "/events/:id/feedback"):
		return "cache:events:feedback:" + sha1Hex("GET|/events/"+c.Param("id")+"/feedback")
	case strings.HasPrefix(path, "/events/:id"):
		return "cache:events:item:" + sha1Hex("GET|/events/"+c.Param("id"))
	case path == "/events":
		return "cache:events:list:" + sha1Hex("GET|/events|"+rawq)
	default:
		return ""
	}
}

// ResponseCache serves 2xx GET responses from Redis with an X-Cache
// HIT/MISS header. Mutating handlers purge the namespace through the
// CacheInvalidator.
func ResponseCache(rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := CacheKeyFrom(c)
		if key == "" {
			c.Next()
			return
		}

		if b, err := rdb.Get(context.Background(), key).Bytes(); err == nil && len(b) > 0 {
			var hit cachedBody
			if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&hit); err == nil {
				for k, vals := range hit.Header {
					for _, v := range vals {
						c.Writer.Header().Add(k, v)
					}
				}
				c.Writer.Header().Set("X-Cache", "HIT")
				c.Status(hit.Status)
				_, _ = c.Writer.Write(hit.Body)
				c.Abort()
				return
			}
		}

		buf := &bytes.Buffer{}
		bw := &bufferedWriter{ResponseWriter: c.Writer, buf: buf}
		c.Writer = bw

		c.Next()

		if bw.Status() >= 200 && bw.Status() < 300 {
			item := cachedBody{
				Status: bw.Status(),
				Header: c.Writer.Header(),
				Body:   buf.Bytes(),
			}
			var o bytes.Buffer
			if err := gob.NewEncoder(&o).Encode(item); err == nil {
				_ = rdb.Set(context.Background(), key, o.Bytes(), ttl).Err()
			}
			c.Writer.Header().Set("X-Cache", "MISS")
		}
	}
}

type bufferedWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}
