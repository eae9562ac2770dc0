package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pay-equity-api/pkg/middleware/requestid"
)

const responseMetaKey = "response_meta"

// ResponseMeta seeds the per-request metadata attached to JSON envelopes.
func ResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		meta := ensureMeta(c)
		if id := requestid.Value(c); id != "" {
			meta["request_id"] = id
		}
		meta["received_at"] = time.Now().UTC().Format(time.RFC3339)
		c.Next()
	}
}

// SetCacheHit flags whether the payload came from the compliance cache.
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)["cache_hit"] = hit
}

// ExtractMeta returns the metadata collected for the request, if any.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	value, ok := c.Get(responseMetaKey)
	if !ok {
		return nil
	}
	meta, _ := value.(map[string]interface{})
	return meta
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	meta := map[string]interface{}{}
	if c != nil {
		c.Set(responseMetaKey, meta)
	}
	return meta
}
