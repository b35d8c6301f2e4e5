package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
)

const maxJSONBody = 64 << 10

// SanitizeAndCleanInputMiddleware strips markup from every string in a JSON
// body, nested values included. It must not wrap the webhook route: the
// signature covers the raw bytes.
func SanitizeAndCleanInputMiddleware() gin.HandlerFunc {
	policy := bluemonday.StrictPolicy()
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxJSONBody+1))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
			return
		}
		if len(raw) > maxJSONBody {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Body too large"})
			return
		}
		if len(bytes.TrimSpace(raw)) == 0 {
			c.Request.Body = io.NopCloser(bytes.NewReader(raw))
			c.Next()
			return
		}

		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Malformed JSON"})
			return
		}

		cleaned, _ := json.Marshal(clean(policy, doc))
		c.Request.Body = io.NopCloser(bytes.NewReader(cleaned))
		c.Request.ContentLength = int64(len(cleaned))
		c.Next()
	}
}

func clean(policy *bluemonday.Policy, v any) any {
	switch t := v.(type) {
	case string:
		return policy.Sanitize(t)
	case map[string]any:
		for k, inner := range t {
			t[k] = clean(policy, inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = clean(policy, inner)
		}
		return t
	default:
		return v
	}
}
