// Package web is the HTTP surface of the service: a redirect endpoint at the
// root plus a small JSON API for creating, inspecting and deleting
// shortcodes, gated by API-key permission checks.
package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/surly-sh/surly/apikeys"
	"github.com/surly-sh/surly/shortcode"
)

// Handler holds the managers the HTTP layer calls into.
type Handler struct {
	Shortcodes *shortcode.Manager
	Keys       *apikeys.Manager
	// DefaultCodeLength is used when a create request doesn't ask for a
	// specific length.
	DefaultCodeLength int
}

// NewRouter wires the routes onto a gin engine. The caller decides how to
// serve it.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Dummy root page for testing responses
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	// The expander accepts every method, as the original service did.
	r.Any("/:shortcode", h.expand)

	api := r.Group("/api/v1")
	api.POST("/shortcode", h.authorized("shortcode.create"), h.create)
	api.GET("/shortcode/:shortcode", h.authorized("shortcode.info"), h.info)
	api.DELETE("/shortcode/:shortcode", h.authorized("shortcode.delete"), h.remove)

	return r
}

// credentials pulls the account id and presented secret from the request:
// POST form fields first, query string as a fallback.
func credentials(c *gin.Context) (accountID, apiKey string) {
	if id, key := c.PostForm("account_id"), c.PostForm("api_key"); id != "" && key != "" {
		return id, key
	}
	return c.Query("account_id"), c.Query("api_key")
}

// authorized gates a route behind a permission check for one operation. A
// false answer from the check is a 401; only store failures are 500s.
func (h *Handler) authorized(operation string) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, apiKey := credentials(c)
		if accountID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			return
		}

		ok, err := h.Keys.CheckPermission(accountID, apiKey, operation)
		if err != nil {
			log.Error().Err(err).Msg("can't check permissions against the store")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized"})
			return
		}

		c.Next()
	}
}

// expand performs a URL redirection.
func (h *Handler) expand(c *gin.Context) {
	record, ok, err := h.Shortcodes.Resolve(c.Param("shortcode"))
	if err != nil {
		log.Error().Err(err).Msg("can't resolve a shortcode against the store")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown shortcode"})
		return
	}

	c.Redirect(http.StatusFound, record.Target)
}

// create registers a new target URL and returns the shortcode record.
func (h *Handler) create(c *gin.Context) {
	target := c.PostForm("target")
	if target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing target"})
		return
	}

	length := h.DefaultCodeLength
	if raw := c.PostForm("length"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "length must be a positive integer"})
			return
		}
		length = parsed
	}

	accountID, _ := credentials(c)

	record, err := h.Shortcodes.Create(target, accountID, length, c.PostForm("prefix"))
	if errors.Is(err, shortcode.ErrCollisionExhausted) {
		// Each random value hit an existing one, likely because of too
		// little entropy for current occupancy.
		c.JSON(http.StatusConflict, gin.H{"error": "failed to find a unique code; increase the length"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("can't create a shortcode")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// info returns the record behind an existing shortcode.
func (h *Handler) info(c *gin.Context) {
	record, ok, err := h.Shortcodes.Resolve(c.Param("shortcode"))
	if err != nil {
		log.Error().Err(err).Msg("can't resolve a shortcode against the store")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown shortcode"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// remove deletes an existing shortcode.
func (h *Handler) remove(c *gin.Context) {
	existed, err := h.Shortcodes.Delete(c.Param("shortcode"))
	if err != nil {
		log.Error().Err(err).Msg("can't delete a shortcode")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !existed {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown shortcode"})
		return
	}

	c.String(http.StatusOK, "OK")
}
