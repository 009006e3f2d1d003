package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/erp/restaurant/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CORSConfig holds CORS middleware configuration
type CORSConfig struct {
	AllowOrigins     []string // "*" allows any origin without credentials
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig allows no origins until configured. The method and
// header lists cover the settlement API, including Idempotency-Key.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Request-ID", IdempotencyKeyHeader, "Accept", "Origin"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// CORS returns a middleware that handles CORS with default configuration
func CORS() gin.HandlerFunc {
	return CORSWithConfig(DefaultCORSConfig())
}

// corsPolicy is a CORSConfig with its header values precomputed
type corsPolicy struct {
	origins     map[string]struct{}
	wildcard    bool
	credentials bool
	headers     map[string]string
}

func newCORSPolicy(cfg CORSConfig) corsPolicy {
	p := corsPolicy{
		origins:     make(map[string]struct{}, len(cfg.AllowOrigins)),
		credentials: cfg.AllowCredentials,
		headers: map[string]string{
			"Access-Control-Allow-Methods": strings.Join(cfg.AllowMethods, ", "),
			"Access-Control-Allow-Headers": strings.Join(cfg.AllowHeaders, ", "),
		},
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			p.wildcard = true
			continue
		}
		p.origins[o] = struct{}{}
	}
	if len(cfg.ExposeHeaders) > 0 {
		p.headers["Access-Control-Expose-Headers"] = strings.Join(cfg.ExposeHeaders, ", ")
	}
	if cfg.MaxAge > 0 {
		p.headers["Access-Control-Max-Age"] = strconv.Itoa(int(cfg.MaxAge.Seconds()))
	}
	return p
}

// allowedOrigin returns the Access-Control-Allow-Origin value for origin, or ""
func (p corsPolicy) allowedOrigin(origin string) string {
	if p.wildcard {
		return "*"
	}
	if _, ok := p.origins[origin]; ok && origin != "" {
		return origin
	}
	return ""
}

func (p corsPolicy) apply(h http.Header, allowed string) {
	h.Set("Access-Control-Allow-Origin", allowed)
	// browsers refuse credentials with a wildcard origin
	if p.credentials && allowed != "*" {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	for k, v := range p.headers {
		h.Set(k, v)
	}
}

// CORSWithConfig returns a CORS middleware with custom configuration.
// Preflight requests always end with 204; CORS headers are only added for
// allowed origins.
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)

	return func(c *gin.Context) {
		if allowed := policy.allowedOrigin(c.GetHeader("Origin")); allowed != "" {
			policy.apply(c.Writer.Header(), allowed)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestID adds a unique request ID to each request and stores it on the
// request context for the service layer.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" || len(requestID) > MaxRequestIDLength {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		ctx, _ := logger.WithRequestID(c.Request.Context(), logger.FromContext(c.Request.Context()), requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// SecurityConfig holds configuration for security headers
type SecurityConfig struct {
	// HSTS needs TLS in front of the service
	HSTSEnabled           bool
	HSTSMaxAge            time.Duration
	HSTSIncludeSubdomains bool
	HSTSPreload           bool

	CSPEnabled   bool
	CSPDirective string

	PermissionsPolicyEnabled   bool
	PermissionsPolicyDirective string
}

// DefaultSecurityConfig returns headers for a JSON API: nothing may be
// framed or loaded from responses, and HSTS is left to the TLS terminator.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		HSTSMaxAge:                 365 * 24 * time.Hour,
		HSTSIncludeSubdomains:      true,
		CSPEnabled:                 true,
		CSPDirective:               "default-src 'none'; frame-ancestors 'none'",
		PermissionsPolicyEnabled:   true,
		PermissionsPolicyDirective: "camera=(), geolocation=(), microphone=(), payment=(), usb=()",
	}
}

// Secure adds security headers to responses using default configuration
func Secure() gin.HandlerFunc {
	return SecureWithConfig(DefaultSecurityConfig())
}

// SecureWithConfig adds security headers to responses with custom configuration
func SecureWithConfig(cfg SecurityConfig) gin.HandlerFunc {
	headers := map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "no-referrer",
	}
	if cfg.CSPEnabled && cfg.CSPDirective != "" {
		headers["Content-Security-Policy"] = cfg.CSPDirective
	}
	if cfg.PermissionsPolicyEnabled && cfg.PermissionsPolicyDirective != "" {
		headers["Permissions-Policy"] = cfg.PermissionsPolicyDirective
	}
	if cfg.HSTSEnabled {
		hsts := "max-age=" + strconv.Itoa(int(cfg.HSTSMaxAge.Seconds()))
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		if cfg.HSTSPreload {
			hsts += "; preload"
		}
		headers["Strict-Transport-Security"] = hsts
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for k, v := range headers {
			h.Set(k, v)
		}
		c.Next()
	}
}
