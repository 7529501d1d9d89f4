package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSOptions configures CORS.
type CORSOptions struct {
	// Origins allowed to call the API. Empty or "*" allows any origin.
	Origins []string
	// Methods defaults to GET, POST, PUT, DELETE, OPTIONS.
	Methods []string
	// Headers allowed on requests. When empty the preflight request headers
	// are echoed back.
	Headers []string
	// Expose lists response headers readable by the browser.
	Expose []string
	// Credentials allows cookies and Authorization. With credentials the
	// concrete origin is echoed instead of "*".
	Credentials bool
	// MaxAge of preflight results. Zero omits the header.
	MaxAge int
}

type cors struct {
	any         bool
	origins     map[string]string
	methods     string
	headers     string
	expose      string
	credentials bool
	maxAge      string
}

// CORS answers preflight requests and decorates cross-origin responses.
func CORS(o CORSOptions) Middleware {
	c := &cors{
		origins:     make(map[string]string, len(o.Origins)),
		methods:     "GET, POST, PUT, DELETE, OPTIONS",
		headers:     strings.Join(o.Headers, ", "),
		expose:      strings.Join(o.Expose, ", "),
		credentials: o.Credentials,
	}
	c.any = len(o.Origins) == 0
	for _, origin := range o.Origins {
		if origin == "*" {
			c.any = true
			continue
		}
		c.origins[strings.ToLower(origin)] = origin
	}
	if len(o.Methods) > 0 {
		c.methods = strings.Join(o.Methods, ", ")
	}
	if o.MaxAge > 0 {
		c.maxAge = strconv.Itoa(o.MaxAge)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.serve(w, r, next)
		})
	}
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or
// "" when it is not allowed.
func (c *cors) allowOrigin(origin string) string {
	if c.any {
		if c.credentials {
			return origin
		}
		return "*"
	}
	return c.origins[strings.ToLower(origin)]
}

func (c *cors) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	h := w.Header()
	if !c.any || c.credentials {
		h.Add("Vary", "Origin")
	}

	origin := r.Header.Get("Origin")
	preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
	if origin == "" {
		next.ServeHTTP(w, r)
		return
	}

	allowed := c.allowOrigin(origin)
	if preflight {
		h.Add("Vary", "Access-Control-Request-Method")
		h.Add("Vary", "Access-Control-Request-Headers")
		if allowed != "" {
			h.Set("Access-Control-Allow-Origin", allowed)
			h.Set("Access-Control-Allow-Methods", c.methods)
			if c.headers != "" {
				h.Set("Access-Control-Allow-Headers", c.headers)
			} else if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
				h.Set("Access-Control-Allow-Headers", req)
			}
			if c.credentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if c.maxAge != "" {
				h.Set("Access-Control-Max-Age", c.maxAge)
			}
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if allowed != "" {
		h.Set("Access-Control-Allow-Origin", allowed)
		if c.credentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		if c.expose != "" {
			h.Set("Access-Control-Expose-Headers", c.expose)
		}
	}
	next.ServeHTTP(w, r)
}
