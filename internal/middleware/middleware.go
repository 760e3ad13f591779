package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lunch-voting/internal/logger"
	"lunch-voting/internal/utils"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const AppVersionHeader = "App-Version"

// AppVersion answers 426 to clients whose App-Version header is below minVersion.
// A missing or non-numeric header passes through.
func AppVersion(minVersion float64, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(AppVersionHeader))
			if raw != "" {
				if v, err := strconv.ParseFloat(raw, 64); err == nil && v < minVersion {
					log.Warn("API", fmt.Sprintf("rejected client version %s on %s %s", raw, r.Method, r.URL.Path))
					utils.WriteError(w, http.StatusUpgradeRequired, "Unsupported app version. Please update.")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger writes one API line per request with its final status.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.LogAPI(r.Method, r.URL.Path, status, time.Since(start).Round(time.Millisecond))
		})
	}
}

func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", AppVersionHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
