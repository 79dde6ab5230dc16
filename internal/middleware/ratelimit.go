package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/status-stream/internal/ratelimit"
)

type compiledRule struct {
	name    string
	pattern *regexp.Regexp
	limit   int
	window  time.Duration
}

// RateLimit returns middleware enforcing the first rule whose pattern
// matches the path. A stream counts as one request for its whole lifetime.
func RateLimit(
	log logrus.FieldLogger,
	cfg ratelimit.Config,
	limiter ratelimit.Service,
) func(http.Handler) http.Handler {
	compiledRules := make([]compiledRule, len(cfg.Rules))
	for i, rule := range cfg.Rules {
		compiledRules[i] = compiledRule{
			name:    rule.Name,
			pattern: regexp.MustCompile(rule.PathPattern),
			limit:   rule.Limit,
			window:  rule.Window,
		}
	}

	exemptNets := parseExemptIPs(cfg.ExemptIPs)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := extractClientIP(r)

			if isExempt(ip, exemptNets) {
				next.ServeHTTP(w, r)

				return
			}

			rule := findMatchingRule(r.URL.Path, compiledRules)
			if rule == nil {
				next.ServeHTTP(w, r)

				return
			}

			allowed, remaining, resetAt, err := limiter.Allow(r.Context(), ip, rule.name, rule.limit, rule.window)
			if err != nil {
				ratelimit.ErrorsTotal.WithLabelValues("redis_error").Inc()

				log.WithError(err).WithFields(logrus.Fields{
					"ip":   ip,
					"path": r.URL.Path,
					"rule": rule.name,
				}).Error("rate limit check failed")

				// The limiter's failure mode already decided.
				if !allowed {
					writeRateLimitError(w, "service unavailable", 0)

					return
				}
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rule.limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !allowed {
				ratelimit.DeniedTotal.WithLabelValues(rule.name).Inc()

				retryAfter := int(time.Until(resetAt).Seconds())
				if retryAfter < 0 {
					retryAfter = int(rule.window.Seconds())
				}

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeRateLimitError(w, "rate limit exceeded", retryAfter)

				log.WithFields(logrus.Fields{
					"ip":          ip,
					"path":        r.URL.Path,
					"rule":        rule.name,
					"retry_after": retryAfter,
				}).Warn("rate limit exceeded")

				return
			}

			ratelimit.AllowedTotal.WithLabelValues(rule.name).Inc()
			next.ServeHTTP(w, r)
		})
	}
}

// extractClientIP prefers proxy headers over the socket address:
// CF-Connecting-IP, then the first X-Forwarded-For hop, then X-Real-IP.
func extractClientIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}

func parseExemptIPs(exemptIPs []string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(exemptIPs))

	for _, cidr := range exemptIPs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			if ip := net.ParseIP(cidr); ip != nil {
				if ip.To4() != nil {
					_, network, _ = net.ParseCIDR(cidr + "/32")
				} else {
					_, network, _ = net.ParseCIDR(cidr + "/128")
				}

				nets = append(nets, network)
			}

			continue
		}

		nets = append(nets, network)
	}

	return nets
}

func isExempt(ip string, exemptNets []*net.IPNet) bool {
	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}

	for _, network := range exemptNets {
		if network.Contains(parsedIP) {
			return true
		}
	}

	return false
}

func findMatchingRule(path string, rules []compiledRule) *compiledRule {
	for i := range rules {
		if rules[i].pattern.MatchString(path) {
			return &rules[i]
		}
	}

	return nil
}

func writeRateLimitError(w http.ResponseWriter, message string, retryAfter int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	response := map[string]any{
		"error":  message,
		"status": http.StatusTooManyRequests,
	}

	if retryAfter > 0 {
		response["retry_after"] = retryAfter
	}

	_ = json.NewEncoder(w).Encode(response)
}
