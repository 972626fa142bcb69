// Package inspection implements the request screening pipeline: an ordered
// chain of detectors (signature rules, regex rules, semantic fallback) that
// decides whether an inbound payload reaches the protected application.
package inspection

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medsecurex/gateway/internal/logger"
	"github.com/medsecurex/gateway/internal/metrics"
	"github.com/medsecurex/gateway/internal/rules"
	"github.com/medsecurex/gateway/internal/semantic"
	"github.com/medsecurex/gateway/internal/services"
	"github.com/medsecurex/gateway/internal/util"
)

// Pipeline stages, used for metrics labels and block responses.
const (
	StageSignature = "signature"
	StageRegex     = "regex"
	StageSemantic  = "semantic"
)

// bypassPrefixes are the gateway's own control-plane paths. They skip
// inspection entirely so the gateway never screens its own traffic; the
// exclusion is part of the pipeline contract.
var bypassPrefixes = []string{"/api/", "/admin", "/health", "/metrics"}

// Inspector orchestrates the detectors in fixed order, signature before
// regex before semantic: cheap deterministic checks first, the expensive
// semantic call last, to bound median latency. First match wins.
type Inspector struct {
	signatures *rules.SignatureSet
	regexes    *rules.RegexSet
	semantic   *semantic.Client
	recorder   *services.Recorder

	// failOpen lets requests through when the semantic service is
	// unreachable. The default is fail-closed: block with 503.
	failOpen bool
}

// New creates an Inspector. A nil semantic client disables the fallback
// stage, degrading to rule-sets-only inspection.
func New(sigs *rules.SignatureSet, regexes *rules.RegexSet, sem *semantic.Client, rec *services.Recorder, failOpen bool) *Inspector {
	return &Inspector{
		signatures: sigs,
		regexes:    regexes,
		semantic:   sem,
		recorder:   rec,
		failOpen:   failOpen,
	}
}

// Middleware returns a Gin middleware that screens every non-internal
// request. Blocked requests receive a 403 naming the triggering rule(s);
// an unreachable semantic service yields a 503 without an incident row.
func (i *Inspector) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isBypassed(c.Request.URL.Path) {
			c.Next()
			return
		}

		metrics.IncInspected()
		clientIP := c.ClientIP()
		payload := combinedPayload(c)

		// Stage 1: signature rules, first match wins.
		if name, matched := i.signatures.Eval(payload); matched {
			logger.WithFields(map[string]interface{}{
				"stage": StageSignature,
				"rule":  name,
				"ip":    clientIP,
			}).Warn("request blocked")
			metrics.IncBlocked(StageSignature)
			i.recorder.RecordIncident(clientIP, payload, name)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"detail": "Blocked by signature rule: " + name,
			})
			return
		}

		// Stage 2: regex rules, every match is reported. One pipeline
		// decision, one incident per matched rule.
		if matched := i.regexes.Eval(payload); len(matched) > 0 {
			logger.WithFields(map[string]interface{}{
				"stage": StageRegex,
				"rules": matched,
				"ip":    clientIP,
			}).Warn("request blocked")
			metrics.IncBlocked(StageRegex)
			for _, name := range matched {
				i.recorder.RecordIncident(clientIP, payload, name)
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"detail": "Blocked by regex rule(s): " + strings.Join(matched, ", "),
			})
			return
		}

		// Stage 3: semantic fallback, only when no rule matched.
		if i.semantic != nil {
			verdict, err := i.semantic.Analyze(context.Background(), payload)
			if err != nil {
				metrics.IncSemanticUnreachable()
				logger.WithFields(map[string]interface{}{
					"stage": StageSemantic,
					"ip":    clientIP,
					"error": err.Error(),
				}).Error("semantic analysis unavailable")

				if i.failOpen {
					i.recorder.RecordSuccess(clientIP)
					c.Next()
					return
				}

				// Fail-closed: a service outage, not an attack. No incident
				// row, and the caller sees 503 rather than a rule violation.
				i.recorder.RecordFailure(clientIP)
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
					"detail": "Service Unavailable: Analysis service is down.",
				})
				return
			}

			if verdict.Malicious {
				name := "RAG: " + verdict.DetectedPattern
				logger.WithFields(map[string]interface{}{
					"stage":  StageSemantic,
					"rule":   name,
					"reason": util.SanitizeForLog(verdict.Reason),
					"ip":     clientIP,
				}).Warn("request blocked")
				metrics.IncBlocked(StageSemantic)
				i.recorder.RecordIncident(clientIP, payload, name)
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"detail": "Blocked by RAG analysis: " + name,
				})
				return
			}
		}

		i.recorder.RecordSuccess(clientIP)
		c.Next()
	}
}

func isBypassed(path string) bool {
	for _, prefix := range bypassPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// combinedPayload joins the request body and the query string, the text all
// three detectors evaluate. The query is percent-decoded so encoded attack
// payloads cannot slip past the rule sets; the body is restored so downstream
// handlers can still read it.
func combinedPayload(c *gin.Context) string {
	var body string
	if c.Request.Body != nil {
		raw, err := io.ReadAll(c.Request.Body)
		if err == nil {
			body = string(raw)
			c.Request.Body = io.NopCloser(bytes.NewReader(raw))
		}
	}

	query := c.Request.URL.RawQuery
	if decoded, err := url.QueryUnescape(query); err == nil {
		query = decoded
	}
	return body + query
}
