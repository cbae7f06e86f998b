package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	verificationCodesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "verification_codes_issued_total",
		Help: "Verification codes generated and handed to the email sender.",
	})

	verificationRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "verification_rate_limited_total",
		Help: "Verification email requests rejected by the per-user window.",
	})

	verificationConfirmations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verification_confirmations_total",
		Help: "Verification code confirmations by result.",
	}, []string{"result"})

	verificationCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verification_cache_lookups_total",
		Help: "Cached verification flag lookups by result.",
	}, []string{"result"})
)

const (
	resultSuccess = "success"
	resultInvalid = "invalid"
	resultMissing = "missing"

	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)
