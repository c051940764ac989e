package middleware

import (
	"context"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/models"
	"github.com/Temutjin2k/ride-dispatch/pkg/logger"
)

type (
	IdentityVerifier interface {
		Verify(ctx context.Context, token string) (*models.Identity, error)
	}

	Middleware struct {
		verifier IdentityVerifier
		log      logger.Logger
	}
)

func NewMiddleware(verifier IdentityVerifier, log logger.Logger) *Middleware {
	return &Middleware{
		verifier: verifier,
		log:      log,
	}
}
