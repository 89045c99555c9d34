package application

import (
	"errors"

	"github.com/bryanwahyu/voicemood/internal/domain/ai"
	"github.com/bryanwahyu/voicemood/internal/domain/apperr"
)

// UpstreamError converts a provider failure into an UpstreamFailure whose
// message is prefix plus the provider's own message, when it gave one.
// Transport detail stays in the wrapped cause.
func UpstreamError(prefix string, err error) error {
	var perr *ai.ProviderError
	if errors.As(err, &perr) && perr.Message != "" {
		return apperr.Upstream(prefix+": "+perr.Message, err)
	}
	if errors.Is(err, ai.ErrQuotaExceeded) {
		return apperr.Upstream(prefix+": quota exceeded", err)
	}
	return apperr.Upstream(prefix, err)
}
