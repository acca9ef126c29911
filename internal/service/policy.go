package service

import (
	"time"

	"github.com/mkorchagin/shortlink/internal/models"
)

// defaultLinkTTL is the lifetime applied to every temporary link that carries
// no explicit future expiry.
const defaultLinkTTL = 24 * time.Hour

// policyDecision is the resolved permanence outcome for a create request.
// Either isPermanent is true and expiresAt is nil, or the inverse.
type policyDecision struct {
	isPermanent bool
	expiresAt   *time.Time
}

// resolvePolicy maps a create request and its actor to an immutable permanence
// decision. The incoming request is never mutated. Rules, in order:
//
//  1. Permanent links require an authenticated actor.
//  2. Anonymous creations are always temporary with the default lifetime,
//     whatever the request asked for.
//  3. An authenticated actor that leaves is_permanent unset gets a temporary
//     link with the default lifetime.
//  4. An explicit temporary request keeps a caller-supplied expiry only when
//     it lies in the future; otherwise the default lifetime applies.
//  5. An explicit permanent request by an authenticated actor carries no
//     expiry.
func resolvePolicy(req models.CreateLinkRequest, actor *models.User, now time.Time) (policyDecision, error) {
	if req.IsPermanent != nil && *req.IsPermanent && actor == nil {
		return policyDecision{}, ErrPermanentRequiresAuth
	}

	if actor == nil || req.IsPermanent == nil {
		exp := now.Add(defaultLinkTTL)
		return policyDecision{isPermanent: false, expiresAt: &exp}, nil
	}

	if !*req.IsPermanent {
		if req.ExpiresAt != nil && req.ExpiresAt.After(now) {
			exp := req.ExpiresAt.UTC()
			return policyDecision{isPermanent: false, expiresAt: &exp}, nil
		}
		exp := now.Add(defaultLinkTTL)
		return policyDecision{isPermanent: false, expiresAt: &exp}, nil
	}

	return policyDecision{isPermanent: true}, nil
}
