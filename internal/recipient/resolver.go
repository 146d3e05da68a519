package recipient

import (
	"context"
	"fmt"

	"github.com/abnp-academy/campaign-dispatch/internal/store"
)

type principalSource interface {
	OptedInUserIDs(ctx context.Context) ([]string, error)
	ListAccountEmails(ctx context.Context) ([]store.AccountEmail, error)
}

// Resolver computes the recipient set for a broadcast campaign: identity
// accounts with an email, intersected with profiles that opted in to
// email notifications. Addresses are deduplicated, so a run never delivers
// twice to the same address.
type Resolver struct {
	Source principalSource
}

func New(src principalSource) *Resolver { return &Resolver{Source: src} }

// Resolve returns the eligible addresses. An empty list is a valid result,
// not an error.
func (r *Resolver) Resolve(ctx context.Context) ([]string, error) {
	optedIn, err := r.Source.OptedInUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list opted-in profiles: %w", err)
	}

	accounts, err := r.Source.ListAccountEmails(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	enabled := make(map[string]struct{}, len(optedIn))
	for _, id := range optedIn {
		enabled[id] = struct{}{}
	}

	seen := make(map[string]struct{}, len(accounts))
	var out []string
	for _, a := range accounts {
		if a.Email == "" {
			continue
		}
		if _, ok := enabled[a.UserID]; !ok {
			continue
		}
		if _, dup := seen[a.Email]; dup {
			continue
		}
		seen[a.Email] = struct{}{}
		out = append(out, a.Email)
	}
	return out, nil
}
