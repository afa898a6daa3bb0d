package promotion

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Evaluator validates a promotion code against a cart subtotal and returns
// the promotion together with its computed discount. Evaluation has no side
// effects: a user may validate the same code any number of times without
// consuming a use.
type Evaluator interface {
	Evaluate(ctx context.Context, code string, subtotal decimal.Decimal) (*Promotion, Discount, error)
}

// RepoEvaluator implements Evaluator by looking up promotion rules from a
// Repository and applying them via Apply.
type RepoEvaluator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoEvaluator creates a RepoEvaluator backed by the given Repository.
func NewRepoEvaluator(repo Repository) *RepoEvaluator {
	return &RepoEvaluator{repo: repo, now: time.Now}
}

// Evaluate looks up the promotion for the given code, checks temporal
// validity, usage limits, and the minimum-amount constraint, and returns the
// computed discount.
func (e *RepoEvaluator) Evaluate(ctx context.Context, code string, subtotal decimal.Decimal) (*Promotion, Discount, error) {
	if code == "" {
		return nil, Discount{}, ErrEmptyCode
	}
	if subtotal.IsNegative() {
		return nil, Discount{}, errors.New("subtotal must not be negative")
	}

	p, err := e.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, Discount{}, ErrNotFound
		}
		return nil, Discount{}, errors.Wrap(err, "lookup promotion")
	}

	now := e.now()

	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return nil, Discount{}, ErrExpired
	}
	if p.EndsAt != nil && now.After(*p.EndsAt) {
		return nil, Discount{}, ErrExpired
	}

	if p.UsageLimit > 0 && p.UsedCount >= p.UsageLimit {
		return nil, Discount{}, ErrLimitReached
	}

	if subtotal.LessThan(p.MinAmount) {
		return nil, Discount{}, ErrMinAmountNotMet
	}

	d, err := Apply(p, subtotal)
	if err != nil {
		return nil, Discount{}, err
	}

	return p, d, nil
}
