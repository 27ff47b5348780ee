// File: internal/identity/resolver.go
package identity

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/assessment-export/api/schemas"
	"github.com/xkilldash9x/assessment-export/internal/config"
)

// Reserved subIds for administratively overridden scores.
const (
	OverrideScores  = "override-scores"
	OverrideTargets = "override-targets"
)

// RollupDelimiter separates the business unit and assessment ids of a rollup subId.
const RollupDelimiter = "::"

// Display fallbacks for rollup subIds.
const (
	UnknownAssessment     = "Unknown Assessment"
	UnknownBusinessUnit   = "UnknownBusinessUnit"
	UnknownAssessmentName = "UnknownAssessmentName"
)

// Kind is the shape of a subId.
type Kind int

const (
	KindUser Kind = iota
	KindOverride
	KindRollup
	KindMalformedRollup
	KindPassthrough
)

func (k Kind) String() string {
	switch k {
	case KindOverride:
		return "override"
	case KindRollup:
		return "rollup"
	case KindMalformedRollup:
		return "malformed-rollup"
	case KindPassthrough:
		return "passthrough"
	default:
		return "user"
	}
}

// Source is the remote lookup surface the resolver needs.
type Source interface {
	ListAssessments(ctx context.Context, businessUnitID string) ([]schemas.Assessment, error)
	GetUser(ctx context.Context, userID string) (*schemas.User, error)
}

// Classify decides how a subId is resolved.
func Classify(subID string, cfg config.IdentityConfig) Kind {
	switch {
	case subID == OverrideScores || subID == OverrideTargets:
		return KindOverride
	case strings.Contains(subID, RollupDelimiter):
		if len(strings.Split(subID, RollupDelimiter)) != 2 {
			return KindMalformedRollup
		}
		return KindRollup
	case cfg.PassthroughFixedLength && len(subID) == cfg.FixedLength:
		return KindPassthrough
	default:
		return KindUser
	}
}

// Resolver turns subIds into display identities. Successful resolutions are
// cached for the lifetime of the Resolver. Not safe for concurrent use.
type Resolver struct {
	src    Source
	cfg    config.IdentityConfig
	logger *zap.Logger
	cache  map[string]schemas.Identity
}

// NewResolver returns a Resolver backed by src.
func NewResolver(src Source, cfg config.IdentityConfig, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		src:    src,
		cfg:    cfg,
		logger: logger.Named("identity"),
		cache:  make(map[string]schemas.Identity),
	}
}

// Resolve never fails. Any lookup error degrades to an identity whose
// display name is the raw subId.
func (r *Resolver) Resolve(ctx context.Context, subID string) (id schemas.Identity) {
	if cached, ok := r.cache[subID]; ok {
		return cached
	}

	defer func() {
		if p := recover(); p != nil {
			id = r.degrade(subID, fmt.Errorf("panic: %v", p))
		}
	}()

	id, err := r.resolve(ctx, subID)
	if err != nil {
		return r.degrade(subID, err)
	}
	r.cache[subID] = id
	return id
}

func (r *Resolver) resolve(ctx context.Context, subID string) (schemas.Identity, error) {
	label := schemas.Some(schemas.PlaceholderLabel)

	switch Classify(subID, r.cfg) {
	case KindOverride, KindPassthrough:
		return schemas.Identity{SubID: subID, DisplayName: schemas.Some(subID), Email: label}, nil

	case KindMalformedRollup:
		return schemas.Identity{}, fmt.Errorf("malformed rollup subId: expected exactly one %q", RollupDelimiter)

	case KindRollup:
		buID, assessmentID, _ := strings.Cut(subID, RollupDelimiter)
		listed, err := r.src.ListAssessments(ctx, buID)
		if err != nil {
			return schemas.Identity{}, err
		}
		for _, a := range listed {
			if a.AssessmentID == assessmentID {
				name := a.BusinessUnitName.Or(UnknownBusinessUnit) + RollupDelimiter + a.AssessmentName.Or(UnknownAssessmentName)
				return schemas.Identity{SubID: subID, DisplayName: schemas.Some(name), Email: label}, nil
			}
		}
		return schemas.Identity{SubID: subID, DisplayName: schemas.Some(UnknownAssessment), Email: label}, nil

	default:
		user, err := r.src.GetUser(ctx, subID)
		if err != nil {
			return schemas.Identity{}, err
		}
		if user == nil {
			user = &schemas.User{}
		}
		return schemas.Identity{SubID: subID, DisplayName: user.DisplayName, Email: user.Email}, nil
	}
}

func (r *Resolver) degrade(subID string, err error) schemas.Identity {
	r.logger.Warn("Error retrieving sub/user", zap.String("subId", subID), zap.Error(err))
	return schemas.Identity{
		SubID:       subID,
		DisplayName: schemas.Some(subID),
		Email:       schemas.Some(schemas.PlaceholderLabel),
	}
}
