package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/practice-matcher/internal/application"
	"github.com/example/practice-matcher/internal/matching"
	"github.com/example/practice-matcher/internal/persistence"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// PreferenceServiceDeps captures dependencies for a preference service.
type PreferenceServiceDeps struct {
	Profiles    application.ProfileDirectory
	Preferences application.PreferenceStore
	Blocks      application.BlockStore
	Now         func() time.Time
}

// NewPreferenceService builds a preference service using the supplied
// dependencies combined with the factory defaults.
func (f *ServiceFactory) NewPreferenceService(deps PreferenceServiceDeps) *application.PreferenceService {
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewPreferenceService(
		deps.Profiles,
		deps.Preferences,
		deps.Blocks,
		now,
	)
}

// MatchServiceDeps captures dependencies for a match service.
type MatchServiceDeps struct {
	Profiles     application.ProfileDirectory
	Preferences  application.PreferenceStore
	Blocks       application.BlockStore
	Invites      application.InviteReader
	Weights      matching.Weights
	DefaultLimit int
	Now          func() time.Time
}

// NewMatchService builds a match service using the supplied dependencies.
func (f *ServiceFactory) NewMatchService(deps MatchServiceDeps) *application.MatchService {
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewMatchService(
		deps.Profiles,
		deps.Preferences,
		deps.Blocks,
		deps.Invites,
		deps.Weights,
		deps.DefaultLimit,
		now,
	)
}

// InviteServiceDeps captures dependencies for an invite service.
type InviteServiceDeps struct {
	Store        persistence.NegotiationStore
	Invites      application.InviteReader
	Profiles     application.ProfileDirectory
	IDGenerator  func() string
	Now          func() time.Time
	PendingLimit int
	Logger       *slog.Logger
}

// NewInviteService builds an invite service using the supplied dependencies.
func (f *ServiceFactory) NewInviteService(deps InviteServiceDeps) *application.InviteService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewInviteServiceWithLogger(
		deps.Store,
		deps.Invites,
		deps.Profiles,
		idGen,
		now,
		deps.PendingLimit,
		deps.Logger,
	)
}

// SessionServiceDeps captures dependencies for a session service.
type SessionServiceDeps struct {
	Store       persistence.NegotiationStore
	Sessions    application.SessionReader
	IDGenerator func() string
	Now         func() time.Time
}

// NewSessionService builds a session service using the supplied dependencies.
func (f *ServiceFactory) NewSessionService(deps SessionServiceDeps) *application.SessionService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewSessionService(
		deps.Store,
		deps.Sessions,
		idGen,
		now,
	)
}

// MembershipServiceDeps captures dependencies for a membership service.
type MembershipServiceDeps struct {
	Store    persistence.NegotiationStore
	Sessions application.SessionReader
	Now      func() time.Time
}

// NewMembershipService builds a membership service using the supplied
// dependencies.
func (f *ServiceFactory) NewMembershipService(deps MembershipServiceDeps) *application.MembershipService {
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewMembershipService(
		deps.Store,
		deps.Sessions,
		now,
	)
}
