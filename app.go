package main

import (
	"sync"
	"sync/atomic"
	"time"

	"watersower/authflow"
	"watersower/farm"
	"watersower/models"
	"watersower/refdata"

	"go.uber.org/zap"
)

// Registration flows are pre-auth state, so abandoned ones must not pile up:
// each expires after flowTTL, and the table is capped at maxPendingFlows with
// oldest-first eviction.
const (
	flowTTL         = 15 * time.Minute
	maxPendingFlows = 1024
)

// App owns all process state. Nothing persists across restarts: users,
// sessions and in-progress records are in-memory by design.
type App struct {
	cfg Config
	log *zap.Logger

	catalog   *refdata.Catalog
	predictor *predictorClient
	provider  authflow.ChallengeProvider
	reporter  authflow.ReportSender
	registry  *authflow.UserRegistry
	checker   authflow.CredentialChecker

	mu       sync.Mutex
	flows    map[string]flowEntry    // pre-auth registration flows by flow id
	sessions map[string]*userSession // subject id -> live session state
}

// flowEntry tracks when a registration flow was opened so stale ones can be
// swept.
type flowEntry struct {
	flow    *authflow.Flow
	created time.Time
}

// userSession is everything tied to one logged-in farmer.
type userSession struct {
	session models.IdentitySession
	builder *farm.Builder

	// predicting guards the single in-flight prediction per session.
	predicting atomic.Bool

	verdictMu   sync.Mutex
	lastVerdict *models.PredictionVerdict
	lastRecord  *models.FarmRecord
}

func newApp(cfg Config, log *zap.Logger) (*App, error) {
	catalog, err := refdata.Load()
	if err != nil {
		return nil, err
	}

	registry := authflow.NewUserRegistry()
	app := &App{
		cfg:       cfg,
		log:       log,
		catalog:   catalog,
		predictor: newPredictorClient(cfg.PredictorURI),
		provider:  &authflow.MockProvider{AcceptCode: cfg.OTPAcceptCode, Log: log},
		reporter:  &authflow.LogReportSender{Log: log},
		registry:  registry,
		checker:   &authflow.DemoChecker{Registry: registry},
		flows:     map[string]flowEntry{},
		sessions:  map[string]*userSession{},
	}
	return app, nil
}

// flow returns the registration flow for a flow id, if any. Expired flows are
// dropped on lookup as if they never existed.
func (a *App) flow(id string) (*authflow.Flow, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.flows[id]
	if !ok {
		return nil, false
	}
	if time.Since(e.created) > flowTTL {
		delete(a.flows, id)
		return nil, false
	}
	return e.flow, true
}

// newLoginFlow builds a throwaway flow for a single login attempt; the
// password path keeps no server-side progress.
func (a *App) newLoginFlow() *authflow.Flow {
	return authflow.NewFlow(a.provider, a.checker, a.registry)
}

// newFlow registers a fresh registration flow under id, sweeping stale flows
// first so abandoned registrations cannot grow the table without bound.
func (a *App) newFlow(id string) *authflow.Flow {
	f := authflow.NewFlow(a.provider, a.checker, a.registry)
	f.ResetFlow() // start at the phone step
	a.mu.Lock()
	a.sweepFlowsLocked()
	a.flows[id] = flowEntry{flow: f, created: time.Now()}
	a.mu.Unlock()
	return f
}

// sweepFlowsLocked drops expired flows and then, if the table is still at
// capacity, evicts the oldest until a new flow fits. Caller holds a.mu.
func (a *App) sweepFlowsLocked() {
	now := time.Now()
	for id, e := range a.flows {
		if now.Sub(e.created) > flowTTL {
			delete(a.flows, id)
		}
	}
	for len(a.flows) >= maxPendingFlows {
		oldestID := ""
		var oldest time.Time
		for id, e := range a.flows {
			if oldestID == "" || e.created.Before(oldest) {
				oldestID, oldest = id, e.created
			}
		}
		delete(a.flows, oldestID)
	}
}

func (a *App) dropFlow(id string) {
	a.mu.Lock()
	delete(a.flows, id)
	a.mu.Unlock()
}

// openSession creates (or replaces) the live state for an authenticated
// identity: a fresh farm record builder and no verdict.
func (a *App) openSession(s models.IdentitySession) {
	a.mu.Lock()
	a.sessions[s.SubjectID] = &userSession{
		session: s,
		builder: farm.NewBuilder(a.catalog),
	}
	a.mu.Unlock()
}

func (a *App) session(subject string) (*userSession, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	us, ok := a.sessions[subject]
	return us, ok
}

func (a *App) closeSession(subject string) {
	a.mu.Lock()
	delete(a.sessions, subject)
	a.mu.Unlock()
}
