package manager

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/gamevault/admin-connector/internal/bus"
	"github.com/gamevault/admin-connector/internal/cache"
	"github.com/gamevault/admin-connector/internal/config"
	"github.com/gamevault/admin-connector/internal/diff"
	"github.com/gamevault/admin-connector/internal/notify"
	"github.com/gamevault/admin-connector/internal/refresh"
	"github.com/gamevault/admin-connector/internal/rest"
	"github.com/gamevault/admin-connector/internal/socket"
	"github.com/gamevault/admin-connector/pkg/interfaces"
	"github.com/gamevault/admin-connector/pkg/logger"
	"github.com/gamevault/admin-connector/pkg/schema"
)

// ErrTornDown is returned by Connect after Teardown. A Sync instance covers
// one login session; build a new one for the next.
var ErrTornDown = errors.New("sync manager has been torn down")

// Options configures a Sync. Tokens is required; the rest default.
type Options struct {
	Config     config.Config
	Tokens     interfaces.TokenProvider
	Notifier   interfaces.Notifier         // nil disables system notifications
	Visibility interfaces.VisibilitySource // nil means always visible
	REST       interfaces.RESTClient       // nil builds the default client
}

// Sync owns the whole synchronization pipeline for one admin session: the
// socket client, the feed registry, the snapshot cache, change detection, the
// notification policy, and the debounced refresh coordinator with its REST
// fallback. Consumers interact through the sdk facade, which wraps exactly one
// Sync.
type Sync struct {
	cfg        config.Config
	socket     *socket.Client
	registry   *cache.FeedRegistry
	store      *cache.SnapshotStore
	events     *bus.Bus
	coord      *refresh.Coordinator
	rest       interfaces.RESTClient
	dispatcher *notify.Dispatcher
	visibility interfaces.VisibilitySource

	cancelData func()
	dataDone   chan struct{}

	mu       sync.Mutex
	tornDown bool
}

// NewSync wires the pipeline. Nothing touches the network until Connect.
func NewSync(opts Options) *Sync {
	cfg := opts.Config
	vis := opts.Visibility
	if vis == nil {
		vis = interfaces.VisibilityFunc(func() interfaces.Visibility { return interfaces.VisibilityVisible })
	}
	restClient := opts.REST
	if restClient == nil {
		restClient = rest.NewClient(cfg.BaseURL, cfg.RESTTimeout(), opts.Tokens)
	}

	s := &Sync{
		cfg:        cfg,
		registry:   cache.NewFeedRegistry(),
		store:      cache.NewSnapshotStore(),
		events:     bus.New(),
		rest:       restClient,
		dispatcher: notify.NewDispatcher(opts.Notifier),
		visibility: vis,
	}
	s.socket = socket.NewClient(cfg.SocketURL(), opts.Tokens, s.registry, s.events)
	s.coord = refresh.NewCoordinator(s.socket, s.pull, cfg.DebounceWindow(), cfg.ReplyTimeout())

	dataCh, cancel := s.events.Subscribe(bus.DataReceived)
	s.cancelData = cancel
	s.dataDone = make(chan struct{})
	go s.consumeData(dataCh)

	return s
}

// Connect opens the socket, authenticating with the current token. Safe to
// call repeatedly while connected.
func (s *Sync) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.tornDown {
		s.mu.Unlock()
		return ErrTornDown
	}
	s.mu.Unlock()

	if s.dispatcher.EnsurePermission() == interfaces.PermissionDenied {
		logger.Info("sync: system notifications denied, running without them")
	}
	return s.socket.Connect(ctx)
}

// Teardown closes the socket, drops every registered handler and cached
// snapshot, and stops the coordinator and bus. The instance is dead afterwards.
func (s *Sync) Teardown() {
	s.mu.Lock()
	if s.tornDown {
		s.mu.Unlock()
		return
	}
	s.tornDown = true
	s.mu.Unlock()

	s.coord.Close()
	s.socket.Close()
	s.store.Reset()
	s.cancelData()
	<-s.dataDone
	s.events.Close()
}

// IsConnected reports the transport state.
func (s *Sync) IsConnected() bool { return s.socket.IsConnected() }

// Registry exposes the per-feed handler registration surface.
func (s *Sync) Registry() *cache.FeedRegistry { return s.registry }

// Events exposes the bus for Subscribe.
func (s *Sync) Events() *bus.Bus { return s.events }

// REST exposes the mutation and fallback client.
func (s *Sync) REST() interfaces.RESTClient { return s.rest }

// RequestRefresh schedules a debounced refresh of the feed. onSettled may be
// nil.
func (s *Sync) RequestRefresh(feed schema.FeedName, onSettled func(refresh.Reason)) {
	s.coord.Request(feed, onSettled)
}

// RefreshAfterMutation refreshes the feed an admin action just changed.
func (s *Sync) RefreshAfterMutation(resp schema.ActionResponse, feed schema.FeedName) {
	if resp.Success {
		s.coord.Request(feed, nil)
	}
}

// consumeData runs change detection over every data payload, regardless of
// whether it arrived by push or by the REST fallback. Bus delivery is
// single-goroutine and ordered, so snapshot swaps here need no extra
// serialization.
func (s *Sync) consumeData(ch <-chan bus.Event) {
	defer close(s.dataDone)
	for ev := range ch {
		switch payload := ev.Payload.(type) {
		case schema.ProfilesPayload:
			s.handleProfiles(payload)
		case schema.WithdrawalsPayload:
			s.handleWithdrawals(payload)
		case schema.StatisticsPayload:
			// statistics carry no actionable transitions
		default:
			logger.Warn("sync: unhandled payload type for feed %s", ev.Feed)
		}
	}
}

func (s *Sync) handleProfiles(p schema.ProfilesPayload) {
	rows := schema.FlattenProfiles(p.ProfileList())
	old := s.store.SwapProfiles(rows)
	s.notifyChanges(diff.Profiles(old, rows))
	s.coord.NoteReply(schema.FeedGameManagement)
}

func (s *Sync) handleWithdrawals(p schema.WithdrawalsPayload) {
	ws := p.WithdrawalList()
	old := s.store.SwapWithdrawals(ws)
	s.notifyChanges(diff.Withdrawals(old, ws))
	s.coord.NoteReply(schema.FeedWithdrawalManagement)
}

func (s *Sync) notifyChanges(records []schema.ChangeRecord) {
	if len(records) == 0 {
		return
	}
	notifications := notify.Evaluate(records, s.visibility.Visibility())
	if sent := s.dispatcher.SendAll(notifications); sent > 0 {
		logger.Info("sync: delivered %d change notification(s)", sent)
	}
}

// pull is the coordinator's REST fallback. Fetched data re-enters the normal
// dispatch path, so registered handlers and change detection see the same
// payload shapes either way.
func (s *Sync) pull(ctx context.Context, feed schema.FeedName) error {
	switch feed {
	case schema.FeedGameManagement:
		profiles, err := s.rest.GetProfiles(ctx)
		if err != nil {
			s.events.PublishError(err.Error())
			return errors.Wrap(err, "pull game profiles")
		}
		payload := schema.ProfilesPayload{Success: true, Profiles: profiles}
		s.registry.DispatchGameProfiles(payload)
		s.events.PublishData(schema.FeedGameManagement, payload)

		stats, err := s.rest.GetStatistics(ctx)
		if err != nil {
			logger.Warn("sync: statistics fallback failed: %v", err)
			return nil
		}
		statsPayload := schema.StatisticsPayload{Success: true, Statistics: &stats}
		s.registry.DispatchGameStatistics(statsPayload)
		s.events.PublishData(schema.FeedGameManagement, statsPayload)
		return nil

	case schema.FeedWithdrawalManagement:
		ws, err := s.rest.GetPendingWithdrawals(ctx)
		if err != nil {
			s.events.PublishError(err.Error())
			return errors.Wrap(err, "pull pending withdrawals")
		}
		payload := schema.WithdrawalsPayload{Success: true, PendingWithdrawals: ws}
		s.registry.DispatchWithdrawals(payload)
		s.events.PublishData(schema.FeedWithdrawalManagement, payload)
		return nil
	}
	return errors.Errorf("unknown feed %q", feed)
}
