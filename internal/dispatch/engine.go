package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abnp-academy/campaign-dispatch/internal/campaign"
	"github.com/abnp-academy/campaign-dispatch/internal/mailer"
	"github.com/abnp-academy/campaign-dispatch/internal/store"
	"github.com/abnp-academy/campaign-dispatch/pkg/logx"
	"github.com/abnp-academy/campaign-dispatch/pkg/metrics"
)

var (
	// ErrNotFound means the campaign id matched no record.
	ErrNotFound = errors.New("campaign not found")
	// ErrInvalidState means the campaign was not in draft at dispatch time.
	ErrInvalidState = errors.New("only draft campaigns can be dispatched")
)

// ResolutionError wraps a recipient-lookup failure. The campaign has been
// returned to draft unless the error says otherwise.
type ResolutionError struct {
	err error
}

func (e *ResolutionError) Error() string { return "resolve recipients: " + e.err.Error() }
func (e *ResolutionError) Unwrap() error { return e.err }

type campaignStore interface {
	GetCampaign(ctx context.Context, id string) (campaign.Campaign, error)
	BeginSending(ctx context.Context, id string) (bool, error)
	FinishSending(ctx context.Context, id string, sentCount int, at time.Time) error
	ReturnToDraft(ctx context.Context, id string) error
	MarkCancelled(ctx context.Context, id string, sentCount int, at time.Time) error
}

type recipientResolver interface {
	Resolve(ctx context.Context) ([]string, error)
}

type eventPublisher interface {
	PublishJSON(ctx context.Context, body []byte) error
}

// Config controls batch pacing. The transport is rate limited, so sends go
// out in groups of BatchSize with a BatchDelay pause between groups.
type Config struct {
	BatchSize  int
	BatchDelay time.Duration
}

const (
	defaultBatchSize  = 10
	defaultBatchDelay = time.Second
)

// Engine runs the whole dispatch pipeline for one campaign: status gate,
// recipient resolution, batched delivery, final report. It keeps no state
// of its own between invocations.
type Engine struct {
	store    campaignStore
	resolver recipientResolver
	sender   mailer.Sender
	events   eventPublisher
	cfg      Config

	now   func() time.Time
	pause func(ctx context.Context, d time.Duration) error
}

// New builds an Engine. events may be nil, which disables event publishing.
func New(st campaignStore, res recipientResolver, snd mailer.Sender, events eventPublisher, cfg Config) *Engine {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.BatchDelay == 0 {
		cfg.BatchDelay = defaultBatchDelay
	}
	return &Engine{
		store:    st,
		resolver: res,
		sender:   snd,
		events:   events,
		cfg:      cfg,
		now:      time.Now,
		pause:    sleepCtx,
	}
}

// Dispatch delivers a draft campaign to every resolved recipient and
// persists the outcome. The draft->sending transition is a single
// conditional write, so of two concurrent calls exactly one proceeds.
// Individual send failures are counted, never surfaced. Once sending has
// begun the campaign always ends in sent (or cancelled, if ctx fires),
// even when every send failed.
func (e *Engine) Dispatch(ctx context.Context, campaignID string) (campaign.Result, error) {
	start := e.now()
	var res campaign.Result

	c, err := e.store.GetCampaign(ctx, campaignID)
	if errors.Is(err, store.ErrNoCampaign) {
		metrics.DispatchRunsTotal.WithLabelValues("not_found").Inc()
		return res, fmt.Errorf("%w: %s", ErrNotFound, campaignID)
	}
	if err != nil {
		return res, err
	}
	if !c.Status.CanDispatch() {
		metrics.DispatchRunsTotal.WithLabelValues("invalid_state").Inc()
		return res, fmt.Errorf("%w: status is %s", ErrInvalidState, c.Status)
	}

	html, err := mailer.RenderCampaign(c.Subject, c.Content)
	if err != nil {
		return res, fmt.Errorf("render campaign body: %w", err)
	}

	won, err := e.store.BeginSending(ctx, campaignID)
	if err != nil {
		return res, fmt.Errorf("begin sending: %w", err)
	}
	if !won {
		// Lost the draft->sending race to a concurrent dispatcher.
		metrics.DispatchRunsTotal.WithLabelValues("invalid_state").Inc()
		return res, fmt.Errorf("%w: already left draft", ErrInvalidState)
	}

	recipients, err := e.resolver.Resolve(ctx)
	if err != nil {
		metrics.DispatchRunsTotal.WithLabelValues("resolution_failed").Inc()
		if rbErr := e.store.ReturnToDraft(detached(ctx), campaignID); rbErr != nil {
			logx.L().Errorw("return_to_draft_error",
				"campaign_id", campaignID, "error", rbErr)
			return res, &ResolutionError{err: fmt.Errorf("%w (campaign left in sending: %v)", err, rbErr)}
		}
		return res, &ResolutionError{err: err}
	}

	logx.L().Infow("dispatch_started",
		"campaign_id", campaignID,
		"recipients", len(recipients),
		"batch_size", e.cfg.BatchSize,
	)

	for i := 0; i < len(recipients); i += e.cfg.BatchSize {
		if i > 0 {
			if err := e.pause(ctx, e.cfg.BatchDelay); err != nil {
				return e.cancel(ctx, campaignID, res, err)
			}
		}
		end := i + e.cfg.BatchSize
		if end > len(recipients) {
			end = len(recipients)
		}
		for _, addr := range recipients[i:end] {
			if err := ctx.Err(); err != nil {
				return e.cancel(ctx, campaignID, res, err)
			}
			if err := e.sender.Send(ctx, mailer.Message{To: addr, Subject: c.Subject, HTML: html}); err != nil {
				res.Failed++
				metrics.DispatchEmailsFailed.Inc()
				logx.L().Warnw("send_failed",
					"campaign_id", campaignID, "address", addr, "error", err)
				continue
			}
			res.Sent++
			metrics.DispatchEmailsSent.Inc()
		}
	}

	finishedAt := e.now()
	if err := e.store.FinishSending(detached(ctx), campaignID, res.Sent, finishedAt); err != nil {
		logx.L().Errorw("finish_sending_error", "campaign_id", campaignID, "error", err)
		return res, fmt.Errorf("finalize campaign: %w", err)
	}

	metrics.DispatchRunsTotal.WithLabelValues("sent").Inc()
	metrics.DispatchRunDuration.Observe(e.now().Sub(start).Seconds())
	logx.L().Infow("dispatch_finished",
		"campaign_id", campaignID, "sent", res.Sent, "failed", res.Failed)

	e.publishEvent(ctx, campaign.SentEvent{
		CampaignID: campaignID,
		Status:     campaign.StatusSent,
		SentCount:  res.Sent,
		ErrorCount: res.Failed,
		FinishedAt: finishedAt,
	})
	return res, nil
}

// cancel persists the cancelled state with the partial counts once the
// caller's context fires mid-run.
func (e *Engine) cancel(ctx context.Context, campaignID string, res campaign.Result, cause error) (campaign.Result, error) {
	at := e.now()
	if err := e.store.MarkCancelled(detached(ctx), campaignID, res.Sent, at); err != nil {
		logx.L().Errorw("mark_cancelled_error", "campaign_id", campaignID, "error", err)
		return res, fmt.Errorf("dispatch cancelled, campaign left in sending: %w", cause)
	}
	metrics.DispatchRunsTotal.WithLabelValues("cancelled").Inc()
	logx.L().Infow("dispatch_cancelled",
		"campaign_id", campaignID, "sent", res.Sent, "failed", res.Failed)

	e.publishEvent(ctx, campaign.SentEvent{
		CampaignID: campaignID,
		Status:     campaign.StatusCancelled,
		SentCount:  res.Sent,
		ErrorCount: res.Failed,
		FinishedAt: at,
	})
	return res, cause
}

// publishEvent is best effort: the run's outcome is already durable in the
// store, so a queue outage only costs the tracking side an event.
func (e *Engine) publishEvent(ctx context.Context, ev campaign.SentEvent) {
	if e.events == nil {
		return
	}
	body, err := json.Marshal(ev)
	if err != nil {
		logx.L().Errorw("event_marshal_error", "campaign_id", ev.CampaignID, "error", err)
		return
	}
	pubCtx, cancel := context.WithTimeout(detached(ctx), 5*time.Second)
	defer cancel()
	if err := e.events.PublishJSON(pubCtx, body); err != nil {
		logx.L().Warnw("event_publish_error", "campaign_id", ev.CampaignID, "error", err)
		return
	}
	metrics.EventsPublishedTotal.Inc()
}

// detached keeps the values of ctx but survives its cancellation, for
// writes that must land even when the run is being torn down.
func detached(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
