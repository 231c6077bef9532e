package usecases

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"rsvpbot/internal/entities"
	"rsvpbot/internal/interfaces"
	"rsvpbot/internal/repository"
)

var (
	ErrJobRunning           = errors.New("a broadcast job is already running")
	ErrNoRecipients         = errors.New("no recipients matched the requested range")
	ErrSenderNotConfigured  = errors.New("message sender credentials missing")
	ErrGatewayNotConfigured = errors.New("recipient gateway credentials missing")
	ErrTemplateRequired     = errors.New("template name is required")
)

const (
	defaultBatchSize    = 10
	defaultLanguageCode = "es_MX"
)

// BroadcastOrchestrator runs at most one campaign at a time: fetch the
// target list, then fan out templated sends under a batch/pause
// throttle, accounting every attempt.
type BroadcastOrchestrator struct {
	sender     interfaces.MessageSender
	recipients interfaces.RecipientGateway
	sink       interfaces.DeliveryLogger
	deliveries *repository.DeliveryRepository
	notifier   interfaces.Notifier
	log        zerolog.Logger

	mu       sync.Mutex
	job      *entities.BroadcastJob
	starting bool // slot reserved while Start fetches recipients

	sleep func(time.Duration) // swapped out in tests
}

func NewBroadcastOrchestrator(sender interfaces.MessageSender, recipients interfaces.RecipientGateway, sink interfaces.DeliveryLogger, log zerolog.Logger) *BroadcastOrchestrator {
	return &BroadcastOrchestrator{
		sender:     sender,
		recipients: recipients,
		sink:       sink,
		log:        log.With().Str("component", "broadcast").Logger(),
		sleep:      time.Sleep,
	}
}

// WithDeliveryRepository attaches the local delivery_log store.
func (o *BroadcastOrchestrator) WithDeliveryRepository(repo *repository.DeliveryRepository) *BroadcastOrchestrator {
	o.deliveries = repo
	return o
}

// WithNotifier attaches the operator notifier for completion summaries.
func (o *BroadcastOrchestrator) WithNotifier(n interfaces.Notifier) *BroadcastOrchestrator {
	o.notifier = n
	return o
}

// Start validates the request, fetches the recipient list synchronously
// and, on success, launches the send loop in the background. The
// returned snapshot is the freshly created job.
func (o *BroadcastOrchestrator) Start(cfg entities.BroadcastConfig) (entities.BroadcastJob, error) {
	if !o.sender.Configured() {
		return entities.BroadcastJob{}, ErrSenderNotConfigured
	}
	if !o.recipients.Configured() {
		return entities.BroadcastJob{}, ErrGatewayNotConfigured
	}
	if cfg.TemplateName == "" {
		return entities.BroadcastJob{}, ErrTemplateRequired
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.PauseSeconds < 0 {
		cfg.PauseSeconds = 0
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = defaultLanguageCode
	}

	// Reserve the single job slot before the (blocking) recipient
	// fetch, so a concurrent Start is rejected instead of racing.
	o.mu.Lock()
	if o.starting || (o.job != nil && o.job.Running) {
		o.mu.Unlock()
		return entities.BroadcastJob{}, ErrJobRunning
	}
	o.starting = true
	o.mu.Unlock()

	list, err := o.recipients.FetchRecipients(entities.RecipientQuery{
		FromID:              cfg.FromID,
		ToID:                cfg.ToID,
		OnlyActive:          true,
		OnlyWithPhone:       true,
		OnlyNotConfirmed:    cfg.OnlyNotConfirmed,
		MinDaysSinceInitial: cfg.MinDaysSinceInitial,
		InitialTemplateName: cfg.InitialTemplateName,
	})
	if err != nil {
		o.release()
		return entities.BroadcastJob{}, fmt.Errorf("fetch recipients: %w", err)
	}
	if len(list) == 0 {
		o.release()
		return entities.BroadcastJob{}, ErrNoRecipients
	}

	job := &entities.BroadcastJob{
		Running:   true,
		Config:    cfg,
		StartedAt: time.Now(),
		Total:     len(list),
	}

	o.mu.Lock()
	o.job = job
	o.starting = false
	snapshot := *job
	o.mu.Unlock()

	o.log.Info().Int("total", len(list)).Str("template", cfg.TemplateName).Msg("broadcast started")
	go o.run(job, list)

	return snapshot, nil
}

// Status returns a snapshot of the current or most recent job. ok is
// false when no job has ever been started.
func (o *BroadcastOrchestrator) Status() (entities.BroadcastJob, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.job == nil {
		return entities.BroadcastJob{}, false
	}
	return *o.job, true
}

func (o *BroadcastOrchestrator) release() {
	o.mu.Lock()
	o.starting = false
	o.mu.Unlock()
}

// run is the detached send loop. Per-recipient failures never abort it;
// only a panic escaping an iteration ends the job early, recorded once
// in LastError.
func (o *BroadcastOrchestrator) run(job *entities.BroadcastJob, list []entities.Recipient) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			o.log.Error().Interface("panic", r).Msg("broadcast loop aborted")
			o.mu.Lock()
			job.LastError = fmt.Sprintf("broadcast aborted: %v", r)
			o.mu.Unlock()
		}
		o.finish(job, start)
	}()

	cfg := job.Config
	for i, rcpt := range list {
		entry := entities.DeliveryEntry{
			InternalID:   rcpt.InternalID,
			DisplayName:  rcpt.DisplayName,
			PhoneTo:      rcpt.To,
			TemplateName: cfg.TemplateName,
			LanguageCode: cfg.LanguageCode,
		}

		if rcpt.To == "" {
			entry.Status = entities.DeliveryFailed
			entry.Error = "recipient has no phone number"
			o.markFailed(job, entry.Error)
			o.logDelivery(entry)
		} else {
			msgID, err := o.sender.SendTemplate(rcpt.To, cfg.TemplateName, cfg.LanguageCode, []string{rcpt.DisplayName})
			if err != nil {
				entry.Status = entities.DeliveryFailed
				entry.Error = err.Error()
				o.markFailed(job, entry.Error)
				o.log.Warn().Err(err).Str("to", rcpt.To).Msg("send failed")
			} else {
				entry.Status = entities.DeliverySent
				entry.ProviderMessageID = msgID
				o.markSent(job)
			}
			o.logDelivery(entry)
		}

		// Throttle: pause after each full batch, never after the last
		// recipient.
		if (i+1)%cfg.BatchSize == 0 && i+1 < len(list) && cfg.PauseSeconds > 0 {
			o.sleep(time.Duration(cfg.PauseSeconds) * time.Second)
		}
	}
}

func (o *BroadcastOrchestrator) finish(job *entities.BroadcastJob, start time.Time) {
	o.mu.Lock()
	job.Running = false
	job.EndedAt = time.Now()
	snapshot := *job
	o.mu.Unlock()

	o.log.Info().
		Int("total", snapshot.Total).
		Int("sent", snapshot.Sent).
		Int("failed", snapshot.Failed).
		Dur("dur", time.Since(start)).
		Msg("broadcast finished")

	if o.notifier != nil {
		o.notifier.Notify(fmt.Sprintf(
			"📣 Campaña *%s* terminada\nEnviados: %d\nFallidos: %d\nTotal: %d",
			snapshot.Config.TemplateName, snapshot.Sent, snapshot.Failed, snapshot.Total))
	}
}

func (o *BroadcastOrchestrator) markSent(job *entities.BroadcastJob) {
	o.mu.Lock()
	job.Sent++
	o.mu.Unlock()
}

func (o *BroadcastOrchestrator) markFailed(job *entities.BroadcastJob, reason string) {
	o.mu.Lock()
	job.Failed++
	job.LastError = reason
	o.mu.Unlock()
}

// logDelivery records one attempt in the remote sink and the local
// table. Both are best-effort and independent.
func (o *BroadcastOrchestrator) logDelivery(e entities.DeliveryEntry) {
	if o.sink != nil {
		if err := o.sink.LogDelivery(e); err != nil {
			o.log.Warn().Err(err).Int64("internal_id", e.InternalID).Msg("delivery sink write failed")
		}
	}
	if o.deliveries != nil {
		if err := o.deliveries.Insert(e); err != nil {
			o.log.Warn().Err(err).Int64("internal_id", e.InternalID).Msg("delivery row insert failed")
		}
	}
}
