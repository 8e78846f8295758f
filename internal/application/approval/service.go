package approval

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appshared "github.com/erp/manufacturing/internal/application/shared"
	"github.com/erp/manufacturing/internal/domain/approval"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultNotifyTimeout bounds one background notification dispatch
const DefaultNotifyTimeout = 5 * time.Second

// pendingScanLimit caps how many pending requests ListPendingForRole inspects
const pendingScanLimit = 500

// Metrics receives approval signals that are not carried by domain events
type Metrics interface {
	RecordNotificationFailure(ctx context.Context, docType approval.DocumentType)
}

// Config holds the approval service settings
type Config struct {
	RejectPolicy  approval.RejectPolicy
	NotifyTimeout time.Duration
	MaxRetries    int
}

// Service drives approval requests through their chains
type Service struct {
	scope     appshared.TransactionScope
	repos     appshared.Repositories
	catalog   *approval.ChainCatalog
	locker    appshared.Locker
	notifier  Notifier
	publisher shared.EventPublisher
	metrics   Metrics
	logger    *zap.Logger
	cfg       Config
	now       func() time.Time

	mu       sync.RWMutex
	handlers map[approval.DocumentType]DocumentHandler

	// notifications tracks in-flight background dispatches
	notifications sync.WaitGroup
}

// NewService creates a new approval Service
func NewService(
	scope appshared.TransactionScope,
	repos appshared.Repositories,
	catalog *approval.ChainCatalog,
	locker appshared.Locker,
	notifier Notifier,
	logger *zap.Logger,
	cfg Config,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RejectPolicy == "" {
		cfg.RejectPolicy = approval.RejectPolicyCurrentStepRole
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = DefaultNotifyTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = appshared.DefaultMaxRetries
	}
	return &Service{
		scope:     scope,
		repos:     repos,
		catalog:   catalog,
		locker:    locker,
		notifier:  notifier,
		publisher: shared.NoOpEventPublisher{},
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		handlers:  make(map[approval.DocumentType]DocumentHandler),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetMetrics sets the approval metrics recorder
func (s *Service) SetMetrics(m Metrics) {
	s.metrics = m
}

// RegisterHandler registers the document handler of one document type
func (s *Service) RegisterHandler(h DocumentHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[h.DocumentType()] = h
}

func (s *Service) handler(docType approval.DocumentType) DocumentHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handlers[docType]
}

// WaitNotifications blocks until background notifications have finished
func (s *Service) WaitNotifications() {
	s.notifications.Wait()
}

// CreateRequest starts approval of a document at step 0 of its chain.
// A document can only have one pending request.
func (s *Service) CreateRequest(ctx context.Context, cmd CreateRequestCommand) (*RequestResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "approval", "create_request",
		telemetry.WithAttribute(telemetry.SpanAttrDocumentType, cmd.DocumentType),
		telemetry.WithAttribute("document_id", cmd.DocumentID.String()))
	defer span.End()

	docType, err := approval.ParseDocumentType(cmd.DocumentType)
	if err != nil {
		return nil, err
	}
	chain, err := s.catalog.ForDocument(docType)
	if err != nil {
		return nil, err
	}

	var req *approval.ApprovalRequest
	err = appshared.WithLock(ctx, s.locker, appshared.ApprovalDocumentKey(string(docType), cmd.DocumentID), func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos appshared.Repositories) error {
			_, err := repos.ApprovalRequests().FindPendingByDocument(ctx, docType, cmd.DocumentID)
			if err == nil {
				return approval.ErrPendingRequestExists
			}
			if !errors.Is(err, shared.ErrNotFound) {
				return err
			}

			req, err = approval.NewApprovalRequest(chain, cmd.DocumentID, cmd.RequestedBy)
			if err != nil {
				return err
			}
			if h := s.handler(docType); h != nil {
				if err := h.Submit(ctx, repos, cmd.DocumentID); err != nil {
					return err
				}
			}
			if err := repos.ApprovalRequests().Create(ctx, req); err != nil {
				if errors.Is(err, shared.ErrAlreadyExists) {
					return approval.ErrPendingRequestExists
				}
				return err
			}
			return nil
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("approval requested",
		zap.String("request_id", req.ID.String()),
		zap.String("document_type", string(docType)),
		zap.String("document_id", cmd.DocumentID.String()))
	s.publish(ctx, req.GetDomainEvents())
	req.ClearDomainEvents()
	s.notifyRole(ctx, req, chain.Steps[0].Role)
	return ToRequestResponse(req, chain), nil
}

// Approve records an approval by an approver holding the current step's role.
// The last approval finalizes the document in the same transaction.
func (s *Service) Approve(ctx context.Context, cmd ApproveCommand) (*RequestResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "approval", "approve",
		telemetry.WithAttribute(telemetry.SpanAttrRequestID, cmd.RequestID.String()))
	defer span.End()

	var (
		req      *approval.ApprovalRequest
		chain    *approval.ApprovalChain
		approver *approval.Approver
		outcome  approval.ApproveOutcome
		events   []shared.DomainEvent
	)
	err := s.decide(ctx, cmd.RequestID, func(ctx context.Context, repos appshared.Repositories) error {
		var err error
		req, chain, err = s.load(ctx, repos, cmd.RequestID)
		if err != nil {
			return err
		}
		// an unknown request is reported before an unknown approver
		approver, err = repos.Approvers().FindByID(ctx, cmd.ApproverID)
		if err != nil {
			return err
		}
		if cmd.ExpectedStep != nil && req.Status == approval.StatusPending && *cmd.ExpectedStep != req.CurrentStep {
			return appshared.Permanent(fmt.Errorf("%w: expected step %d, request is at step %d",
				approval.ErrStaleStep, *cmd.ExpectedStep, req.CurrentStep))
		}

		now := s.now()
		outcome, err = req.Approve(chain, *approver, cmd.Notes, now)
		if err != nil {
			return err
		}
		if err := req.CheckInvariant(chain); err != nil {
			return err
		}
		if err := repos.ApprovalRequests().SaveWithLock(ctx, req); err != nil {
			return err
		}

		events = req.GetDomainEvents()
		req.ClearDomainEvents()
		if outcome.Completed() {
			if h := s.handler(req.DocumentType); h != nil {
				docEvents, err := h.Finalize(ctx, repos, req.DocumentID, now)
				if err != nil {
					return err
				}
				events = append(events, docEvents...)
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("approval step approved",
		zap.String("request_id", req.ID.String()),
		zap.String("approver_id", approver.ID.String()),
		zap.Int("step", outcome.Entry.Step),
		zap.String("status", string(outcome.Status)))
	s.publish(ctx, events)
	if outcome.NextRole != "" {
		s.notifyRole(ctx, req, outcome.NextRole)
	}
	return ToRequestResponse(req, chain), nil
}

// Reject ends a pending request and cancels the document in the same transaction
func (s *Service) Reject(ctx context.Context, cmd RejectCommand) (*RequestResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "approval", "reject",
		telemetry.WithAttribute(telemetry.SpanAttrRequestID, cmd.RequestID.String()))
	defer span.End()

	var (
		req      *approval.ApprovalRequest
		chain    *approval.ApprovalChain
		approver *approval.Approver
		events   []shared.DomainEvent
	)
	err := s.decide(ctx, cmd.RequestID, func(ctx context.Context, repos appshared.Repositories) error {
		var err error
		req, chain, err = s.load(ctx, repos, cmd.RequestID)
		if err != nil {
			return err
		}
		// an unknown request is reported before an unknown approver
		approver, err = repos.Approvers().FindByID(ctx, cmd.ApproverID)
		if err != nil {
			return err
		}
		if _, err := req.Reject(chain, *approver, cmd.Notes, s.cfg.RejectPolicy, s.now()); err != nil {
			return err
		}
		if err := req.CheckInvariant(chain); err != nil {
			return err
		}
		if err := repos.ApprovalRequests().SaveWithLock(ctx, req); err != nil {
			return err
		}
		events = req.GetDomainEvents()
		req.ClearDomainEvents()
		if h := s.handler(req.DocumentType); h != nil {
			return h.Cancel(ctx, repos, req.DocumentID)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("approval request rejected",
		zap.String("request_id", req.ID.String()),
		zap.String("approver_id", approver.ID.String()),
		zap.Int("step", req.CurrentStep))
	s.publish(ctx, events)
	return ToRequestResponse(req, chain), nil
}

// decide serializes decisions on one request: a keyed lock, then version CAS
// with retries for writers in other processes.
func (s *Service) decide(ctx context.Context, requestID uuid.UUID, fn func(ctx context.Context, repos appshared.Repositories) error) error {
	return appshared.WithLock(ctx, s.locker, appshared.ApprovalRequestKey(requestID), func(ctx context.Context) error {
		return appshared.RetryOnConflict(ctx, s.cfg.MaxRetries, func(ctx context.Context) error {
			return s.scope.Execute(ctx, func(repos appshared.Repositories) error {
				return fn(ctx, repos)
			})
		})
	})
}

func (s *Service) load(ctx context.Context, repos appshared.Repositories, requestID uuid.UUID) (*approval.ApprovalRequest, *approval.ApprovalChain, error) {
	req, err := repos.ApprovalRequests().FindByID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	chain, err := s.catalog.ByID(req.ChainID)
	if err != nil {
		return nil, nil, err
	}
	return req, chain, nil
}

// Get returns a request with its log and chain
func (s *Service) Get(ctx context.Context, requestID uuid.UUID) (*RequestResponse, error) {
	req, chain, err := s.load(ctx, s.repos, requestID)
	if err != nil {
		return nil, err
	}
	return ToRequestResponse(req, chain), nil
}

// ListPendingForRole lists pending requests whose current step needs role, oldest first
func (s *Service) ListPendingForRole(ctx context.Context, role string, limit int) ([]RequestResponse, error) {
	if role == "" {
		return nil, fmt.Errorf("%w: role is required", shared.ErrInvalidInput)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	pending, err := s.repos.ApprovalRequests().FindPending(ctx, pendingScanLimit)
	if err != nil {
		return nil, err
	}

	out := make([]RequestResponse, 0)
	for i := range pending {
		req := &pending[i]
		chain, err := s.catalog.ByID(req.ChainID)
		if err != nil {
			s.logger.Warn("pending request references unknown chain",
				zap.String("request_id", req.ID.String()),
				zap.String("chain_id", req.ChainID.String()))
			continue
		}
		current, err := chain.RoleAt(req.CurrentStep)
		if err != nil || current != role {
			continue
		}
		out = append(out, *ToRequestResponse(req, chain))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, events []shared.DomainEvent) {
	if len(events) == 0 || s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish approval events", zap.Error(err))
	}
}

// notifyRole dispatches notifications to the active users of role in the
// background. Failures are logged and counted, never returned.
func (s *Service) notifyRole(ctx context.Context, req *approval.ApprovalRequest, role string) {
	if s.notifier == nil {
		return
	}
	snapshot := *req
	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("approval notifier panicked", zap.Any("panic", r))
				s.recordNotificationFailure(snapshot.DocumentType)
			}
		}()

		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.NotifyTimeout)
		defer cancel()

		recipients, err := s.repos.Approvers().FindActiveByRole(nctx, role)
		if err != nil {
			s.logger.Warn("failed to resolve approval recipients", zap.String("role", role), zap.Error(err))
			s.recordNotificationFailure(snapshot.DocumentType)
			return
		}
		if len(recipients) == 0 {
			s.logger.Warn("no active users hold the approval role",
				zap.String("role", role),
				zap.String("request_id", snapshot.ID.String()))
			return
		}
		if err := s.notifier.Notify(nctx, NewApprovalRequiredNotifications(&snapshot, role, recipients)); err != nil {
			s.logger.Warn("approval notification failed",
				zap.String("request_id", snapshot.ID.String()),
				zap.String("role", role),
				zap.Error(err))
			s.recordNotificationFailure(snapshot.DocumentType)
		}
	}()
}

func (s *Service) recordNotificationFailure(docType approval.DocumentType) {
	if s.metrics != nil {
		s.metrics.RecordNotificationFailure(context.Background(), docType)
	}
}
