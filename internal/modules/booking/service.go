package booking

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"agrirent/internal/domain"
	"agrirent/internal/metrics"
	"agrirent/internal/pkg/logger"
	"agrirent/internal/pkg/validator"
	"agrirent/internal/queue"
)

type Service struct {
	slots     SlotStore
	publisher EventPublisher
	timeout   time.Duration
}

// NewService builds the booking coordinator. publisher may be nil; timeout
// bounds the storage work of one attempt (0 means no extra deadline).
func NewService(slots SlotStore, publisher EventPublisher, timeout time.Duration) *Service {
	return &Service{
		slots:     slots,
		publisher: publisher,
		timeout:   timeout,
	}
}

// AttemptBooking reserves one slot for the requester.
//
// Errors: ErrValidation (nothing was sent to storage), ErrUnavailable (the
// slot is booked, or the equipment/date/slot does not exist), ErrStorage.
// There are no retries; the caller may re-query availability and resubmit.
func (s *Service) AttemptBooking(ctx context.Context, req domain.BookingRequest) (*Confirmation, error) {
	if fields := validator.Validate(req); fields != nil {
		metrics.BookingAttempts.WithLabelValues(metrics.OutcomeValidationFailed).Inc()
		return nil, fmt.Errorf("%w: %s", ErrValidation, describeFields(fields))
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log := logger.With().
		Str("equipment_id", req.EquipmentID).
		Str("date", req.Date).
		Str("slot_id", req.SlotID).
		Str("user_id", req.UserID).
		Logger()

	start := time.Now()
	booked, err := s.slots.MarkSlotBooked(ctx, req.EquipmentID, req.Date, req.SlotID, req.UserID)
	metrics.BookingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BookingAttempts.WithLabelValues(metrics.OutcomeStorageError).Inc()
		log.Error().Err(err).Msg("booking storage error")
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if !booked {
		metrics.BookingAttempts.WithLabelValues(metrics.OutcomeUnavailable).Inc()
		reason := s.diagnose(ctx, req)
		metrics.BookingUnavailable.WithLabelValues(string(reason)).Inc()
		log.Info().Str("outcome", metrics.OutcomeUnavailable).Str("reason", string(reason)).Msg("booking rejected")
		return nil, ErrUnavailable
	}

	metrics.BookingAttempts.WithLabelValues(metrics.OutcomeConfirmed).Inc()
	log.Info().Str("outcome", metrics.OutcomeConfirmed).Msg("slot booked")

	conf := &Confirmation{
		EquipmentID: req.EquipmentID,
		Date:        req.Date,
		SlotID:      req.SlotID,
		BookedBy:    req.UserID,
	}

	// The slot is committed from here on; a failed re-read only loses the
	// owner details in the response.
	eq, err := s.slots.GetByID(ctx, req.EquipmentID)
	if err != nil {
		log.Warn().Err(err).Msg("booked equipment could not be re-read")
		return conf, nil
	}
	conf.EquipmentName = eq.Name
	conf.OwnerID = eq.OwnerID
	conf.OwnerName = eq.OwnerName
	conf.OwnerContact = eq.OwnerContact
	conf.District = eq.District

	s.publish(ctx, req, conf)

	return conf, nil
}

// diagnose classifies a failed attempt for logs and metrics only.
func (s *Service) diagnose(ctx context.Context, req domain.BookingRequest) domain.SlotState {
	state, err := s.slots.DescribeSlot(ctx, req.EquipmentID, req.Date, req.SlotID)
	if err != nil {
		logger.Warn().Err(err).Str("equipment_id", req.EquipmentID).Msg("slot diagnosis failed")
		return "unknown"
	}
	return state
}

func (s *Service) publish(ctx context.Context, req domain.BookingRequest, conf *Confirmation) {
	if s.publisher == nil {
		return
	}

	event := queue.SlotBookedEvent{
		EquipmentID:   conf.EquipmentID,
		EquipmentName: conf.EquipmentName,
		OwnerID:       conf.OwnerID,
		OwnerContact:  conf.OwnerContact,
		District:      conf.District,
		Date:          req.Date,
		SlotID:        req.SlotID,
		UserID:        req.UserID,
		UserName:      req.UserName,
		UserContact:   req.UserContact,
		BookedAt:      time.Now().UTC(),
	}

	go func(ctx context.Context) {
		if err := s.publisher.PublishSlotBooked(ctx, event); err != nil {
			metrics.EventsPublished.WithLabelValues("error").Inc()
			logger.Error().Err(err).Str("equipment_id", event.EquipmentID).Msg("publish slot booked event")
			return
		}
		metrics.EventsPublished.WithLabelValues("ok").Inc()
	}(context.WithoutCancel(ctx))
}

func describeFields(fields map[string]string) string {
	parts := make([]string, 0, len(fields))
	for f, tag := range fields {
		parts = append(parts, f+" ("+tag+")")
	}
	sort.Strings(parts)
	return "invalid fields: " + strings.Join(parts, ", ")
}
