package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"skyroute-backend/internal/auth"
	"skyroute-backend/internal/metrics"
	"skyroute-backend/internal/models"
	"skyroute-backend/internal/repositories"
	"skyroute-backend/internal/sequence"
	"skyroute-backend/internal/timeutil"
	"skyroute-backend/pkg/logger"
)

// maxInsertAttempts bounds how often a create is retried after the unique
// number index rejects the allocated number.
const maxInsertAttempts = 3

// Entry change events passed to observers
const (
	EventEntryCreated = "entry.created"
	EventEntryDeleted = "entry.deleted"
)

// EntryStore is the persistence the entry service needs.
// *repositories.EntryRepository implements it.
type EntryStore interface {
	Create(ctx context.Context, e *models.Entry) error
	Get(ctx context.Context, id int64) (*models.Entry, error)
	FindRampByC209(ctx context.Context, c209 string) (*models.Entry, error)
	List(ctx context.Context, f models.EntryFilter) ([]*models.Entry, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// SequenceLocker serialises allocate+insert for one (type, prefix).
type SequenceLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// EntryObserver is told about every successful create and delete.
type EntryObserver interface {
	EntryChanged(ctx context.Context, event string, e *models.Entry)
}

type EntryService struct {
	Store     EntryStore
	Allocator sequence.Allocator

	locker    SequenceLocker
	observers []EntryObserver
	validate  *validator.Validate
	log       logger.Logger
	now       func() time.Time
}

func NewEntryService(store EntryStore, alloc sequence.Allocator, log logger.Logger) *EntryService {
	return &EntryService{
		Store:     store,
		Allocator: alloc,
		validate:  newValidator(),
		log:       log,
		now:       timeutil.Now,
	}
}

// SetLocker enables the allocation lock
func (s *EntryService) SetLocker(l SequenceLocker) {
	s.locker = l
}

// AddObserver registers o for entry change notifications
func (s *EntryService) AddObserver(o EntryObserver) {
	s.observers = append(s.observers, o)
}

func unauthorized() error {
	return &Error{Kind: ErrUnauthorized}
}

// Create dispatches on req.Action to the RAMP or logistic flow.
func (s *EntryService) Create(ctx context.Context, sess *auth.Session, req *models.CreateEntryRequest) (*models.CreateEntryResult, error) {
	if !sess.Valid() {
		return nil, unauthorized()
	}
	if req == nil {
		return nil, validationf("request body is required")
	}

	req.Action = strings.TrimSpace(req.Action)
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}

	ref, backdated, err := s.referenceTime(req.DateReceived)
	if err != nil {
		return nil, err
	}

	switch req.Action {
	case models.EntryTypeRamp:
		return s.createRamp(ctx, sess, req, ref, backdated)
	case models.EntryTypeLogistic:
		return s.createLogistic(ctx, sess, req, ref, backdated)
	}
	return nil, validationf("Invalid action")
}

// referenceTime is the explicit date received, or now.
func (s *EntryService) referenceTime(dateReceived string) (time.Time, bool, error) {
	dateReceived = strings.TrimSpace(dateReceived)
	if dateReceived == "" {
		return s.now(), false, nil
	}
	t, err := timeutil.ParseDateReceived(dateReceived)
	if err != nil {
		return time.Time{}, false, validationf("date_received %q is not a valid date", dateReceived)
	}
	return t, true, nil
}

func (s *EntryService) createRamp(ctx context.Context, sess *auth.Session, req *models.CreateEntryRequest, ref time.Time, backdated bool) (*models.CreateEntryResult, error) {
	e := s.newEntry(sess, req, models.EntryTypeRamp, ref, backdated)

	err := s.insertWithNumber(ctx, sequence.C209, ref, e, func(n sequence.Number) {
		e.C209Number = n.String()
	})
	if err != nil {
		return nil, err
	}

	s.created(ctx, e)
	return &models.CreateEntryResult{Success: true, C209: e.C209Number, Entry: e}, nil
}

func (s *EntryService) createLogistic(ctx context.Context, sess *auth.Session, req *models.CreateEntryRequest, ref time.Time, backdated bool) (*models.CreateEntryResult, error) {
	c209 := sequence.Normalize(req.C209Number)
	if c209 == "" {
		return nil, validationf("c209_number is required")
	}

	ramp, err := s.Store.FindRampByC209(ctx, c209)
	if err != nil {
		return nil, storeError("failed to look up RAMP entry", err)
	}
	if ramp == nil {
		return nil, notFoundf("C209 '%s' not found. Please register RAMP entry first.", c209)
	}

	e := s.newEntry(sess, req, models.EntryTypeLogistic, ref, backdated)
	e.C209Number = ramp.C209Number
	if e.ContainerCode == "" {
		e.ContainerCode = ramp.Container()
		e.BarNumber = e.ContainerCode
	}
	if e.Pieces == nil {
		e.Pieces = ramp.Pieces
	}

	err = s.insertWithNumber(ctx, sequence.C208, ref, e, func(n sequence.Number) {
		e.C208Number = n.String()
	})
	if err != nil {
		return nil, err
	}

	s.created(ctx, e)
	return &models.CreateEntryResult{Success: true, C209: e.C209Number, C208: e.C208Number, Entry: e}, nil
}

// newEntry copies and normalises the request fields shared by both flows.
func (s *EntryService) newEntry(sess *auth.Session, req *models.CreateEntryRequest, entryType string, ref time.Time, backdated bool) *models.Entry {
	container := upper(req.ContainerCode)
	if container == "" {
		container = upper(req.BarNumber)
	}

	signature := upper(req.Signature)
	if signature == "" {
		signature = sess.Initials
	}

	flight := upper(req.FlightNumber)

	e := &models.Entry{
		Type:          entryType,
		MonthYear:     sequence.MonthYear(ref),
		ContainerCode: container,
		BarNumber:     container,
		Pieces:        req.Pieces,
		FlightNumber:  flight,
		Origin:        upper(req.Origin),
		Destination:   upper(req.Destination),
		Signature:     signature,
		Notes:         strings.TrimSpace(req.Notes),
		Flags:         upper(req.Flags),
		CreatedBy:     sess.Username,
	}
	// RAMP rows never carry the new build or RW flags
	if entryType == models.EntryTypeLogistic {
		e.IsNewBuild = req.IsNewBuild
		e.IsRWFlight = IsRWFlight(flight)
	}
	if backdated {
		e.CreatedAt = ref
	}
	return e
}

// insertWithNumber allocates a number of docType, hands it to assign and
// inserts e. An insert rejected by the unique number index is retried with a
// fresh number.
func (s *EntryService) insertWithNumber(ctx context.Context, docType sequence.DocType, ref time.Time, e *models.Entry, assign func(sequence.Number)) error {
	if s.locker != nil {
		key := fmt.Sprintf("sequence:%s:%s", docType, sequence.MonthPrefix(ref))
		unlock, err := s.locker.Lock(ctx, key)
		if err != nil {
			s.log.Warn("allocation lock unavailable, continuing without it", "key", key, "error", err)
		} else {
			defer unlock()
		}
	}

	for attempt := 1; attempt <= maxInsertAttempts; attempt++ {
		n, err := s.Allocator.Next(ctx, docType, ref)
		if err != nil {
			return storeError(fmt.Sprintf("failed to allocate %s number", strings.ToUpper(string(docType))), err)
		}
		metrics.SequenceAllocations.WithLabelValues(string(docType), allocatorStrategy(s.Allocator)).Inc()
		assign(n)

		err = s.Store.Create(ctx, e)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repositories.ErrDuplicateNumber) {
			return storeError("failed to create entry", err)
		}

		metrics.SequenceConflicts.WithLabelValues(string(docType)).Inc()
		s.log.Warn("document number taken, retrying",
			"doc_type", docType, "number", n.String(), "attempt", attempt)
	}

	return storeError("failed to create entry",
		fmt.Errorf("no free %s number after %d attempts", strings.ToUpper(string(docType)), maxInsertAttempts))
}

// allocatorStrategy labels allocation metrics; allocators that do not name
// themselves are reported as "other".
func allocatorStrategy(a sequence.Allocator) string {
	if named, ok := a.(interface{ Strategy() string }); ok {
		return named.Strategy()
	}
	return "other"
}

func (s *EntryService) created(ctx context.Context, e *models.Entry) {
	metrics.EntriesCreated.WithLabelValues(e.Type).Inc()
	s.log.Info("entry created",
		"id", e.ID, "type", e.Type, "c209", e.C209Number, "c208", e.C208Number, "operator", e.CreatedBy)
	s.notify(ctx, EventEntryCreated, e)
}

func (s *EntryService) notify(ctx context.Context, event string, e *models.Entry) {
	for _, o := range s.observers {
		o.EntryChanged(ctx, event, e)
	}
}

// List returns entries newest first, at most models.MaxListLimit.
func (s *EntryService) List(ctx context.Context, sess *auth.Session, f models.EntryFilter) ([]*models.Entry, error) {
	if !sess.Valid() {
		return nil, unauthorized()
	}

	f.Type = strings.TrimSpace(f.Type)
	if f.Type != "" && f.Type != models.EntryTypeRamp && f.Type != models.EntryTypeLogistic {
		return nil, validationf("type must be one of: %s %s", models.EntryTypeRamp, models.EntryTypeLogistic)
	}
	if f.Limit <= 0 || f.Limit > models.MaxListLimit {
		f.Limit = models.MaxListLimit
	}

	entries, err := s.Store.List(ctx, f)
	if err != nil {
		return nil, storeError("failed to fetch entries", err)
	}
	return entries, nil
}

func (s *EntryService) Get(ctx context.Context, sess *auth.Session, id int64) (*models.Entry, error) {
	if !sess.Valid() {
		return nil, unauthorized()
	}
	if id <= 0 {
		return nil, validationf("id must be a positive integer")
	}

	e, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, storeError("failed to fetch entry", err)
	}
	if e == nil {
		return nil, notFoundf("entry %d not found", id)
	}
	return e, nil
}

// Delete removes an entry by id. Deleting an id that does not exist is not
// an error; the bool reports whether a row was removed.
func (s *EntryService) Delete(ctx context.Context, sess *auth.Session, id int64) (bool, error) {
	if !sess.Valid() {
		return false, unauthorized()
	}
	if id <= 0 {
		return false, validationf("id is required")
	}

	deleted, err := s.Store.Delete(ctx, id)
	if err != nil {
		return false, storeError("failed to delete entry", err)
	}

	if deleted {
		metrics.EntriesDeleted.Inc()
		s.log.Info("entry deleted", "id", id, "operator", sess.Username)
		s.notify(ctx, EventEntryDeleted, &models.Entry{ID: id})
	}
	return deleted, nil
}

// IsRWFlight reports whether a flight number carries the RW prefix.
func IsRWFlight(flight string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(flight)), "RW")
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
