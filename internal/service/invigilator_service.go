package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/NKT-Anh/datn-eduManager-sub003/internal/dto"
	"github.com/NKT-Anh/datn-eduManager-sub003/internal/models"
	appErrors "github.com/NKT-Anh/datn-eduManager-sub003/pkg/errors"
)

type invigilatorExamReader interface {
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	FindSessionByID(ctx context.Context, id string) (*models.ExamSession, error)
	ListSessionsByExam(ctx context.Context, examID string) ([]models.ExamSession, error)
}

type invigilatorMappingRepository interface {
	FindByID(ctx context.Context, id string) (*models.SessionRoomMapping, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.SessionRoomMapping, error)
	ListSlotsByDate(ctx context.Context, date time.Time) ([]models.MappingSlot, error)
	UpdateInvigilators(ctx context.Context, exec sqlx.ExtContext, mappingID string, main, assistant *string) error
	ClearInvigilatorsByExam(ctx context.Context, exec sqlx.ExtContext, examID string) (int, error)
	CountTeacherAssignments(ctx context.Context, examID string) ([]models.TeacherAssignmentCount, error)
}

type invigilatorTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ListActive(ctx context.Context) ([]models.Teacher, error)
}

// InvigilatorService staffs mapped rooms with a main invigilator and, when
// required, an assistant. Auto assignment keeps an explicit per-exam counter
// of prior duties and always hands the next duty to the least-loaded free
// teacher, breaking ties by teacher id.
type InvigilatorService struct {
	exams            invigilatorExamReader
	mappings         invigilatorMappingRepository
	teachers         invigilatorTeacherReader
	tx               txProvider
	metrics          *MetricsService
	validator        *validator.Validate
	logger           *zap.Logger
	requireAssistant bool
}

// NewInvigilatorService wires invigilator dependencies.
func NewInvigilatorService(
	exams invigilatorExamReader,
	mappings invigilatorMappingRepository,
	teachers invigilatorTeacherReader,
	tx txProvider,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	requireAssistant bool,
) *InvigilatorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvigilatorService{
		exams:            exams,
		mappings:         mappings,
		teachers:         teachers,
		tx:               tx,
		metrics:          metrics,
		validator:        validate,
		logger:           logger,
		requireAssistant: requireAssistant,
	}
}

// dutyLedger tracks how many invigilation duties each teacher already holds
// within one exam, including duties granted earlier in the same run.
type dutyLedger map[string]int

// assignRun carries the mutable state of one auto-assignment walk: the
// fairness ledger, the slots already committed or granted on each date, and
// the teachers used inside the session being staffed.
type assignRun struct {
	ledger     dutyLedger
	daySlots   map[string][]models.MappingSlot
	grantSlots []models.MappingSlot
}

// AutoAssignSession staffs every mapping of one session, filling mains for
// all rooms before any assistant. Rooms that cannot be staffed are reported
// as unfilled, not treated as errors.
func (s *InvigilatorService) AutoAssignSession(ctx context.Context, sessionID string) (*dto.AssignSessionResult, error) {
	session, exam, err := s.loadMutableSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	run, err := s.newRun(ctx, exam.ID)
	if err != nil {
		return nil, err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	result, err := s.staffSession(ctx, tx, *session, run)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit invigilator assignment")
	}
	committed = true

	s.metrics.RecordInvigilatorsPlaced(len(result.Assigned))
	return result, nil
}

// AutoAssignExam staffs every session of the exam in chronological order,
// carrying the duty ledger across sessions so the load spreads over the whole
// exam rather than per session.
func (s *InvigilatorService) AutoAssignExam(ctx context.Context, examID string) (*dto.AssignExamResult, error) {
	exam, err := s.loadMutableExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.exams.ListSessionsByExam(ctx, exam.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exam sessions")
	}
	run, err := s.newRun(ctx, exam.ID)
	if err != nil {
		return nil, err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	result := &dto.AssignExamResult{ExamID: exam.ID}
	placed := 0
	for _, session := range sessions {
		sessionResult, staffErr := s.staffSession(ctx, tx, session, run)
		if staffErr != nil {
			return nil, staffErr
		}
		placed += len(sessionResult.Assigned)
		result.Sessions = append(result.Sessions, *sessionResult)
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit invigilator assignment")
	}
	committed = true

	result.Counts = run.ledger
	s.metrics.RecordInvigilatorsPlaced(placed)
	return result, nil
}

// Assign sets invigilators on one mapping manually, after the same time
// conflict checks the auto assigner applies.
func (s *InvigilatorService) Assign(ctx context.Context, mappingID string, req dto.ManualAssignRequest) (*models.SessionRoomMapping, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invigilator payload")
	}
	mapping, err := s.mappings.FindByID(ctx, mappingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mapping not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mapping")
	}
	session, _, err := s.loadMutableSession(ctx, mapping.SessionID)
	if err != nil {
		return nil, err
	}

	main := mapping.MainTeacherID
	assistant := mapping.AssistantTeacherID
	for _, slot := range req.Invigilators {
		switch slot.Role {
		case models.InvigilatorRoleMain:
			main = &slot.TeacherID
		case models.InvigilatorRoleAssistant:
			assistant = &slot.TeacherID
		}
	}
	if main != nil && assistant != nil && *main == *assistant {
		return nil, appErrors.Clone(appErrors.ErrValidation, "main and assistant must be different teachers")
	}

	daySlots, err := s.mappings.ListSlotsByDate(ctx, session.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day schedule")
	}
	// The mapping's own slot must not block re-assigning its current teachers.
	filtered := daySlots[:0:0]
	for _, slot := range daySlots {
		if slot.MappingID == mapping.ID {
			continue
		}
		filtered = append(filtered, slot)
	}
	for _, slot := range req.Invigilators {
		teacher, teacherErr := s.teachers.FindByID(ctx, slot.TeacherID)
		if teacherErr != nil {
			if errors.Is(teacherErr, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("teacher %s not found", slot.TeacherID))
			}
			return nil, appErrors.Wrap(teacherErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
		}
		if !teacher.Active {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("teacher %s is inactive", slot.TeacherID))
		}
		if !teacherIsFree(slot.TeacherID, *session, filtered) {
			s.metrics.RecordConflict("teacher")
			return nil, appErrors.Clone(appErrors.ErrTeacherConflict, fmt.Sprintf("teacher %s already invigilates an overlapping session", slot.TeacherID))
		}
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err = s.mappings.UpdateInvigilators(ctx, tx, mapping.ID, main, assistant); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update invigilators")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit invigilator update")
	}
	committed = true

	s.metrics.RecordInvigilatorsPlaced(len(req.Invigilators))
	mapping.MainTeacherID = main
	mapping.AssistantTeacherID = assistant
	return mapping, nil
}

// RemoveAll clears every invigilator of the exam so the auto assigner can
// start from a clean ledger.
func (s *InvigilatorService) RemoveAll(ctx context.Context, examID string) (*dto.RemoveAllResult, error) {
	exam, err := s.loadMutableExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cleared, err := s.mappings.ClearInvigilatorsByExam(ctx, tx, exam.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear invigilators")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit invigilator removal")
	}
	committed = true

	return &dto.RemoveAllResult{ExamID: exam.ID, Cleared: cleared}, nil
}

// newRun seeds a fairness ledger for the exam so re-runs build on duties
// already committed instead of restarting from zero.
func (s *InvigilatorService) newRun(ctx context.Context, examID string) (*assignRun, error) {
	counts, err := s.mappings.CountTeacherAssignments(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment counts")
	}
	ledger := make(dutyLedger, len(counts))
	for _, count := range counts {
		ledger[count.TeacherID] = count.Count
	}
	return &assignRun{ledger: ledger, daySlots: make(map[string][]models.MappingSlot)}, nil
}

// staffSession fills the session's mappings inside the caller's transaction:
// first a main for every room, then assistants. A room never gets an
// assistant before every room has its main.
func (s *InvigilatorService) staffSession(ctx context.Context, tx sqlx.ExtContext, session models.ExamSession, run *assignRun) (*dto.AssignSessionResult, error) {
	result := &dto.AssignSessionResult{SessionID: session.ID}

	mappings, err := s.mappings.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list session mappings")
	}
	if len(mappings) == 0 {
		return result, nil
	}

	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active teachers")
	}
	slots, err := s.slotsFor(ctx, session, run)
	if err != nil {
		return nil, err
	}

	usedInSession := make(map[string]struct{})
	for _, mapping := range mappings {
		if mapping.MainTeacherID != nil {
			usedInSession[*mapping.MainTeacherID] = struct{}{}
		}
		if mapping.AssistantTeacherID != nil {
			usedInSession[*mapping.AssistantTeacherID] = struct{}{}
		}
	}

	type change struct {
		mapping   *models.SessionRoomMapping
		main      *string
		assistant *string
	}
	changes := make([]change, len(mappings))
	for i := range mappings {
		changes[i] = change{
			mapping:   &mappings[i],
			main:      mappings[i].MainTeacherID,
			assistant: mappings[i].AssistantTeacherID,
		}
	}

	grant := func(c *change, role string) {
		teacherID := s.pickTeacher(teachers, session, slots, run, usedInSession)
		if teacherID == "" {
			result.Unfilled = append(result.Unfilled, dto.UnfilledRoom{
				MappingID:   c.mapping.ID,
				RoomID:      c.mapping.RoomID,
				MissingRole: role,
			})
			s.metrics.RecordConflict("teacher")
			return
		}
		id := teacherID
		if role == models.InvigilatorRoleMain {
			c.main = &id
		} else {
			c.assistant = &id
		}
		usedInSession[teacherID] = struct{}{}
		run.ledger[teacherID]++
		granted := models.MappingSlot{
			MappingID: c.mapping.ID,
			SessionID: session.ID,
			RoomID:    c.mapping.RoomID,
			Date:      session.Date,
			StartTime: session.StartTime,
			EndTime:   session.EndTime,
		}
		if role == models.InvigilatorRoleMain {
			granted.MainTeacherID = &id
		} else {
			granted.AssistantTeacherID = &id
		}
		run.grantSlots = append(run.grantSlots, granted)
		slots = append(slots, granted)
		result.Assigned = append(result.Assigned, dto.RoomAssignment{
			MappingID: c.mapping.ID,
			RoomID:    c.mapping.RoomID,
			TeacherID: teacherID,
			Role:      role,
		})
	}

	for i := range changes {
		if changes[i].main == nil {
			grant(&changes[i], models.InvigilatorRoleMain)
		}
	}
	if s.requireAssistant {
		for i := range changes {
			if changes[i].assistant == nil {
				grant(&changes[i], models.InvigilatorRoleAssistant)
			}
		}
	}

	for i := range changes {
		c := changes[i]
		if c.main == c.mapping.MainTeacherID && c.assistant == c.mapping.AssistantTeacherID {
			continue
		}
		if err := s.mappings.UpdateInvigilators(ctx, tx, c.mapping.ID, c.main, c.assistant); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update invigilators")
		}
	}
	return result, nil
}

// pickTeacher returns the free teacher with the fewest duties in the ledger,
// tie-broken by ascending teacher id. Empty result means nobody qualifies.
func (s *InvigilatorService) pickTeacher(
	teachers []models.Teacher,
	session models.ExamSession,
	slots []models.MappingSlot,
	run *assignRun,
	usedInSession map[string]struct{},
) string {
	best := ""
	bestCount := 0
	for _, teacher := range teachers {
		if _, used := usedInSession[teacher.ID]; used {
			continue
		}
		if !teacherIsFree(teacher.ID, session, slots) {
			continue
		}
		count := run.ledger[teacher.ID]
		if best == "" || count < bestCount || (count == bestCount && teacher.ID < best) {
			best = teacher.ID
			bestCount = count
		}
	}
	return best
}

// slotsFor returns every slot relevant to the session's date: committed
// mappings plus duties granted earlier in this run on the same date.
func (s *InvigilatorService) slotsFor(ctx context.Context, session models.ExamSession, run *assignRun) ([]models.MappingSlot, error) {
	key := session.Date.Format("2006-01-02")
	if _, loaded := run.daySlots[key]; !loaded {
		daySlots, err := s.mappings.ListSlotsByDate(ctx, session.Date)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day schedule")
		}
		run.daySlots[key] = daySlots
	}
	slots := append([]models.MappingSlot(nil), run.daySlots[key]...)
	for _, granted := range run.grantSlots {
		if granted.Date.Format("2006-01-02") == key {
			slots = append(slots, granted)
		}
	}
	return slots, nil
}

func (s *InvigilatorService) loadMutableExam(ctx context.Context, examID string) (*models.Exam, error) {
	exam, err := s.exams.FindByID(ctx, examID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	if !exam.Status.Mutable() {
		return nil, appErrors.Clone(appErrors.ErrExamLocked, fmt.Sprintf("exam %s is %s", exam.Code, exam.Status))
	}
	return exam, nil
}

func (s *InvigilatorService) loadMutableSession(ctx context.Context, sessionID string) (*models.ExamSession, *models.Exam, error) {
	session, err := s.exams.FindSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "exam session not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam session")
	}
	exam, err := s.loadMutableExam(ctx, session.ExamID)
	if err != nil {
		return nil, nil, err
	}
	return session, exam, nil
}
