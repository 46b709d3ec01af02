package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/NKT-Anh/datn-eduManager-sub003/internal/dto"
	"github.com/NKT-Anh/datn-eduManager-sub003/internal/models"
	appErrors "github.com/NKT-Anh/datn-eduManager-sub003/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type partitionExamReader interface {
	FindByID(ctx context.Context, id string) (*models.Exam, error)
}

type partitionStudentLister interface {
	ListRegistered(ctx context.Context, examID string, grade int) ([]models.Student, error)
}

type partitionGroupRepository interface {
	ListByExamGrade(ctx context.Context, examID string, grade int) ([]models.SeatingGroupSummary, error)
	AssignedStudentIDs(ctx context.Context, examID string) ([]string, error)
	Create(ctx context.Context, exec sqlx.ExtContext, group *models.SeatingGroup) error
	AddMembers(ctx context.Context, exec sqlx.ExtContext, members []models.SeatingGroupMember) error
}

// PartitionService splits the exam takers of a grade into fixed seating
// groups. Partitioning is append-only: students already holding a membership
// keep their group and position forever.
type PartitionService struct {
	exams      partitionExamReader
	students   partitionStudentLister
	groups     partitionGroupRepository
	tx         txProvider
	validator  *validator.Validate
	logger     *zap.Logger
	defaultMax int
}

// NewPartitionService wires partitioner dependencies.
func NewPartitionService(
	exams partitionExamReader,
	students partitionStudentLister,
	groups partitionGroupRepository,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
	defaultMaxPerGroup int,
) *PartitionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultMaxPerGroup <= 0 {
		defaultMaxPerGroup = 24
	}
	return &PartitionService{
		exams:      exams,
		students:   students,
		groups:     groups,
		tx:         tx,
		validator:  validate,
		logger:     logger,
		defaultMax: defaultMaxPerGroup,
	}
}

// PartitionGroups places every registered-but-unassigned student of the
// grade into a seating group. Existing groups are topped up to capacity
// first, then new groups are created in code order.
func (s *PartitionService) PartitionGroups(ctx context.Context, req dto.PartitionRequest) (*dto.PartitionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid partition payload")
	}
	maxPerGroup := req.MaxPerGroup
	if maxPerGroup <= 0 {
		maxPerGroup = s.defaultMax
	}

	exam, err := s.loadMutableExam(ctx, req.ExamID)
	if err != nil {
		return nil, err
	}

	students, err := s.students.ListRegistered(ctx, exam.ID, req.Grade)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registered students")
	}

	assignedIDs, err := s.groups.AssignedStudentIDs(ctx, exam.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group memberships")
	}
	assigned := make(map[string]struct{}, len(assignedIDs))
	for _, id := range assignedIDs {
		assigned[id] = struct{}{}
	}

	eligible := make([]models.Student, 0, len(students))
	for _, student := range students {
		if _, ok := assigned[student.ID]; !ok {
			eligible = append(eligible, student)
		}
	}

	existing, err := s.groups.ListByExamGrade(ctx, exam.ID, req.Grade)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load seating groups")
	}

	if len(eligible) == 0 {
		return &dto.PartitionResult{Groups: existing, Placed: 0}, nil
	}

	plan, warnings := planPlacement(exam.ID, req.Grade, maxPerGroup, req.MaxGroups, existing, eligible)

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i := range plan.newGroups {
		if err = s.groups.Create(ctx, tx, &plan.newGroups[i]); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create seating group")
			return nil, err
		}
	}
	if err = s.groups.AddMembers(ctx, tx, plan.members); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add group members")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit partition")
		return nil, err
	}

	groups, err := s.groups.ListByExamGrade(ctx, exam.ID, req.Grade)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload seating groups")
	}

	s.logger.Info("partitioned seating groups",
		zap.String("exam_id", exam.ID),
		zap.Int("grade", req.Grade),
		zap.Int("placed", len(plan.members)),
		zap.Int("new_groups", len(plan.newGroups)),
	)

	return &dto.PartitionResult{Groups: groups, Placed: len(plan.members), Warnings: warnings}, nil
}

// ListGroups returns the current seating groups for an exam grade.
func (s *PartitionService) ListGroups(ctx context.Context, examID string, grade int) ([]models.SeatingGroupSummary, error) {
	if examID == "" || grade <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "examId and grade are required")
	}
	groups, err := s.groups.ListByExamGrade(ctx, examID, grade)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list seating groups")
	}
	return groups, nil
}

func (s *PartitionService) loadMutableExam(ctx context.Context, examID string) (*models.Exam, error) {
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

// placementPlan is the set of writes one partition run will commit.
type placementPlan struct {
	newGroups []models.SeatingGroup
	members   []models.SeatingGroupMember
}

// planPlacement fills existing groups to capacity first, then lays out new
// groups. When maxGroups would be exceeded the students are spread evenly
// over the allowed group count instead, flagged as a warning.
func planPlacement(examID string, grade, maxPerGroup, maxGroups int, existing []models.SeatingGroupSummary, eligible []models.Student) (placementPlan, []dto.PartitionWarning) {
	var plan placementPlan
	var warnings []dto.PartitionWarning

	queue := eligible

	// Top up existing groups in code order.
	for _, group := range existing {
		free := group.Capacity - group.Size
		if free <= 0 || len(queue) == 0 {
			continue
		}
		take := free
		if take > len(queue) {
			take = len(queue)
		}
		for i := 0; i < take; i++ {
			plan.members = append(plan.members, models.SeatingGroupMember{
				GroupID:   group.ID,
				StudentID: queue[i].ID,
				Position:  group.Size + i + 1,
			})
		}
		queue = queue[take:]
	}

	if len(queue) == 0 {
		return plan, warnings
	}

	perGroup := maxPerGroup
	required := (len(queue) + perGroup - 1) / perGroup
	allowed := required
	if maxGroups > 0 {
		allowed = maxGroups - len(existing)
	}

	switch {
	case allowed <= 0 && maxGroups > 0:
		// No room for new groups: spill over the last existing group.
		warnings = append(warnings, dto.PartitionWarning{
			Code:    "CAPACITY_EXCEEDED",
			Message: fmt.Sprintf("maxGroups=%d already reached; %d students appended beyond group capacity", maxGroups, len(queue)),
		})
		last := existing[len(existing)-1]
		offset := last.Size
		for _, member := range plan.members {
			if member.GroupID == last.ID {
				offset++
			}
		}
		for i, student := range queue {
			plan.members = append(plan.members, models.SeatingGroupMember{
				GroupID:   last.ID,
				StudentID: student.ID,
				Position:  offset + i + 1,
			})
		}
		return plan, warnings
	case required > allowed:
		perGroup = (len(queue) + allowed - 1) / allowed
		required = allowed
		warnings = append(warnings, dto.PartitionWarning{
			Code:    "CAPACITY_EXCEEDED",
			Message: fmt.Sprintf("required %d groups of %d exceeds maxGroups=%d; using %d students per group", (len(queue)+maxPerGroup-1)/maxPerGroup, maxPerGroup, maxGroups, perGroup),
		})
	}

	seq := len(existing)
	for len(queue) > 0 {
		seq++
		take := perGroup
		if take > len(queue) {
			take = len(queue)
		}
		group := models.SeatingGroup{
			ID:       uuid.NewString(),
			ExamID:   examID,
			Code:     fmt.Sprintf("G%d-%02d", grade, seq),
			Grade:    grade,
			Capacity: perGroup,
		}
		plan.newGroups = append(plan.newGroups, group)
		for i := 0; i < take; i++ {
			plan.members = append(plan.members, models.SeatingGroupMember{
				GroupID:   group.ID,
				StudentID: queue[i].ID,
				Position:  i + 1,
			})
		}
		queue = queue[take:]
	}

	return plan, warnings
}
