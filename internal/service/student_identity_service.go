package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/college-erp-api/internal/models"
	appErrors "github.com/noah-isme/college-erp-api/pkg/errors"
	"github.com/noah-isme/college-erp-api/pkg/keylock"
)

type studentStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByLegacyID(ctx context.Context, legacyID int64) (*models.Student, error)
	Upsert(ctx context.Context, student *models.Student) (*models.Student, error)
	UpdateStatus(ctx context.Context, id string, lastPassedYear *int, active, alumni *bool) error
	FindIdentifierByRollKey(ctx context.Context, key string) (*models.AcademicIdentifier, error)
	FindIdentifierByStudentID(ctx context.Context, studentID string) (*models.AcademicIdentifier, error)
	UpsertIdentifier(ctx context.Context, identifier *models.AcademicIdentifier) (*models.AcademicIdentifier, error)
	SetIdentifierStream(ctx context.Context, studentID, streamID string) error
}

type legacyStudentFinder interface {
	FindStudentByRegistrationKey(ctx context.Context, key string) (*models.LegacyStudent, error)
}

// IdentityLookup is what an uploaded marksheet row says about its student.
type IdentityLookup struct {
	RollNumber         string
	RegistrationNumber string
	UID                string
	Name               string
	StreamID           string
}

// LegacyIdentity is a legacy admission about to be migrated.
type LegacyIdentity struct {
	Student  models.LegacyStudent
	UID      string
	UserID   *string
	StreamID *string
}

// StudentIdentityService owns student and academic identifier records. Both
// the marksheet upload and the legacy migration create students through it.
type StudentIdentityService struct {
	students studentStore
	legacy   legacyStudentFinder
	locks    *keylock.Locker
	logger   *zap.Logger
}

// NewStudentIdentityService constructs the resolver. legacy may be nil when no
// legacy database is configured; unknown roll numbers then fail outright.
func NewStudentIdentityService(students studentStore, legacy legacyStudentFinder, logger *zap.Logger) *StudentIdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentIdentityService{students: students, legacy: legacy, locks: keylock.New(), logger: logger}
}

// ResolveOrMigrate finds the student owning the roll number, matching it
// case- and punctuation-insensitively. An unknown roll number is looked up in
// the legacy system by registration number and migrated as a stub.
func (s *StudentIdentityService) ResolveOrMigrate(ctx context.Context, lookup IdentityLookup) (*models.StudentIdentity, error) {
	key := RollKey(lookup.RollNumber)
	if key == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, "roll number is required")
	}

	unlock := s.locks.Lock("roll:" + key)
	defer unlock()

	identifier, err := s.students.FindIdentifierByRollKey(ctx, key)
	switch {
	case err == nil:
		return s.existing(ctx, identifier, lookup.StreamID)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to look up academic identifier")
	}

	legacy, err := s.findLegacy(ctx, lookup.RegistrationNumber)
	if err != nil {
		return nil, err
	}

	uid := CleanUID(legacy.CodeNumber)
	if uid == "" {
		uid = CleanUID(lookup.UID)
	}
	if uid == "" {
		uid = key
	}
	name := CleanText(stringValue(legacy.Name))
	if name == "" {
		name = CleanText(lookup.Name)
	}
	legacyID := legacy.ID

	student, err := s.ensureStudent(ctx, &models.Student{UID: uid, Name: name, LegacyStudentID: &legacyID})
	if err != nil {
		return nil, err
	}

	registration := lookup.RegistrationNumber
	if registration == "" {
		registration = stringValue(legacy.UnivRegNo)
	}
	identifier, err = s.FillIdentifier(ctx, student.ID, identifierFields(registration, lookup.RollNumber, uid, lookup.StreamID))
	if err != nil {
		return nil, err
	}

	s.logger.Info("student migrated from legacy registration",
		zap.String("student_id", student.ID),
		zap.String("roll_number", key),
		zap.Int64("legacy_student_id", legacyID),
	)
	return &models.StudentIdentity{Student: *student, Identifier: identifier}, nil
}

func (s *StudentIdentityService) existing(ctx context.Context, identifier *models.AcademicIdentifier, streamID string) (*models.StudentIdentity, error) {
	student, err := s.students.FindByID(ctx, identifier.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clonef(appErrors.ErrStudentNotFound, "identifier %s has no student", identifier.ID)
		}
		return nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to load student")
	}
	if streamID != "" && stringValue(identifier.StreamID) != streamID {
		if err := s.students.SetIdentifierStream(ctx, student.ID, streamID); err != nil {
			return nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to update identifier stream")
		}
		identifier.StreamID = &streamID
	}
	return &models.StudentIdentity{Student: *student, Identifier: identifier}, nil
}

func (s *StudentIdentityService) findLegacy(ctx context.Context, registration string) (*models.LegacyStudent, error) {
	key := IdentifierKey(registration)
	if s.legacy == nil || key == "" {
		return nil, appErrors.Clone(appErrors.ErrStudentNotFound, "student not found and no registration number to migrate from")
	}
	legacy, err := s.legacy.FindStudentByRegistrationKey(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clonef(appErrors.ErrStudentNotFound, "registration number %s is unknown to the legacy system", NormalizeRegistration(registration))
		}
		return nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to query legacy student")
	}
	return legacy, nil
}

// ResolveLegacy creates or completes the student and identifier of a legacy
// admission. The student is matched by legacy id first, then by UID.
func (s *StudentIdentityService) ResolveLegacy(ctx context.Context, in LegacyIdentity) (*models.StudentIdentity, error) {
	uid := CleanUID(in.UID)
	if uid == "" {
		uid = CleanUID(in.Student.CodeNumber)
	}
	if uid == "" {
		return nil, appErrors.Clonef(appErrors.ErrInvalidInput, "legacy student %d has no uid", in.Student.ID)
	}

	unlock := s.locks.Lock("uid:" + uid)
	defer unlock()

	legacyID := in.Student.ID
	student, err := s.ensureStudent(ctx, &models.Student{
		UID:             uid,
		Name:            CleanText(stringValue(in.Student.Name)),
		UserID:          in.UserID,
		LegacyStudentID: &legacyID,
	})
	if err != nil {
		return nil, err
	}

	fields := identifierFields(stringValue(in.Student.UnivRegNo), stringValue(in.Student.UnivLastExamRollNo), uid, stringValue(in.StreamID))
	identifier, err := s.FillIdentifier(ctx, student.ID, fields)
	if err != nil {
		return nil, err
	}
	return &models.StudentIdentity{Student: *student, Identifier: identifier}, nil
}

// ensureStudent returns the student known under candidate's legacy id, or
// upserts candidate by UID.
func (s *StudentIdentityService) ensureStudent(ctx context.Context, candidate *models.Student) (*models.Student, error) {
	if candidate.LegacyStudentID != nil {
		found, err := s.students.FindByLegacyID(ctx, *candidate.LegacyStudentID)
		switch {
		case err == nil:
			if found.UserID != nil || candidate.UserID == nil {
				return found, nil
			}
			candidate.ID, candidate.UID = found.ID, found.UID
		case !errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to load student by legacy id")
		}
	}
	candidate.Active = true
	stored, err := s.students.Upsert(ctx, candidate)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to save student")
	}
	return stored, nil
}

func identifierFields(registration, roll, uid, streamID string) models.AcademicIdentifier {
	fields := models.AcademicIdentifier{
		RegistrationNumber: optionalString(NormalizeRegistration(registration)),
		RollNumber:         optionalString(NormalizeRoll(roll)),
		RollNumberKey:      optionalString(RollKey(roll)),
		UID:                optionalString(uid),
		StreamID:           optionalString(streamID),
	}
	return fields
}

func isBlank(v *string) bool {
	return v == nil || strings.TrimSpace(*v) == ""
}

// FillIdentifier writes the given fields onto the student's identifier where
// the stored field is still empty. Populated fields are never overwritten.
func (s *StudentIdentityService) FillIdentifier(ctx context.Context, studentID string, fields models.AcademicIdentifier) (*models.AcademicIdentifier, error) {
	current, err := s.students.FindIdentifierByStudentID(ctx, studentID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to load academic identifier")
		}
		current = &models.AcademicIdentifier{StudentID: studentID}
	}

	merged := *current
	changed := current.ID == ""
	fill := func(dst **string, value *string) {
		if isBlank(*dst) && !isBlank(value) {
			*dst = value
			changed = true
		}
	}
	fill(&merged.RegistrationNumber, fields.RegistrationNumber)
	if isBlank(merged.RollNumber) && !isBlank(fields.RollNumber) {
		merged.RollNumber = fields.RollNumber
		merged.RollNumberKey = fields.RollNumberKey
		changed = true
	}
	fill(&merged.UID, fields.UID)
	fill(&merged.StreamID, fields.StreamID)

	if !changed {
		return current, nil
	}
	stored, err := s.students.UpsertIdentifier(ctx, &merged)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to save academic identifier")
	}
	return stored, nil
}

// MarkPassed records the year a student last cleared a semester. Clearing the
// final semester also flags the student active alumni.
func (s *StudentIdentityService) MarkPassed(ctx context.Context, studentID string, year int, final bool) error {
	var active, alumni *bool
	if final {
		yes := true
		active, alumni = &yes, &yes
	}
	if err := s.students.UpdateStatus(ctx, studentID, &year, active, alumni); err != nil {
		return appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to update student status")
	}
	return nil
}

// FindIdentifier returns the identifier of a student, or nil when it has none.
func (s *StudentIdentityService) FindIdentifier(ctx context.Context, studentID string) (*models.AcademicIdentifier, error) {
	identifier, err := s.students.FindIdentifierByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic identifier")
	}
	return identifier, nil
}
