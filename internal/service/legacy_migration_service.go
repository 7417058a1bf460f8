package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/college-erp-api/internal/models"
	"github.com/noah-isme/college-erp-api/internal/repository"
	"github.com/noah-isme/college-erp-api/pkg/config"
	appErrors "github.com/noah-isme/college-erp-api/pkg/errors"
)

// Program course defaults for migrated undergraduate admissions.
const (
	defaultCourseLevel    = "UNDERGRADUATE"
	defaultAffiliation    = "CU"
	defaultDuration       = 4
	defaultTotalSemesters = 8
)

type legacySource interface {
	CountCourseDetails(ctx context.Context, shiftID int) (int, error)
	ListCourseDetails(ctx context.Context, shiftID, limit, offset int) ([]models.LegacyCourseDetails, error)
	FindStudentByAdmissionID(ctx context.Context, admissionID int64) (*models.LegacyStudent, error)
	FindNamed(ctx context.Context, table repository.LegacyLookup, id int64) (*models.LegacyNamedRow, error)
	FindCourse(ctx context.Context, id int64) (*models.LegacyCourse, error)
	ListSubjectSelections(ctx context.Context, courseDetailsID int64) ([]models.LegacySubjectSelection, error)
	FindSubject(ctx context.Context, id int64) (*models.LegacySubject, error)
	FindBoard(ctx context.Context, id int64) (*models.LegacyBoard, error)
	FindBoardResultStatus(ctx context.Context, id int64) (*models.LegacyBoardResultStatus, error)
	FindBankBranch(ctx context.Context, id int64) (*models.LegacyBankBranch, error)
}

type referenceStore interface {
	Ensure(ctx context.Context, table models.ReferenceTable, name string, code *string, legacyID *int64) (*models.ReferenceRow, error)
	EnsureBoard(ctx context.Context, board *models.Board) (*models.Board, error)
	EnsureBankBranch(ctx context.Context, branch *models.BankBranch) (*models.BankBranch, error)
}

type profileStore interface {
	UpsertAccommodation(ctx context.Context, a *models.Accommodation) error
	UpsertFamily(ctx context.Context, f *models.Family) error
	UpsertFamilyMember(ctx context.Context, m *models.FamilyMember) error
	UpsertHealth(ctx context.Context, h *models.Health) error
	UpsertEmergencyContact(ctx context.Context, e *models.EmergencyContact) error
	UpsertPersonalDetails(ctx context.Context, p *models.PersonalDetails) error
	UpsertAcademicHistory(ctx context.Context, h *models.AcademicHistory) error
	EnsureTransportDetails(ctx context.Context, t *models.TransportDetails) error
}

type admissionStore interface {
	EnsureProgramCourse(ctx context.Context, pc *models.ProgramCourse) (*models.ProgramCourse, error)
	UpsertCourseDetails(ctx context.Context, d *models.AdmissionCourseDetails) (string, error)
	SaveSubjectSelections(ctx context.Context, selections []models.SubjectPaperSelection) error
}

type userStore interface {
	Ensure(ctx context.Context, user *models.User) (*models.User, error)
}

type streamEnsurer interface {
	Ensure(ctx context.Context, degreeName, discipline string, programme models.Programme, framework models.Framework) (*models.Stream, error)
}

type legacyIdentityResolver interface {
	ResolveLegacy(ctx context.Context, in LegacyIdentity) (*models.StudentIdentity, error)
}

// LegacyMigrationService copies legacy admissions into the ERP schema. Every
// write is an upsert on a natural key, so a run can be repeated.
type LegacyMigrationService struct {
	legacy     legacySource
	refs       referenceStore
	profiles   profileStore
	admissions admissionStore
	users      userStore
	streams    streamEnsurer
	identity   legacyIdentityResolver
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        config.LegacyMigrationConfig
}

// LegacyMigrationDeps groups the stores the migration writes through.
type LegacyMigrationDeps struct {
	Legacy     legacySource
	References referenceStore
	Profiles   profileStore
	Admissions admissionStore
	Users      userStore
	Streams    streamEnsurer
	Identity   legacyIdentityResolver
}

// NewLegacyMigrationService constructs the pipeline.
func NewLegacyMigrationService(deps LegacyMigrationDeps, cfg config.LegacyMigrationConfig, metrics *MetricsService, logger *zap.Logger) *LegacyMigrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.EmailDomain == "" {
		cfg.EmailDomain = "thebges.edu.in"
	}
	if cfg.Framework == "" {
		cfg.Framework = string(models.FrameworkCCF)
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &LegacyMigrationService{
		legacy:     deps.Legacy,
		refs:       deps.References,
		profiles:   deps.Profiles,
		admissions: deps.Admissions,
		users:      deps.Users,
		streams:    deps.Streams,
		identity:   deps.Identity,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
	}
}

// Migrate walks the legacy course details of the configured shift in pages.
// A failing record is reported and the run moves on.
func (s *LegacyMigrationService) Migrate(ctx context.Context, req models.LegacyMigrationRequest) (*models.ImportResult, error) {
	shiftID := s.cfg.ShiftID
	if req.ShiftID != nil {
		shiftID = *req.ShiftID
	}
	batchSize := s.cfg.BatchSize
	if req.BatchSize > 0 {
		batchSize = req.BatchSize
	}

	total, err := s.legacy.CountCourseDetails(ctx, shiftID)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to count legacy admissions")
	}
	if req.Limit > 0 && req.Limit < total {
		total = req.Limit
	}
	s.logger.Info("legacy migration started", zap.Int("shift_id", shiftID), zap.Int("records", total), zap.Int("batch_size", batchSize))

	result := &models.ImportResult{}
	for offset := 0; offset < total; offset += batchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		limit := batchSize
		if offset+limit > total {
			limit = total - offset
		}
		started := time.Now()
		records, err := s.legacy.ListCourseDetails(ctx, shiftID, limit, offset)
		if err != nil {
			return result, appErrors.WrapAs(appErrors.ErrPersistence, err, fmt.Sprintf("failed to read legacy batch at offset %d", offset))
		}
		if err := s.migrateBatch(ctx, records, result); err != nil {
			return result, err
		}
		s.metrics.ObserveLegacyBatch(time.Since(started))
		s.logger.Info("legacy batch done",
			zap.Int("offset", offset),
			zap.Int("records", len(records)),
			zap.Int("failed_so_far", len(result.Failed)),
			zap.Duration("took", time.Since(started)),
		)
		if len(records) < limit {
			break
		}
	}
	s.logger.Info("legacy migration finished", zap.Int("succeeded", len(result.Succeeded)), zap.Int("failed", len(result.Failed)))
	return result, nil
}

func (s *LegacyMigrationService) migrateBatch(ctx context.Context, records []models.LegacyCourseDetails, result *models.ImportResult) error {
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.cfg.Workers)
	for _, record := range records {
		record := record
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			key, err := s.MigrateRecord(ctx, record)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				s.logger.Error("legacy record failed", zap.Int64("legacy_course_details_id", record.ID), zap.Error(err))
				result.Failed = append(result.Failed, models.ImportFailure{
					Key:   key,
					Code:  appErrors.FromError(err).Code,
					Error: err.Error(),
				})
				s.metrics.RecordLegacyRecord(OutcomeFailed)
				return nil
			}
			result.Succeeded = append(result.Succeeded, key)
			s.metrics.RecordLegacyRecord(OutcomeSucceeded)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// MigrateRecord migrates one legacy admission with its student, profile and
// course enrolment.
func (s *LegacyMigrationService) MigrateRecord(ctx context.Context, record models.LegacyCourseDetails) (models.ImportKey, error) {
	key := models.ImportKey{LegacyRecordID: record.ID}
	if record.ParentID == nil {
		return key, appErrors.Clonef(appErrors.ErrInvalidInput, "legacy course details %d has no admission", record.ID)
	}
	legacyStudent, err := s.legacy.FindStudentByAdmissionID(ctx, *record.ParentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return key, appErrors.Clonef(appErrors.ErrStudentNotFound, "admission %d has no personal details", *record.ParentID)
		}
		return key, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to read legacy student")
	}

	uid := CleanUID(legacyStudent.CodeNumber)
	if uid == "" {
		uid = CleanUID(stringValue(record.UID))
	}
	if uid == "" {
		return key, appErrors.Clonef(appErrors.ErrInvalidInput, "legacy student %d has no uid", legacyStudent.ID)
	}
	key.RollNumber = uid

	stream, mapping, err := s.resolveStream(ctx, record)
	if err != nil {
		return key, err
	}
	key.Stream = stream.Key().String()

	user, err := s.ensureUser(ctx, uid, legacyStudent)
	if err != nil {
		return key, err
	}

	identity, err := s.identity.ResolveLegacy(ctx, LegacyIdentity{Student: *legacyStudent, UID: uid, UserID: &user.ID, StreamID: &stream.ID})
	if err != nil {
		return key, err
	}
	studentID := identity.Student.ID
	key.StudentID = studentID

	steps := []struct {
		name string
		run  func() error
	}{
		{"accommodation", func() error { return s.migrateAccommodation(ctx, studentID, legacyStudent) }},
		{"family", func() error { return s.migrateFamily(ctx, studentID, legacyStudent) }},
		{"health", func() error { return s.migrateHealth(ctx, studentID, legacyStudent) }},
		{"emergency contact", func() error { return s.migrateEmergencyContact(ctx, studentID, legacyStudent) }},
		{"personal details", func() error { return s.migratePersonalDetails(ctx, studentID, legacyStudent) }},
		{"academic history", func() error { return s.migrateAcademicHistory(ctx, studentID, legacyStudent) }},
		{"transport details", func() error {
			return s.profiles.EnsureTransportDetails(ctx, &models.TransportDetails{StudentID: studentID})
		}},
		{"course details", func() error { return s.migrateCourseDetails(ctx, studentID, *stream, mapping, record) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			var appErr *appErrors.Error
			if errors.As(err, &appErr) {
				return key, err
			}
			return key, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to migrate "+step.name)
		}
	}
	return key, nil
}

func (s *LegacyMigrationService) resolveStream(ctx context.Context, record models.LegacyCourseDetails) (*models.Stream, CourseMapping, error) {
	if record.CourseID == nil {
		return nil, CourseMapping{}, appErrors.Clonef(appErrors.ErrUnmappedCourse, "legacy course details %d has no course", record.ID)
	}
	course, err := s.legacy.FindCourse(ctx, *record.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, CourseMapping{}, appErrors.Clonef(appErrors.ErrUnmappedCourse, "legacy course %d does not exist", *record.CourseID)
		}
		return nil, CourseMapping{}, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to read legacy course")
	}
	mapping, err := MapCourse(course.CourseName)
	if err != nil {
		return nil, CourseMapping{}, err
	}
	stream, err := s.streams.Ensure(ctx, mapping.Degree, mapping.Discipline, mapping.Programme, models.Framework(s.cfg.Framework))
	if err != nil {
		return nil, CourseMapping{}, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to ensure stream")
	}
	mapping.course = course
	return stream, mapping, nil
}

func (s *LegacyMigrationService) ensureUser(ctx context.Context, uid string, legacy *models.LegacyStudent) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(uid), s.cfg.BcryptCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	name := CleanText(stringValue(legacy.Name))
	if name == "" {
		name = uid
	}
	user, err := s.users.Ensure(ctx, &models.User{
		Email:        uid + "@" + s.cfg.EmailDomain,
		PasswordHash: string(hash),
		FullName:     name,
		Phone:        optionalString(strings.TrimSpace(stringValue(legacy.ContactNo))),
		Role:         models.RoleStudent,
		Active:       true,
	})
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to ensure user")
	}
	return user, nil
}

// reference resolves a legacy lookup id to the id of the matching reference
// row, creating it by name. Missing ids and unknown legacy rows yield nil.
func (s *LegacyMigrationService) reference(ctx context.Context, lookup repository.LegacyLookup, id *int64, table models.ReferenceTable) (*string, error) {
	if id == nil || *id == 0 {
		return nil, nil
	}
	row, err := s.legacy.FindNamed(ctx, lookup, *id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("legacy lookup missing", zap.String("table", string(lookup)), zap.Int64("id", *id))
			return nil, nil
		}
		return nil, fmt.Errorf("read legacy %s %d: %w", lookup, *id, err)
	}
	return s.ensureReference(ctx, table, row.Name, row.Code, &row.ID)
}

func (s *LegacyMigrationService) ensureReference(ctx context.Context, table models.ReferenceTable, name string, code *string, legacyID *int64) (*string, error) {
	name = CleanText(name)
	if name == "" {
		return nil, nil
	}
	ref, err := s.refs.Ensure(ctx, table, name, code, legacyID)
	if err != nil {
		return nil, err
	}
	return &ref.ID, nil
}

func cleanOptional(v *string) *string {
	return optionalString(CleanText(stringValue(v)))
}

func trimOptional(v *string) *string {
	return optionalString(strings.TrimSpace(stringValue(v)))
}

func (s *LegacyMigrationService) migrateAccommodation(ctx context.Context, studentID string, legacy *models.LegacyStudent) error {
	return s.profiles.UpsertAccommodation(ctx, &models.Accommodation{
		StudentID:    studentID,
		PlaceOfStay:  cleanOptional(legacy.PlaceOfStay),
		AddressLine:  cleanOptional(legacy.PlaceOfStayAddress),
		LocalityType: cleanOptional(legacy.LocalityType),
		Phone:        trimOptional(legacy.PlaceOfStayContact),
	})
}

// ParentTypeOf reads the legacy single-parent marker.
func ParentTypeOf(marker string) *models.ParentType {
	var t models.ParentType
	switch strings.ToLower(strings.TrimSpace(marker)) {
	case "bth":
		t = models.ParentTypeBoth
	case "sngl_fthr":
		t = models.ParentTypeFatherOnly
	case "sngl_mthr":
		t = models.ParentTypeMotherOnly
	default:
		return nil
	}
	return &t
}

func (s *LegacyMigrationService) migrateFamily(ctx context.Context, studentID string, legacy *models.LegacyStudent) error {
	family := &models.Family{StudentID: studentID, ParentType: ParentTypeOf(stringValue(legacy.SingleParent))}
	if bracket := CategorizeIncome(stringValue(legacy.AnnualFamilyIncome)); bracket != "" {
		id, err := s.ensureReference(ctx, models.RefAnnualIncome, bracket, nil, nil)
		if err != nil {
			return err
		}
		family.AnnualIncomeID = id
	}
	if err := s.profiles.UpsertFamily(ctx, family); err != nil {
		return err
	}

	members := []struct {
		relation   models.Relation
		name       *string
		email      *string
		phone      *string
		occupation *int64
	}{
		{models.RelationFather, legacy.FatherName, legacy.FatherEmail, legacy.FatherMobile, legacy.FatherOccupation},
		{models.RelationMother, legacy.MotherName, legacy.MotherEmail, legacy.MotherMobile, legacy.MotherOccupation},
		{models.RelationGuardian, legacy.GuardianName, legacy.GuardianEmail, legacy.GuardianMobile, legacy.GuardianOccupation},
	}
	for _, m := range members {
		name, email, phone := cleanOptional(m.name), trimOptional(m.email), trimOptional(m.phone)
		if name == nil && email == nil && phone == nil {
			continue
		}
		occupationID, err := s.reference(ctx, repository.LegacyOccupation, m.occupation, models.RefOccupation)
		if err != nil {
			return err
		}
		if email != nil {
			lower := strings.ToLower(*email)
			email = &lower
		}
		if err := s.profiles.UpsertFamilyMember(ctx, &models.FamilyMember{
			StudentID:    studentID,
			Relation:     m.relation,
			Name:         name,
			Email:        email,
			Phone:        phone,
			OccupationID: occupationID,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *LegacyMigrationService) migrateHealth(ctx context.Context, studentID string, legacy *models.LegacyStudent) error {
	bloodGroupID, err := s.reference(ctx, repository.LegacyBloodGroup, legacy.BloodGroup, models.RefBloodGroup)
	if err != nil {
		return err
	}
	return s.profiles.UpsertHealth(ctx, &models.Health{
		StudentID:     studentID,
		BloodGroupID:  bloodGroupID,
		EyePowerLeft:  trimOptional(legacy.EyePowerLeft),
		EyePowerRight: trimOptional(legacy.EyePowerRight),
	})
}

func (s *LegacyMigrationService) migrateEmergencyContact(ctx context.Context, studentID string, legacy *models.LegacyStudent) error {
	return s.profiles.UpsertEmergencyContact(ctx, &models.EmergencyContact{
		StudentID:        studentID,
		PersonName:       cleanOptional(legacy.EmergencyContactName),
		Phone:            trimOptional(legacy.EmergencyContactPhone),
		ResidentialPhone: trimOptional(legacy.EmergencyResidentPh),
	})
}

var nonDigits = regexp.MustCompile(`\D`)

// FormatAadhaar renders a 12 digit Aadhaar number as NNNN-NNNN-NNNN. Anything
// else is dropped.
func FormatAadhaar(raw string) string {
	digits := nonDigits.ReplaceAllString(raw, "")
	if len(digits) != 12 {
		return ""
	}
	return digits[:4] + "-" + digits[4:8] + "-" + digits[8:]
}

// GenderOf maps the legacy sex id.
func GenderOf(sexID *int64) *string {
	if sexID == nil || *sexID == 0 {
		return nil
	}
	gender := "FEMALE"
	if *sexID == 1 {
		gender = "MALE"
	}
	return &gender
}

func (s *LegacyMigrationService) migratePersonalDetails(ctx context.Context, studentID string, legacy *models.LegacyStudent) error {
	details := &models.PersonalDetails{
		StudentID:              studentID,
		DateOfBirth:            legacy.DateOfBirth,
		Gender:                 GenderOf(legacy.SexID),
		OtherNationality:       cleanOptional(legacy.OtherNationality),
		AadhaarCardNumber:      optionalString(FormatAadhaar(stringValue(legacy.AadharCardNo))),
		MailingAddressLine:     cleanOptional(legacy.MailingAddress),
		MailingPincode:         trimOptional(legacy.MailingPinNo),
		ResidentialAddressLine: cleanOptional(legacy.ResidentialAddress),
		ResidentialPincode:     trimOptional(legacy.ResidentialPinNo),
		ResidentialPhone:       trimOptional(legacy.ResidentialPhone),
		LocalityType:           cleanOptional(legacy.LocalityType),
	}

	lookups := []struct {
		dst    **string
		lookup repository.LegacyLookup
		id     *int64
		table  models.ReferenceTable
	}{
		{&details.NationalityID, repository.LegacyNationality, legacy.NationalityID, models.RefNationality},
		{&details.CategoryID, repository.LegacyCategory, legacy.StudentCategoryID, models.RefCategory},
		{&details.ReligionID, repository.LegacyReligion, legacy.ReligionID, models.RefReligion},
		{&details.MotherTongueID, repository.LegacyMotherTongue, legacy.MotherTongueID, models.RefLanguageMedium},
	}
	for _, l := range lookups {
		id, err := s.reference(ctx, l.lookup, l.id, l.table)
		if err != nil {
			return err
		}
		*l.dst = id
	}
	return s.profiles.UpsertPersonalDetails(ctx, details)
}

func (s *LegacyMigrationService) migrateAcademicHistory(ctx context.Context, studentID string, legacy *models.LegacyStudent) error {
	history := &models.AcademicHistory{StudentID: studentID}

	if legacy.LastBoardUniversity != nil && *legacy.LastBoardUniversity != 0 {
		board, err := s.legacy.FindBoard(ctx, *legacy.LastBoardUniversity)
		switch {
		case err == nil:
			name := CleanText(board.BoardName)
			if name != "" {
				stored, err := s.refs.EnsureBoard(ctx, &models.Board{Name: name, PassingMarks: board.PassMarks, Code: trimOptional(board.Code)})
				if err != nil {
					return err
				}
				history.BoardID = &stored.ID
			}
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("read legacy board %d: %w", *legacy.LastBoardUniversity, err)
		}
	}

	if legacy.BoardResultID != nil && *legacy.BoardResultID != 0 {
		status, err := s.legacy.FindBoardResultStatus(ctx, *legacy.BoardResultID)
		switch {
		case err == nil:
			id, err := s.ensureReference(ctx, models.RefBoardResultStatus, status.Name, resultFlag(status.Flag), &status.ID)
			if err != nil {
				return err
			}
			history.BoardResultStatusID = id
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("read legacy board result status %d: %w", *legacy.BoardResultID, err)
		}
	}
	return s.profiles.UpsertAcademicHistory(ctx, history)
}

// resultFlag keeps PASS and FAIL flags and drops anything else.
func resultFlag(flag *string) *string {
	v := strings.ToUpper(strings.TrimSpace(stringValue(flag)))
	if v != string(models.SubjectStatusPass) && v != string(models.SubjectStatusFail) {
		return nil
	}
	return &v
}

func (s *LegacyMigrationService) migrateCourseDetails(ctx context.Context, studentID string, stream models.Stream, mapping CourseMapping, record models.LegacyCourseDetails) error {
	programCourse, err := s.ensureProgramCourse(ctx, stream, mapping)
	if err != nil {
		return err
	}
	classID, err := s.reference(ctx, repository.LegacyClass, record.ClassID, models.RefClass)
	if err != nil {
		return err
	}
	shiftID, err := s.reference(ctx, repository.LegacyShift, record.ShiftID, models.RefShift)
	if err != nil {
		return err
	}
	categoryID, err := s.reference(ctx, repository.LegacyStudentCategory, record.StudentCategoryID, models.RefStudentCategory)
	if err != nil {
		return err
	}
	eligibilityID, err := s.reference(ctx, repository.LegacyEligibility, record.EligibilityCriteria, models.RefEligibility)
	if err != nil {
		return err
	}
	meritListID, err := s.reference(ctx, repository.LegacyMeritList, record.MeritListID, models.RefMeritList)
	if err != nil {
		return err
	}
	bankID, err := s.reference(ctx, repository.LegacyBank, record.BankID, models.RefBank)
	if err != nil {
		return err
	}
	branchID, err := s.bankBranch(ctx, record.BankBranchID)
	if err != nil {
		return err
	}

	details := &models.AdmissionCourseDetails{
		StudentID:             studentID,
		LegacyCourseDetailsID: record.ID,
		StreamID:              stream.ID,
		ProgramCourseID:       programCourse.ID,
		ClassID:               classID,
		ShiftID:               shiftID,
		StudentCategoryID:     categoryID,
		EligibilityCriteriaID: eligibilityID,
		MeritListID:           meritListID,
		BankID:                bankID,
		BankBranchID:          branchID,
		BankBranchOther:       cleanOptional(record.BankBranchOther),
		AppNumber:             trimOptional(record.AppNumber),
		ChallanNumber:         trimOptional(record.ChallanNumber),
		PaymentAt:             record.PaymentDate,
		ApplicationAt:         record.ApplicationDate,
		FeesPaidAt:            record.FeesPaymentDate,
	}
	if record.RollNumber != nil {
		roll := fmt.Sprintf("%d", *record.RollNumber)
		details.ClassRollNumber = &roll
	}
	if record.Amount != nil {
		details.Amount = *record.Amount
	}
	if record.Verified != nil {
		details.IsVerified = *record.Verified
	}
	if record.FreeshipPercentage != nil {
		details.FreeshipPercentage = *record.FreeshipPercentage
	}
	detailsID, err := s.admissions.UpsertCourseDetails(ctx, details)
	if err != nil {
		return err
	}
	return s.migrateSubjectSelections(ctx, studentID, detailsID, record.ID)
}

// bankBranch resolves a legacy branch together with the bank it belongs to.
// A branch whose bank is unknown is left out.
func (s *LegacyMigrationService) bankBranch(ctx context.Context, id *int64) (*string, error) {
	if id == nil || *id == 0 {
		return nil, nil
	}
	legacyBranch, err := s.legacy.FindBankBranch(ctx, *id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("legacy bank branch missing", zap.Int64("id", *id))
			return nil, nil
		}
		return nil, fmt.Errorf("read legacy bank branch %d: %w", *id, err)
	}
	bankID, err := s.reference(ctx, repository.LegacyBank, legacyBranch.BankID, models.RefBank)
	if err != nil || bankID == nil {
		return nil, err
	}
	name := CleanText(legacyBranch.Name)
	if name == "" {
		return nil, nil
	}
	branch, err := s.refs.EnsureBankBranch(ctx, &models.BankBranch{BankID: *bankID, Name: name, LegacyID: &legacyBranch.ID})
	if err != nil {
		return nil, err
	}
	return &branch.ID, nil
}

func (s *LegacyMigrationService) ensureProgramCourse(ctx context.Context, stream models.Stream, mapping CourseMapping) (*models.ProgramCourse, error) {
	courseName := mapping.Degree
	var legacyCourseID *int64
	if mapping.course != nil {
		courseName = mapping.course.CourseName
		legacyCourseID = &mapping.course.ID
	}

	ids := make([]*string, 0, 5)
	for _, ref := range []struct {
		table    models.ReferenceTable
		name     string
		legacyID *int64
	}{
		{models.RefCourse, courseName, legacyCourseID},
		{models.RefCourseType, string(mapping.Programme), nil},
		{models.RefCourseLevel, defaultCourseLevel, nil},
		{models.RefAffiliation, defaultAffiliation, nil},
		{models.RefRegulationType, s.cfg.Framework, nil},
	} {
		id, err := s.ensureReference(ctx, ref.table, ref.name, nil, ref.legacyID)
		if err != nil {
			return nil, err
		}
		if id == nil {
			return nil, appErrors.Clonef(appErrors.ErrInvalidInput, "empty %s name", ref.table)
		}
		ids = append(ids, id)
	}

	return s.admissions.EnsureProgramCourse(ctx, &models.ProgramCourse{
		StreamID:         stream.ID,
		CourseID:         *ids[0],
		CourseTypeID:     *ids[1],
		CourseLevelID:    *ids[2],
		AffiliationID:    *ids[3],
		RegulationTypeID: *ids[4],
		Duration:         defaultDuration,
		TotalSemesters:   defaultTotalSemesters,
	})
}

func (s *LegacyMigrationService) migrateSubjectSelections(ctx context.Context, studentID, detailsID string, courseDetailsID int64) error {
	legacySelections, err := s.legacy.ListSubjectSelections(ctx, courseDetailsID)
	if err != nil {
		return fmt.Errorf("read legacy subject selections: %w", err)
	}

	selections := make([]models.SubjectPaperSelection, 0, len(legacySelections))
	for _, sel := range legacySelections {
		subject, err := s.legacy.FindSubject(ctx, sel.SubjectID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				s.logger.Warn("legacy subject missing", zap.Int64("subject_id", sel.SubjectID), zap.Int64("selection_id", sel.ID))
				continue
			}
			return fmt.Errorf("read legacy subject %d: %w", sel.SubjectID, err)
		}
		subjectID, err := s.ensureReference(ctx, models.RefSubject, stringValue(subject.SubjectName), trimOptional(subject.UnivCode), &subject.ID)
		if err != nil {
			return err
		}
		subjectTypeID, err := s.reference(ctx, repository.LegacySubjectType, &sel.SubjectTypeID, models.RefSubjectType)
		if err != nil {
			return err
		}
		if subjectID == nil || subjectTypeID == nil {
			s.logger.Warn("subject selection incomplete", zap.Int64("selection_id", sel.ID))
			continue
		}
		selections = append(selections, models.SubjectPaperSelection{
			StudentID:                studentID,
			AdmissionCourseDetailsID: detailsID,
			SubjectID:                *subjectID,
			SubjectTypeID:            *subjectTypeID,
			LegacySelectionID:        sel.ID,
		})
	}
	return s.admissions.SaveSubjectSelections(ctx, selections)
}
