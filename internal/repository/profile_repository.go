package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/college-erp-api/internal/models"
)

// ProfileRepository stores the per-student profile sections written by the
// legacy migration. Every section is keyed by student so a re-run replaces
// the previous copy.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs a ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// upsertQuery builds a named INSERT .. ON CONFLICT DO UPDATE for table.
func upsertQuery(table string, conflict, columns []string) string {
	all := append(append([]string{}, conflict...), columns...)
	values := make([]string, len(all))
	for i, col := range all {
		values[i] = ":" + col
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO ", table, strings.Join(all, ", "), strings.Join(values, ", "), strings.Join(conflict, ", "))
	if len(columns) == 0 {
		return query + "NOTHING"
	}
	sets := make([]string, len(columns))
	for i, col := range columns {
		sets[i] = fmt.Sprintf("%s = EXCLUDED.%s", col, col)
	}
	return query + "UPDATE SET " + strings.Join(sets, ", ")
}

func (r *ProfileRepository) upsert(ctx context.Context, table string, conflict, columns []string, arg interface{}) error {
	if _, err := r.db.NamedExecContext(ctx, upsertQuery(table, conflict, columns), arg); err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	return nil
}

var byStudent = []string{"student_id"}

// UpsertAccommodation stores where the student stays.
func (r *ProfileRepository) UpsertAccommodation(ctx context.Context, a *models.Accommodation) error {
	return r.upsert(ctx, "accommodations", byStudent, []string{"place_of_stay", "address_line", "locality_type", "phone"}, a)
}

// UpsertFamily stores the household summary.
func (r *ProfileRepository) UpsertFamily(ctx context.Context, f *models.Family) error {
	return r.upsert(ctx, "families", byStudent, []string{"parent_type", "annual_income_id"}, f)
}

// UpsertFamilyMember stores a father, mother or guardian.
func (r *ProfileRepository) UpsertFamilyMember(ctx context.Context, m *models.FamilyMember) error {
	return r.upsert(ctx, "family_members", []string{"student_id", "relation"}, []string{"name", "email", "phone", "occupation_id"}, m)
}

// UpsertHealth stores medical details.
func (r *ProfileRepository) UpsertHealth(ctx context.Context, h *models.Health) error {
	return r.upsert(ctx, "health", byStudent, []string{"blood_group_id", "eye_power_left", "eye_power_right"}, h)
}

// UpsertEmergencyContact stores the emergency contact.
func (r *ProfileRepository) UpsertEmergencyContact(ctx context.Context, e *models.EmergencyContact) error {
	return r.upsert(ctx, "emergency_contacts", byStudent, []string{"person_name", "phone", "residential_phone"}, e)
}

// UpsertPersonalDetails stores demographics and addresses.
func (r *ProfileRepository) UpsertPersonalDetails(ctx context.Context, p *models.PersonalDetails) error {
	return r.upsert(ctx, "personal_details", byStudent, []string{
		"date_of_birth", "gender", "nationality_id", "other_nationality", "category_id", "religion_id", "mother_tongue_id",
		"aadhaar_card_number", "mailing_address_line", "mailing_pincode", "residential_address_line", "residential_pincode",
		"residential_phone", "locality_type",
	}, p)
}

// UpsertAcademicHistory stores the last board result.
func (r *ProfileRepository) UpsertAcademicHistory(ctx context.Context, h *models.AcademicHistory) error {
	return r.upsert(ctx, "academic_histories", byStudent, []string{"board_id", "board_result_status_id"}, h)
}

// EnsureTransportDetails creates the empty transport row of a student.
func (r *ProfileRepository) EnsureTransportDetails(ctx context.Context, t *models.TransportDetails) error {
	return r.upsert(ctx, "transport_details", byStudent, nil, t)
}
