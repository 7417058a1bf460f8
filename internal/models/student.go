package models

import "time"

// Student is the canonical identity of a learner. It is created either by the
// legacy migration or on the first marksheet upload for an unknown roll number.
type Student struct {
	ID              string    `db:"id" json:"id"`
	UserID          *string   `db:"user_id" json:"user_id,omitempty"`
	LegacyStudentID *int64    `db:"legacy_student_id" json:"legacy_student_id,omitempty"`
	UID             string    `db:"uid" json:"uid"`
	Name            string    `db:"name" json:"name"`
	LastPassedYear  *int      `db:"last_passed_year" json:"last_passed_year,omitempty"`
	Active          bool      `db:"active" json:"active"`
	Alumni          bool      `db:"alumni" json:"alumni"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// AcademicIdentifier holds the normalized registration and roll numbers of a
// student. RollNumberKey is the roll number stripped to upper-case
// alphanumerics and is unique.
type AcademicIdentifier struct {
	ID                 string    `db:"id" json:"id"`
	StudentID          string    `db:"student_id" json:"student_id"`
	RegistrationNumber *string   `db:"registration_number" json:"registration_number,omitempty"`
	RollNumber         *string   `db:"roll_number" json:"roll_number,omitempty"`
	RollNumberKey      *string   `db:"roll_number_key" json:"-"`
	UID                *string   `db:"uid" json:"uid,omitempty"`
	StreamID           *string   `db:"stream_id" json:"stream_id,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// StudentIdentity pairs a student with its identifier.
type StudentIdentity struct {
	Student    Student             `json:"student"`
	Identifier *AcademicIdentifier `json:"academic_identifier,omitempty"`
}
