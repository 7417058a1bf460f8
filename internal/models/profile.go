package models

import "time"

// Relation of a family member to the student.
type Relation string

const (
	RelationFather   Relation = "FATHER"
	RelationMother   Relation = "MOTHER"
	RelationGuardian Relation = "GUARDIAN"
)

// ParentType describes who the student lives with.
type ParentType string

const (
	ParentTypeBoth       ParentType = "BOTH"
	ParentTypeFatherOnly ParentType = "FATHER_ONLY"
	ParentTypeMotherOnly ParentType = "MOTHER_ONLY"
)

// Accommodation is where the student stays during the course.
type Accommodation struct {
	StudentID    string  `db:"student_id" json:"student_id"`
	PlaceOfStay  *string `db:"place_of_stay" json:"place_of_stay,omitempty"`
	AddressLine  *string `db:"address_line" json:"address_line,omitempty"`
	LocalityType *string `db:"locality_type" json:"locality_type,omitempty"`
	Phone        *string `db:"phone" json:"phone,omitempty"`
}

// Family summarises the household of a student.
type Family struct {
	StudentID      string      `db:"student_id" json:"student_id"`
	ParentType     *ParentType `db:"parent_type" json:"parent_type,omitempty"`
	AnnualIncomeID *string     `db:"annual_income_id" json:"annual_income_id,omitempty"`
}

// FamilyMember is a father, mother or guardian record.
type FamilyMember struct {
	StudentID    string   `db:"student_id" json:"student_id"`
	Relation     Relation `db:"relation" json:"relation"`
	Name         *string  `db:"name" json:"name,omitempty"`
	Email        *string  `db:"email" json:"email,omitempty"`
	Phone        *string  `db:"phone" json:"phone,omitempty"`
	OccupationID *string  `db:"occupation_id" json:"occupation_id,omitempty"`
}

// Health holds medical details captured at admission.
type Health struct {
	StudentID     string  `db:"student_id" json:"student_id"`
	BloodGroupID  *string `db:"blood_group_id" json:"blood_group_id,omitempty"`
	EyePowerLeft  *string `db:"eye_power_left" json:"eye_power_left,omitempty"`
	EyePowerRight *string `db:"eye_power_right" json:"eye_power_right,omitempty"`
}

// EmergencyContact is the person to call for the student.
type EmergencyContact struct {
	StudentID        string  `db:"student_id" json:"student_id"`
	PersonName       *string `db:"person_name" json:"person_name,omitempty"`
	Phone            *string `db:"phone" json:"phone,omitempty"`
	ResidentialPhone *string `db:"residential_phone" json:"residential_phone,omitempty"`
}

// PersonalDetails holds demographics and addresses.
type PersonalDetails struct {
	StudentID              string     `db:"student_id" json:"student_id"`
	DateOfBirth            *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender                 *string    `db:"gender" json:"gender,omitempty"`
	NationalityID          *string    `db:"nationality_id" json:"nationality_id,omitempty"`
	OtherNationality       *string    `db:"other_nationality" json:"other_nationality,omitempty"`
	CategoryID             *string    `db:"category_id" json:"category_id,omitempty"`
	ReligionID             *string    `db:"religion_id" json:"religion_id,omitempty"`
	MotherTongueID         *string    `db:"mother_tongue_id" json:"mother_tongue_id,omitempty"`
	AadhaarCardNumber      *string    `db:"aadhaar_card_number" json:"aadhaar_card_number,omitempty"`
	MailingAddressLine     *string    `db:"mailing_address_line" json:"mailing_address_line,omitempty"`
	MailingPincode         *string    `db:"mailing_pincode" json:"mailing_pincode,omitempty"`
	ResidentialAddressLine *string    `db:"residential_address_line" json:"residential_address_line,omitempty"`
	ResidentialPincode     *string    `db:"residential_pincode" json:"residential_pincode,omitempty"`
	ResidentialPhone       *string    `db:"residential_phone" json:"residential_phone,omitempty"`
	LocalityType           *string    `db:"locality_type" json:"locality_type,omitempty"`
}

// AcademicHistory is the last board or university result of a student.
type AcademicHistory struct {
	StudentID           string  `db:"student_id" json:"student_id"`
	BoardID             *string `db:"board_id" json:"board_id,omitempty"`
	BoardResultStatusID *string `db:"board_result_status_id" json:"board_result_status_id,omitempty"`
}

// TransportDetails is created empty for every migrated student; pickup data
// is captured later by the transport office.
type TransportDetails struct {
	StudentID string `db:"student_id" json:"student_id"`
}
