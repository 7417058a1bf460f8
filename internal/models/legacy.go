package models

import "time"

// LegacyCourseDetails is a row of the legacy coursedetails table: one admission
// of a student into a course.
type LegacyCourseDetails struct {
	ID                  int64      `db:"id" json:"id"`
	ParentID            *int64     `db:"parent_id" json:"parent_id,omitempty"`
	CourseID            *int64     `db:"courseid" json:"courseid,omitempty"`
	ClassID             *int64     `db:"classid" json:"classid,omitempty"`
	ShiftID             *int64     `db:"shiftid" json:"shiftid,omitempty"`
	RollNumber          *int64     `db:"rollNumber" json:"rollNumber,omitempty"`
	UID                 *string    `db:"uid" json:"uid,omitempty"`
	AppNumber           *string    `db:"appno" json:"appno,omitempty"`
	ChallanNumber       *string    `db:"chllno" json:"chllno,omitempty"`
	Amount              *float64   `db:"amt" json:"amt,omitempty"`
	PaymentDate         *time.Time `db:"paymentDate" json:"paymentDate,omitempty"`
	ApplicationDate     *time.Time `db:"applicationdt" json:"applicationdt,omitempty"`
	Verified            *bool      `db:"verified" json:"verified,omitempty"`
	FreeshipPercentage  *float64   `db:"freeshipperc" json:"freeshipperc,omitempty"`
	FeesPaymentDate     *time.Time `db:"feespaymentdate" json:"feespaymentdate,omitempty"`
	StudentCategoryID   *int64     `db:"studentCategoryId" json:"studentCategoryId,omitempty"`
	EligibilityCriteria *int64     `db:"eligibilityCriteriaId" json:"eligibilityCriteriaId,omitempty"`
	MeritListID         *int64     `db:"meritlistid" json:"meritlistid,omitempty"`
	BankID              *int64     `db:"feespaymentbankid" json:"feespaymentbankid,omitempty"`
	BankBranchID        *int64     `db:"feespaymentbrnchid" json:"feespaymentbrnchid,omitempty"`
	BankBranchOther     *string    `db:"feespaymentbrnchothr" json:"feespaymentbrnchothr,omitempty"`
}

// LegacyStudent is a row of the legacy studentpersonaldetails table.
type LegacyStudent struct {
	ID                 int64      `db:"id" json:"id"`
	AdmissionID        *int64     `db:"admissionid" json:"admissionid,omitempty"`
	CodeNumber         string     `db:"codeNumber" json:"codeNumber"`
	Name               *string    `db:"name" json:"name,omitempty"`
	ContactNo          *string    `db:"contactNo" json:"contactNo,omitempty"`
	WhatsappNo         *string    `db:"whatsappno" json:"whatsappno,omitempty"`
	Email              *string    `db:"email" json:"email,omitempty"`
	DateOfBirth        *time.Time `db:"dateOfBirth" json:"dateOfBirth,omitempty"`
	SexID              *int64     `db:"sexId" json:"sexId,omitempty"`
	Handicapped        *bool      `db:"handicapped" json:"handicapped,omitempty"`
	AadharCardNo       *string    `db:"aadharcardno" json:"aadharcardno,omitempty"`
	UnivRegNo          *string    `db:"univregno" json:"univregno,omitempty"`
	UnivLastExamRollNo *string    `db:"univlstexmrollno" json:"univlstexmrollno,omitempty"`

	PlaceOfStay        *string `db:"placeofstay" json:"placeofstay,omitempty"`
	PlaceOfStayAddress *string `db:"placeofstayaddr" json:"placeofstayaddr,omitempty"`
	PlaceOfStayContact *string `db:"placeofstaycontactno" json:"placeofstaycontactno,omitempty"`
	LocalityType       *string `db:"localitytyp" json:"localitytyp,omitempty"`

	MailingAddress     *string `db:"mailingAddress" json:"mailingAddress,omitempty"`
	MailingPinNo       *string `db:"mailingPinNo" json:"mailingPinNo,omitempty"`
	ResidentialAddress *string `db:"residentialAddress" json:"residentialAddress,omitempty"`
	ResidentialPinNo   *string `db:"resiPinNo" json:"resiPinNo,omitempty"`
	ResidentialPhone   *string `db:"resiPhoneMobileNo" json:"resiPhoneMobileNo,omitempty"`

	SingleParent       *string `db:"issnglprnt" json:"issnglprnt,omitempty"`
	FatherName         *string `db:"fatherName" json:"fatherName,omitempty"`
	FatherEmail        *string `db:"fatherEmail" json:"fatherEmail,omitempty"`
	FatherMobile       *string `db:"fatherMobNo" json:"fatherMobNo,omitempty"`
	FatherOccupation   *int64  `db:"fatherOccupation" json:"fatherOccupation,omitempty"`
	MotherName         *string `db:"motherName" json:"motherName,omitempty"`
	MotherEmail        *string `db:"motherEmail" json:"motherEmail,omitempty"`
	MotherMobile       *string `db:"motherMobNo" json:"motherMobNo,omitempty"`
	MotherOccupation   *int64  `db:"motherOccupation" json:"motherOccupation,omitempty"`
	GuardianName       *string `db:"guardianName" json:"guardianName,omitempty"`
	GuardianEmail      *string `db:"guardianEmail" json:"guardianEmail,omitempty"`
	GuardianMobile     *string `db:"guardianMobNo" json:"guardianMobNo,omitempty"`
	GuardianOccupation *int64  `db:"guardianOccupation" json:"guardianOccupation,omitempty"`
	AnnualFamilyIncome *string `db:"annualFamilyIncome" json:"annualFamilyIncome,omitempty"`

	BloodGroup    *int64  `db:"bloodGroup" json:"bloodGroup,omitempty"`
	EyePowerLeft  *string `db:"eyePowerLeft" json:"eyePowerLeft,omitempty"`
	EyePowerRight *string `db:"eyePowerRight" json:"eyePowerRight,omitempty"`

	EmergencyContactName  *string `db:"emercontactpersonnm" json:"emercontactpersonnm,omitempty"`
	EmergencyContactPhone *string `db:"emercontactpersonmob" json:"emercontactpersonmob,omitempty"`
	EmergencyResidentPh   *string `db:"emrgnResidentPhNo" json:"emrgnResidentPhNo,omitempty"`

	NationalityID     *int64  `db:"nationalityId" json:"nationalityId,omitempty"`
	OtherNationality  *string `db:"othernationality" json:"othernationality,omitempty"`
	StudentCategoryID *int64  `db:"studentCategoryId" json:"studentCategoryId,omitempty"`
	ReligionID        *int64  `db:"religionId" json:"religionId,omitempty"`
	MotherTongueID    *int64  `db:"motherTongueId" json:"motherTongueId,omitempty"`

	LastBoardUniversity *int64 `db:"lastBoardUniversity" json:"lastBoardUniversity,omitempty"`
	BoardResultID       *int64 `db:"boardresultid" json:"boardresultid,omitempty"`
}

// LegacyNamedRow is the shape shared by the small legacy lookup tables
// (parentoccupation, bloodgroup, nationality, religion, mothertongue, category,
// classes, shift, subjecttype, studentcatagory, eligibilitycriteria, meritlist,
// adminbank).
type LegacyNamedRow struct {
	ID   int64   `db:"id" json:"id"`
	Name string  `db:"name" json:"name"`
	Code *string `db:"code" json:"code,omitempty"`
}

// LegacyBankBranch is a row of bankbranch.
type LegacyBankBranch struct {
	ID     int64  `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	BankID *int64 `db:"bankid" json:"bankid,omitempty"`
}

// LegacyCourse is a row of the legacy course table.
type LegacyCourse struct {
	ID         int64   `db:"id" json:"id"`
	CourseName string  `db:"courseName" json:"courseName"`
	ShortName  *string `db:"shortname" json:"shortname,omitempty"`
}

// LegacySubjectSelection is a row of cvsubjectselection.
type LegacySubjectSelection struct {
	ID            int64 `db:"id" json:"id"`
	ParentID      int64 `db:"parent_id" json:"parent_id"`
	SubjectTypeID int64 `db:"subjecttypeid" json:"subjecttypeid"`
	SubjectID     int64 `db:"subjectid" json:"subjectid"`
}

// LegacySubject is a row of the legacy subject table.
type LegacySubject struct {
	ID          int64   `db:"id" json:"id"`
	SubjectName *string `db:"subjectName" json:"subjectName,omitempty"`
	UnivCode    *string `db:"univcode" json:"univcode,omitempty"`
}

// LegacyBoard is a row of the legacy board table.
type LegacyBoard struct {
	ID         int64    `db:"id" json:"id"`
	BoardName  string   `db:"boardName" json:"boardName"`
	DegreeID   *int64   `db:"degreeid" json:"degreeid,omitempty"`
	PassMarks  *float64 `db:"passmrks" json:"passmrks,omitempty"`
	Code       *string  `db:"code" json:"code,omitempty"`
	DegreeName *string  `db:"degreeName" json:"degreeName,omitempty"`
}

// LegacyBoardResultStatus is a row of boardresultstatus.
type LegacyBoardResultStatus struct {
	ID       int64   `db:"id" json:"id"`
	Name     string  `db:"name" json:"name"`
	SpclType *string `db:"spcltype" json:"spcltype,omitempty"`
	Flag     *string `db:"flag" json:"flag,omitempty"`
}
