package models

import "time"

// SubjectCriteria carries the hour targets and default window of a subject.
type SubjectCriteria struct {
	ID                string     `db:"id" json:"id"`
	Code              string     `db:"code" json:"code"`
	Name              string     `db:"name" json:"name"`
	DegreeID          string     `db:"degree_id" json:"degree_id"`
	Semester          int        `db:"semester" json:"semester"`
	Lectures          int        `db:"lectures" json:"lectures"`
	Studios           int        `db:"studios" json:"studios"`
	SubjectInChargeID *string    `db:"subject_in_charge_id" json:"subject_in_charge_id,omitempty"`
	BranchID          *string    `db:"branch_id" json:"branch_id,omitempty"`
	StartDate         *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate           *time.Time `db:"end_date" json:"end_date,omitempty"`
}

// HasTargets reports whether at least one hour target is set.
func (c *SubjectCriteria) HasTargets() bool {
	return c != nil && (c.Lectures > 0 || c.Studios > 0)
}

// FacultyRoleName names a member's role inside an offering.
type FacultyRoleName string

const (
	OfferingRoleLecture FacultyRoleName = "lecture"
	OfferingRoleStudio  FacultyRoleName = "studio"
)

// SubjectOffering ties a subject to a batch, semester and branch with its staff.
type SubjectOffering struct {
	ID                string  `db:"id" json:"id"`
	SubjectID         string  `db:"subject_id" json:"subject_id"`
	TopicID           *string `db:"topic_id" json:"topic_id,omitempty"`
	DegreeID          string  `db:"degree_id" json:"degree_id"`
	BatchYear         int     `db:"batch_year" json:"batch_year"`
	Semester          int     `db:"semester" json:"semester"`
	BranchID          *string `db:"branch_id" json:"branch_id,omitempty"`
	SubjectInChargeID *string `db:"subject_in_charge_id" json:"subject_in_charge_id,omitempty"`
}

// OfferingMember is a lecture or studio faculty assignment.
type OfferingMember struct {
	OfferingID string          `db:"offering_id" json:"offering_id"`
	FacultyID  string          `db:"faculty_id" json:"faculty_id"`
	Role       FacultyRoleName `db:"role" json:"role"`
}

// Branch is a specialisation inside a degree.
type Branch struct {
	ID                  string  `db:"id" json:"id"`
	Name                string  `db:"name" json:"name"`
	DegreeID            string  `db:"degree_id" json:"degree_id"`
	BranchHeadFacultyID *string `db:"branch_head_faculty_id" json:"branch_head_faculty_id,omitempty"`
}
