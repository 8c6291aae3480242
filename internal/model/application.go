package model

import "time"

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

const (
	StatusPending    ApplicationStatus = "pending"
	StatusProcessing ApplicationStatus = "processing"
	StatusCompleted  ApplicationStatus = "completed"
	StatusRejected   ApplicationStatus = "rejected"
)

// Valid reports whether s is a known application status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// PaymentStatus records whether the application fee has been paid.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// Application is a user's application to one scholarship.
//
// Lifecycle: created pending/unpaid by the applicant; PaymentStatus flips to
// paid on payment confirmation; ApplicationStatus and Feedback are changed by
// staff only; the applicant may delete it while it is still pending.
type Application struct {
	ID                  string            `json:"_id"                 bson:"-"`
	ScholarshipID       string            `json:"scholarshipId"       bson:"scholarshipId"`
	ScholarshipName     string            `json:"scholarshipName"     bson:"scholarshipName"`
	UniversityName      string            `json:"universityName"      bson:"universityName"`
	ScholarshipCategory string            `json:"scholarshipCategory" bson:"scholarshipCategory"`
	SubjectCategory     string            `json:"subjectCategory"     bson:"subjectCategory"`
	Degree              string            `json:"degree"              bson:"degree"`
	ApplicationFees     float64           `json:"applicationFees"     bson:"applicationFees"`
	ServiceCharge       float64           `json:"serviceCharge"       bson:"serviceCharge"`
	UserID              string            `json:"userId"              bson:"userId"`
	UserName            string            `json:"userName"            bson:"userName"`
	UserEmail           string            `json:"userEmail"           bson:"userEmail"`
	Phone               string            `json:"phone"               bson:"phone"`
	Address             string            `json:"address"             bson:"address"`
	ApplicationStatus   ApplicationStatus `json:"applicationStatus"   bson:"applicationStatus"`
	PaymentStatus       PaymentStatus     `json:"paymentStatus"       bson:"paymentStatus"`
	Feedback            string            `json:"feedback"            bson:"feedback"`
	ApplicationDate     time.Time         `json:"applicationDate"     bson:"applicationDate"`
}
