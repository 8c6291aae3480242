package model

import "time"

// Review is a rating left by an authenticated user on a scholarship.
// ScholarshipName and UniversityName are copied from the scholarship when the
// review is created.
type Review struct {
	ID              string    `json:"_id"             bson:"-"`
	ScholarshipID   string    `json:"scholarshipId"   bson:"scholarshipId"`
	ScholarshipName string    `json:"scholarshipName" bson:"scholarshipName"`
	UniversityName  string    `json:"universityName"  bson:"universityName"`
	ReviewerName    string    `json:"reviewerName"    bson:"reviewerName"`
	ReviewerEmail   string    `json:"reviewerEmail"   bson:"reviewerEmail"`
	ReviewerImage   string    `json:"reviewerImage"   bson:"reviewerImage"`
	Rating          int       `json:"rating"          bson:"rating"`
	Comment         string    `json:"comment"         bson:"comment"`
	CreatedAt       time.Time `json:"createdAt"       bson:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"       bson:"updatedAt"`
}

// ReviewPatch is a partial update of a review's rating and comment.
type ReviewPatch struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}
