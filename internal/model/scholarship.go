package model

import "time"

// Scholarship is a funding offer posted by an Admin and read by anyone.
//
// ApplicationFees and CreatedAt are the two primary sort keys of the public
// listing; ScholarshipName, UniversityName and Degree are its search fields.
type Scholarship struct {
	ID                  string    `json:"_id"                 bson:"-"`
	ScholarshipName     string    `json:"scholarshipName"     bson:"scholarshipName"`
	UniversityName      string    `json:"universityName"      bson:"universityName"`
	UniversityImage     string    `json:"universityImage"     bson:"universityImage"`
	UniversityCountry   string    `json:"universityCountry"   bson:"universityCountry"`
	UniversityCity      string    `json:"universityCity"      bson:"universityCity"`
	UniversityWorldRank int       `json:"universityWorldRank" bson:"universityWorldRank"`
	SubjectCategory     string    `json:"subjectCategory"     bson:"subjectCategory"`
	ScholarshipCategory string    `json:"scholarshipCategory" bson:"scholarshipCategory"`
	Degree              string    `json:"degree"              bson:"degree"`
	TuitionFees         float64   `json:"tuitionFees"         bson:"tuitionFees"`
	ApplicationFees     float64   `json:"applicationFees"     bson:"applicationFees"`
	ServiceCharge       float64   `json:"serviceCharge"       bson:"serviceCharge"`
	ApplicationDeadline string    `json:"applicationDeadline" bson:"applicationDeadline"`
	PostedUserEmail     string    `json:"postedUserEmail"     bson:"postedUserEmail"`
	CreatedAt           time.Time `json:"createdAt"           bson:"createdAt"`
}

// ScholarshipPatch is a partial update; only non-nil fields are written.
type ScholarshipPatch struct {
	ScholarshipName     *string  `json:"scholarshipName"`
	UniversityName      *string  `json:"universityName"`
	UniversityImage     *string  `json:"universityImage"`
	UniversityCountry   *string  `json:"universityCountry"`
	UniversityCity      *string  `json:"universityCity"`
	UniversityWorldRank *int     `json:"universityWorldRank"`
	SubjectCategory     *string  `json:"subjectCategory"`
	ScholarshipCategory *string  `json:"scholarshipCategory"`
	Degree              *string  `json:"degree"`
	TuitionFees         *float64 `json:"tuitionFees"`
	ApplicationFees     *float64 `json:"applicationFees"`
	ServiceCharge       *float64 `json:"serviceCharge"`
	ApplicationDeadline *string  `json:"applicationDeadline"`
}

// Fields returns the set fields keyed by their document field name.
// Both store backends translate these keys to their own column names.
func (p ScholarshipPatch) Fields() map[string]any {
	f := make(map[string]any)
	setString(f, "scholarshipName", p.ScholarshipName)
	setString(f, "universityName", p.UniversityName)
	setString(f, "universityImage", p.UniversityImage)
	setString(f, "universityCountry", p.UniversityCountry)
	setString(f, "universityCity", p.UniversityCity)
	if p.UniversityWorldRank != nil {
		f["universityWorldRank"] = *p.UniversityWorldRank
	}
	setString(f, "subjectCategory", p.SubjectCategory)
	setString(f, "scholarshipCategory", p.ScholarshipCategory)
	setString(f, "degree", p.Degree)
	setFloat(f, "tuitionFees", p.TuitionFees)
	setFloat(f, "applicationFees", p.ApplicationFees)
	setFloat(f, "serviceCharge", p.ServiceCharge)
	setString(f, "applicationDeadline", p.ApplicationDeadline)
	return f
}

func setString(f map[string]any, key string, v *string) {
	if v != nil {
		f[key] = *v
	}
}

func setFloat(f map[string]any, key string, v *float64) {
	if v != nil {
		f[key] = *v
	}
}
