package models

// CertificateStats summarises issuance for one calendar year. LastSequence is the
// per-year counter value, 0 before the first certificate of the year.
type CertificateStats struct {
	Year         int                     `json:"year"`
	Total        int                     `json:"total"`
	LastSequence int64                   `json:"lastSequence"`
	ByCourse     []CertificateCourseStat `json:"byCourse"`
	ByStatus     []CertificateStatusStat `json:"byStatus"`
}

// CertificateCourseStat counts certificates per course.
type CertificateCourseStat struct {
	CourseCode string `db:"course_code" json:"courseCode"`
	CourseName string `db:"course_name" json:"courseName"`
	Count      int    `db:"count" json:"count"`
}

// CertificateStatusStat counts certificates per status.
type CertificateStatusStat struct {
	Status CertificateStatus `db:"status" json:"status"`
	Count  int               `db:"count" json:"count"`
}
