package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/csl-management-api/internal/models"
	"github.com/noah-isme/csl-management-api/pkg/jobs"
)

type txMarker struct{}

// fakeStore emulates the certificate tables: the per-year counter upsert, the partial
// unique index on active pairs and transactional rollback. Transactions are serialised,
// which mirrors the counter row lock held until commit.
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	sequences    map[int]int64
	certificates map[string]models.Certificate
	audits       []models.AuditLog
	students     map[string]models.Student
	courses      map[string]models.Course

	failIncrement error
	failInsert    error
	failAudit     error
	failDetail    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sequences:    map[int]int64{},
		certificates: map[string]models.Certificate{},
		students:     map[string]models.Student{},
		courses:      map[string]models.Course{},
	}
}

func (f *fakeStore) addStudent(id, name string) {
	f.students[id] = models.Student{ID: id, FullName: name, Status: "active"}
}

func (f *fakeStore) addCourse(id, code, name string) {
	f.courses[id] = models.Course{ID: id, CourseCode: code, CourseName: name, IsActive: true}
}

func (f *fakeStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txMarker{}) != nil {
		return fn(ctx)
	}
	f.txMu.Lock()
	defer f.txMu.Unlock()

	f.mu.Lock()
	seqSnapshot := make(map[int]int64, len(f.sequences))
	for k, v := range f.sequences {
		seqSnapshot[k] = v
	}
	certSnapshot := make(map[string]models.Certificate, len(f.certificates))
	for k, v := range f.certificates {
		certSnapshot[k] = v
	}
	auditLen := len(f.audits)
	f.mu.Unlock()

	if err := fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		f.mu.Lock()
		f.sequences = seqSnapshot
		f.certificates = certSnapshot
		f.audits = f.audits[:auditLen]
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeStore) Increment(ctx context.Context, year int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIncrement != nil {
		return 0, f.failIncrement
	}
	f.sequences[year]++
	return f.sequences[year], nil
}

func (f *fakeStore) Insert(ctx context.Context, cert *models.Certificate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert != nil {
		return f.failInsert
	}
	if _, exists := f.certificates[cert.CslNumber]; exists {
		return fmt.Errorf("insert certificate: %w", &pq.Error{Code: "23505", Constraint: "certificates_csl_number_key"})
	}
	for _, existing := range f.certificates {
		if existing.Status == models.CertificateStatusActive && existing.StudentID == cert.StudentID && existing.CourseID == cert.CourseID {
			return fmt.Errorf("insert certificate: %w", &pq.Error{Code: "23505", Constraint: activePairConstraint})
		}
	}
	if cert.ID == "" {
		cert.ID = fmt.Sprintf("cert-%d", len(f.certificates)+1)
	}
	f.certificates[cert.CslNumber] = *cert
	return nil
}

func (f *fakeStore) FindActiveByPair(ctx context.Context, studentID, courseID string) (*models.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cert := range f.certificates {
		if cert.Status == models.CertificateStatusActive && cert.StudentID == studentID && cert.CourseID == courseID {
			c := cert
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStore) FindByCslNumber(ctx context.Context, cslNumber string) (*models.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cert, ok := f.certificates[cslNumber]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &cert, nil
}

func (f *fakeStore) FindDetail(ctx context.Context, cslNumber string) (*models.CertificateDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDetail != nil {
		return nil, f.failDetail
	}
	cert, ok := f.certificates[cslNumber]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return f.detail(cert), nil
}

func (f *fakeStore) detail(cert models.Certificate) *models.CertificateDetail {
	return &models.CertificateDetail{
		Certificate: cert,
		StudentName: f.students[cert.StudentID].FullName,
		CourseCode:  f.courses[cert.CourseID].CourseCode,
		CourseTitle: f.courses[cert.CourseID].CourseName,
	}
}

func (f *fakeStore) Revoke(ctx context.Context, params models.RevokeCertificateParams) (*models.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cert, ok := f.certificates[params.CslNumber]
	if !ok || cert.Status != models.CertificateStatusActive {
		return nil, sql.ErrNoRows
	}
	revokedAt := params.RevokedAt
	reason := params.Reason
	by := params.RevokedBy
	cert.Status = models.CertificateStatusRevoked
	cert.RevokedAt = &revokedAt
	cert.RevocationReason = &reason
	cert.RevokedBy = &by
	f.certificates[params.CslNumber] = cert
	return &cert, nil
}

func (f *fakeStore) UpdateDocument(ctx context.Context, params models.UpdateDocumentParams) (*models.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cert, ok := f.certificates[params.CslNumber]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cert.DocumentStatus = params.Status
	if params.PDFArtifactRef != nil {
		cert.PDFArtifactRef = params.PDFArtifactRef
	}
	cert.DocumentError = params.Error
	f.certificates[params.CslNumber] = cert
	return &cert, nil
}

func (f *fakeStore) List(ctx context.Context, filter models.CertificateFilter) ([]models.CertificateDetail, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []models.CertificateDetail
	for _, cert := range f.certificates {
		if filter.Status != "" && cert.Status != filter.Status {
			continue
		}
		if filter.Year != 0 && cert.IssueYear != filter.Year {
			continue
		}
		items = append(items, *f.detail(cert))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Sequence < items[j].Sequence })
	return items, len(items), nil
}

func (f *fakeStore) ListPendingDocuments(ctx context.Context, createdBefore time.Time, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var numbers []string
	for csl, cert := range f.certificates {
		if cert.Status == models.CertificateStatusActive && cert.DocumentStatus != models.DocumentStatusGenerated && cert.CreatedAt.Before(createdBefore) {
			numbers = append(numbers, csl)
		}
	}
	sort.Strings(numbers)
	return numbers, nil
}

func (f *fakeStore) Create(ctx context.Context, log *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAudit != nil {
		return f.failAudit
	}
	f.audits = append(f.audits, *log)
	return nil
}

func (f *fakeStore) auditActions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	actions := make([]string, 0, len(f.audits))
	for _, a := range f.audits {
		actions = append(actions, a.Action)
	}
	return actions
}

type fakeStudents struct{ store *fakeStore }

func (r fakeStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	student, ok := r.store.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &student, nil
}

type fakeCourses struct{ store *fakeStore }

func (r fakeCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	course, ok := r.store.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &course, nil
}

type fakeDocuments struct {
	mu      sync.Mutex
	failErr error
	files   map[string][]byte
	renders int
}

func newFakeDocuments() *fakeDocuments {
	return &fakeDocuments{files: map[string][]byte{}}
}

func (d *fakeDocuments) setFailure(err error) {
	d.mu.Lock()
	d.failErr = err
	d.mu.Unlock()
}

func (d *fakeDocuments) Render(detail *models.CertificateDetail) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.renders++
	if d.failErr != nil {
		return "", d.failErr
	}
	ref := DocumentPath(detail.Certificate)
	d.files[ref] = []byte("%PDF-" + detail.CslNumber)
	return ref, nil
}

func (d *fakeDocuments) Open(ref string) (io.ReadCloser, int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, ok := d.files[ref]
	if !ok {
		return nil, 0, errors.New("missing")
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (d *fakeDocuments) SignedURL(cslNumber, ref string) (string, time.Time, error) {
	return "https://csl.test/documents/" + cslNumber, time.Now().Add(time.Minute), nil
}

func (d *fakeDocuments) ParseToken(token string) (string, string, error) {
	return "", "", errors.New("invalid token signature")
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []jobs.Job
}

func (q *fakeQueue) Enqueue(job jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) ids() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	ids := make([]string, 0, len(q.jobs))
	for _, j := range q.jobs {
		ids = append(ids, j.ID)
	}
	return ids
}

type fakeStatsInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeStatsInvalidator) Invalidate(ctx context.Context) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

type certificateFixture struct {
	store     *fakeStore
	documents *fakeDocuments
	queue     *fakeQueue
	stats     *fakeStatsInvalidator
	hasher    *VerificationHasher
	svc       *CertificateService
}

func newCertificateFixture(now time.Time) *certificateFixture {
	store := newFakeStore()
	store.addStudent("stu-1", "Ada Lovelace")
	store.addStudent("stu-2", "Alan Turing")
	store.addCourse("course-1", "WD", "Web Development")
	store.addCourse("course-2", "DS", "Data Science")

	documents := newFakeDocuments()
	queue := &fakeQueue{}
	stats := &fakeStatsInvalidator{}
	hasher := NewVerificationHasher([]byte("test-hash-key"))
	svc := NewCertificateService(CertificateServiceDeps{
		Tx:           store,
		Certificates: store,
		Students:     fakeStudents{store: store},
		Courses:      fakeCourses{store: store},
		Audit:        store,
		Allocator:    NewNumberAllocator(store, nil, nil),
		Hasher:       hasher,
		Documents:    documents,
		Stats:        stats,
	})
	svc.SetDocumentQueue(queue)
	svc.now = func() time.Time { return now }
	return &certificateFixture{store: store, documents: documents, queue: queue, stats: stats, hasher: hasher, svc: svc}
}
