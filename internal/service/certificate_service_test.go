package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/csl-management-api/internal/dto"
	"github.com/noah-isme/csl-management-api/internal/models"
	appErrors "github.com/noah-isme/csl-management-api/pkg/errors"
	"github.com/noah-isme/csl-management-api/pkg/jobs"
)

var issueTime = time.Date(2026, 5, 20, 9, 30, 0, 0, time.UTC)

func issueRequest(studentID, courseID string) dto.IssueCertificateRequest {
	return dto.IssueCertificateRequest{StudentID: studentID, CourseID: courseID, CompletionDate: "2026-05-18"}
}

func TestCertificateServiceIssue(t *testing.T) {
	fx := newCertificateFixture(issueTime)
	notes := "  evening batch  "
	req := issueRequest("stu-1", "course-1")
	req.Notes = &notes

	result, err := fx.svc.Issue(context.Background(), req, "admin-1", models.RequestMeta{IPAddress: "10.0.0.1", RequestID: "req-1"})
	require.NoError(t, err)
	require.Nil(t, result.Warning)

	cert := result.Certificate
	assert.Equal(t, "CSL-2026-000001", cert.CslNumber)
	assert.Equal(t, 2026, cert.IssueYear)
	assert.EqualValues(t, 1, cert.Sequence)
	assert.Equal(t, models.CertificateStatusActive, cert.Status)
	assert.Equal(t, models.DocumentStatusGenerated, cert.DocumentStatus)
	assert.Equal(t, "Ada Lovelace", cert.StudentName)
	assert.Equal(t, "Web Development", cert.CourseTitle)
	assert.Equal(t, fx.hasher.Compute("CSL-2026-000001"), cert.VerificationHash)
	assert.Len(t, cert.VerificationHash, 32)
	assert.Equal(t, "evening batch", *cert.Notes)
	assert.Equal(t, time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC), cert.IssueDate)
	require.NotNil(t, cert.DownloadURL)

	assert.Equal(t, []string{models.AuditActionCertificateIssue}, fx.store.auditActions())
	assert.Equal(t, 1, fx.stats.calls)
	assert.Empty(t, fx.queue.ids())
}

func TestCertificateServiceIssueValidation(t *testing.T) {
	fx := newCertificateFixture(issueTime)
	cases := map[string]dto.IssueCertificateRequest{
		"missing student": {CourseID: "course-1", CompletionDate: "2026-05-01"},
		"missing course":  {StudentID: "stu-1", CompletionDate: "2026-05-01"},
		"bad date":        {StudentID: "stu-1", CourseID: "course-1", CompletionDate: "05/01/2026"},
		"future date":     {StudentID: "stu-1", CourseID: "course-1", CompletionDate: "2026-06-01"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := fx.svc.Issue(context.Background(), req, "admin-1", models.RequestMeta{})
			require.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}
	assert.Empty(t, fx.store.sequences)
}

func TestCertificateServiceIssueValidationDetailsUseJSONNames(t *testing.T) {
	fx := newCertificateFixture(issueTime)
	_, err := fx.svc.Issue(context.Background(), dto.IssueCertificateRequest{CompletionDate: "2026-05-01"}, "admin-1", models.RequestMeta{})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "required", appErr.Details["studentId"])
	assert.Equal(t, "required", appErr.Details["courseId"])
}

func TestCertificateServiceIssueUnknownReferences(t *testing.T) {
	fx := newCertificateFixture(issueTime)

	_, err := fx.svc.Issue(context.Background(), issueRequest("ghost", "course-1"), "admin-1", models.RequestMeta{})
	require.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, "ghost", appErrors.FromError(err).Details["studentId"])

	_, err = fx.svc.Issue(context.Background(), issueRequest("stu-1", "ghost"), "admin-1", models.RequestMeta{})
	require.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, "ghost", appErrors.FromError(err).Details["courseId"])
}

func TestCertificateServiceIssueInactiveCourse(t *testing.T) {
	fx := newCertificateFixture(issueTime)
	course := fx.store.courses["course-2"]
	course.IsActive = false
	fx.store.courses["course-2"] = course

	_, err := fx.svc.Issue(context.Background(), issueRequest("stu-1", "course-2"), "admin-1", models.RequestMeta{})
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestCertificateServiceIssueAlreadyIssued(t *testing.T) {
	fx := newCertificateFixture(issueTime)
	first, err := fx.svc.Issue(context.Background(), issueRequest("stu-1", "course-1"), "admin-1", models.RequestMeta{})
	require.NoError(t, err)

	_, err = fx.svc.Issue(context.Background(), issueRequest("stu-1", "course-1"), "admin-2", models.RequestMeta{})
	require.ErrorIs(t, err, appErrors.ErrAlreadyIssued)
	assert.Equal(t, first.Certificate.CslNumber, appErrors.FromError(err).Details["cslNumber"])
	assert.EqualValues(t, 1, fx.store.sequences[2026])
}

func TestCertificateServiceIssueConcurrentDistinctPairs(t *testing.T) {
	fx := newCertificateFixture(issueTime)
	const n = 25
	for i := 0; i < n; i++ {
		fx.store.addStudent(fmt.Sprintf("bulk-%02d", i), fmt.Sprintf("Student %02d", i))
	}

	var mu sync.Mutex
	numbers := make([]string, 0, n)
	sequences := make([]int64, 0, n)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < n; i++ {
		studentID := fmt.Sprintf("bulk-%02d", i)
		g.Go(func() error {
			res, err := fx.svc.Issue(ctx, issueRequest(studentID, "course-1"), "admin-1", models.RequestMeta{})
			if err != nil {
				return err
			}
			mu.Lock()
			numbers = append(numbers, res.Certificate.CslNumber)
			sequences = append(sequences, res.Certificate.Sequence)
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	unique := map[string]struct{}{}
	for _, csl := range numbers {
		unique[csl] = struct{}{}
	}
	assert.Len(t, unique, n)
	sort.Slice(sequences, func(i, j int) bool { return sequences[i] < sequences[j] })
	for i, seq := range sequences {
		assert.EqualValues(t, i+1, seq)
	}
}

func TestCertificateServiceIssueSamePairConcurrently(t *testing.T) {
	fx := newCertificateFixture(issueTime)
	const attempts = 8

	var (
		mu        sync.Mutex
		winners   []string
		conflicts []string
	)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := fx.svc.Issue(context.Background(), issueRequest("stu-2", "course-2"), "admin-1", models.RequestMeta{})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, appErrors.ErrAlreadyIssued) {
					conflicts = append(conflicts, appErrors.FromError(err).Details["cslNumber"])
				}
				return
			}
			winners = append(winners, res.Certificate.CslNumber)
		}()
	}
	close(start)
	wg.Wait()

	require.Len(t, winners, 1)
	require.Len(t, conflicts, attempts-1)
	for _, csl := range conflicts {
		assert.Equal(t, winners[0], csl)
	}
	assert.EqualValues(t, 1, fx.store.sequences[2026], "losing transactions roll back their counter increment")
	assert.Len(t, fx.store.auditActions(), 1)
}

func TestCertificateServiceIssueYearRollover(t *testing.T) {
	fx := newCertificateFixture(time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC))
	last, err := fx.svc.Issue(context.Background(), issueRequest("stu-1", "course-1"), "admin-1", models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "CSL-2026-000001", last.Certificate.CslNumber)

	fx.svc.now = func() time.Time { return time.Date(2027, 1, 1, 0, 0, 1, 0, time.UTC) }
	first, err := fx.svc.Issue(context.Background(), issueRequest("stu-2", "course-1"), "admin-1", models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "CSL-2027-000001", first.Certificate.CslNumber)
	assert.EqualValues(t, 1, first.Certificate.Sequence)
}

func TestCertificateServiceIssueAllocationFailure(t *testing.T) {
	fx := newCertificateFixture(issueTime)
	fx.store.failIncrement = errors.New("connection refused")

	_, err := fx.svc.Issue(context.Background(), issueRequest("stu-1", "course-1"), "admin-1", models.RequestMeta{})
	require.ErrorIs(t, err, appErrors.ErrStorageUnavailable)
	assert.Empty(t, fx.store.certificates)
	assert.Empty(t, fx.store.auditActions())
}

func TestCertificateServiceIssueAuditFailureRollsBack(t *testing.T) {
	fx := newCertificateFixture(issueTime)
	fx.store.failAudit = errors.New("audit table locked")

	_, err := fx.svc.Issue(context.Background(), issueRequest("stu-1", "course-1"), "admin-1", models.RequestMeta{})
	require.ErrorIs(t, err, appErrors.ErrStorageUnavailable)
	assert.Empty(t, fx.store.certificates)
	assert.Zero(t, fx.store.sequences[2026])
}

func TestCertificateServiceIssueDocumentFailureThenRegenerate(t *testing.T) {
	fx := newCertificateFixture(issueTime)
	fx.documents.setFailure(errors.New("font missing"))

	result, err := fx.svc.Issue(context.Background(), issueRequest("stu-1", "course-1"), "admin-1", models.RequestMeta{})
	require.NoError(t, err)
	require.NotNil(t, result.Warning)
	assert.Equal(t, "DOCUMENT_GENERATION_FAILED", result.Warning.Code)
	assert.Equal(t, models.DocumentStatusFailed, result.Certificate.DocumentStatus)
	assert.Nil(t, result.Certificate.DownloadURL)
	assert.Equal(t, []string{result.Certificate.CslNumber}, fx.queue.ids())

	issued := result.Certificate
	fx.documents.setFailure(nil)
	fx.svc.now = func() time.Time { return issueTime.Add(48 * time.Hour) }

	regenerated, err := fx.svc.RegenerateDocument(context.Background(), issued.CslNumber, "admin-2", models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, issued.CslNumber, regenerated.CslNumber)
	assert.Equal(t, issued.IssueDate, regenerated.IssueDate)
	assert.Equal(t, models.CertificateStatusActive, regenerated.Status)
	assert.Equal(t, models.DocumentStatusGenerated, regenerated.DocumentStatus)
	assert.Nil(t, regenerated.DocumentError)
	require.NotNil(t, regenerated.PDFArtifactRef)
	assert.Equal(t, "2026/CSL-2026-000001.pdf", *regenerated.PDFArtifactRef)
	assert.Equal(t, []string{models.AuditActionCertificateIssue, models.AuditActionCertificateRegenerate}, fx.store.auditActions())
}

func TestCertificateServiceRegenerateRejectsRevoked(t *testing.T) {
	fx := newCertificateFixture(issueTime)
	res, err := fx.svc.Issue(context.Background(), issueRequest("stu-1", "course-1"), "admin-1", models.RequestMeta{})
	require.NoError(t, err)
	_, err = fx.svc.Revoke(context.Background(), res.Certificate.CslNumber, dto.RevokeCertificateRequest{Reason: "duplicate"}, "admin-1", models.RequestMeta{})
	require.NoError(t, err)

	_, err = fx.svc.RegenerateDocument(context.Background(), res.Certificate.CslNumber, "admin-1", models.RequestMeta{})
	require.ErrorIs(t, err, appErrors.ErrAlreadyRevoked)
}

func TestCertificateServiceRevoke(t *testing.T) {
	fx := newCertificateFixture(issueTime)
	res, err := fx.svc.Issue(context.Background(), issueRequest("stu-1", "course-1"), "admin-1", models.RequestMeta{})
	require.NoError(t, err)
	csl := res.Certificate.CslNumber

	revokeTime := issueTime.Add(time.Hour)
	fx.svc.now = func() time.Time { return revokeTime }
	revoked, err := fx.svc.Revoke(context.Background(), csl, dto.RevokeCertificateRequest{Reason: "academic misconduct"}, "admin-9", models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.CertificateStatusRevoked, revoked.Status)
	assert.Equal(t, revokeTime, *revoked.RevokedAt)
	assert.Equal(t, "academic misconduct", *revoked.RevocationReason)
	assert.Equal(t, "admin-9", *revoked.RevokedBy)
	assert.Nil(t, revoked.DownloadURL)

	fx.svc.now = func() time.Time { return revokeTime.Add(time.Hour) }
	_, err = fx.svc.Revoke(context.Background(), csl, dto.RevokeCertificateRequest{Reason: "second attempt"}, "admin-3", models.RequestMeta{})
	require.ErrorIs(t, err, appErrors.ErrAlreadyRevoked)
	assert.Equal(t, csl, appErrors.FromError(err).Details["cslNumber"])

	stored := fx.store.certificates[csl]
	assert.Equal(t, "academic misconduct", *stored.RevocationReason)
	assert.Equal(t, revokeTime, *stored.RevokedAt)
	assert.Equal(t, []string{models.AuditActionCertificateIssue, models.AuditActionCertificateRevoke}, fx.store.auditActions())
	assert.Equal(t, 2, fx.stats.calls)
}

func TestCertificateServiceRevokeSurvivesReloadFailure(t *testing.T) {
	fx := newCertificateFixture(issueTime)
	res, err := fx.svc.Issue(context.Background(), issueRequest("stu-1", "course-1"), "admin-1", models.RequestMeta{})
	require.NoError(t, err)
	csl := res.Certificate.CslNumber

	fx.store.failDetail = errors.New("connection reset")
	revoked, err := fx.svc.Revoke(context.Background(), csl, dto.RevokeCertificateRequest{Reason: "issued in error"}, "admin-2", models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, csl, revoked.CslNumber)
	assert.Equal(t, models.CertificateStatusRevoked, revoked.Status)
	assert.Equal(t, "issued in error", *revoked.RevocationReason)
	assert.Equal(t, "Ada Lovelace", revoked.StudentName)
	assert.Equal(t, "Web Development", revoked.CourseTitle)
	assert.Equal(t, models.CertificateStatusRevoked, fx.store.certificates[csl].Status)
}

func TestCertificateServiceIssueCompletionDateByCalendarDay(t *testing.T) {
	fx := newCertificateFixture(time.Date(2026, 5, 20, 22, 0, 0, 0, time.UTC))

	ahead := issueRequest("stu-1", "course-1")
	ahead.CompletionDate = "2026-05-21"
	_, err := fx.svc.Issue(context.Background(), ahead, "admin-1", models.RequestMeta{})
	require.NoError(t, err)

	tooFar := issueRequest("stu-2", "course-1")
	tooFar.CompletionDate = "2026-05-22"
	_, err = fx.svc.Issue(context.Background(), tooFar, "admin-1", models.RequestMeta{})
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestCertificateServiceRevokeNotFoundAndValidation(t *testing.T) {
	fx := newCertificateFixture(issueTime)

	_, err := fx.svc.Revoke(context.Background(), "CSL-2026-000404", dto.RevokeCertificateRequest{Reason: "x"}, "admin-1", models.RequestMeta{})
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = fx.svc.Revoke(context.Background(), "not-a-number", dto.RevokeCertificateRequest{Reason: "x"}, "admin-1", models.RequestMeta{})
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = fx.svc.Revoke(context.Background(), "CSL-2026-000001", dto.RevokeCertificateRequest{}, "admin-1", models.RequestMeta{})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = fx.svc.Revoke(context.Background(), "CSL-2026-000001", dto.RevokeCertificateRequest{Reason: "   "}, "admin-1", models.RequestMeta{})
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestCertificateServiceReissueAfterRevocation(t *testing.T) {
	fx := newCertificateFixture(issueTime)
	first, err := fx.svc.Issue(context.Background(), issueRequest("stu-1", "course-1"), "admin-1", models.RequestMeta{})
	require.NoError(t, err)
	_, err = fx.svc.Revoke(context.Background(), first.Certificate.CslNumber, dto.RevokeCertificateRequest{Reason: "typo in name"}, "admin-1", models.RequestMeta{})
	require.NoError(t, err)

	second, err := fx.svc.Issue(context.Background(), issueRequest("stu-1", "course-1"), "admin-1", models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "CSL-2026-000002", second.Certificate.CslNumber)
}

func TestCertificateServiceListAndGet(t *testing.T) {
	fx := newCertificateFixture(issueTime)
	_, err := fx.svc.Issue(context.Background(), issueRequest("stu-1", "course-1"), "admin-1", models.RequestMeta{})
	require.NoError(t, err)
	_, err = fx.svc.Issue(context.Background(), issueRequest("stu-2", "course-1"), "admin-1", models.RequestMeta{})
	require.NoError(t, err)

	items, pagination, err := fx.svc.List(context.Background(), dto.CertificateListRequest{Status: "active"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 2, pagination.TotalCount)

	_, _, err = fx.svc.List(context.Background(), dto.CertificateListRequest{Status: "pending"})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	got, err := fx.svc.Get(context.Background(), " csl-2026-000002 ")
	require.NoError(t, err)
	assert.Equal(t, "Alan Turing", got.StudentName)

	_, err = fx.svc.Get(context.Background(), "CSL-2026-000099")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCertificateServiceOpenDocument(t *testing.T) {
	fx := newCertificateFixture(issueTime)
	res, err := fx.svc.Issue(context.Background(), issueRequest("stu-1", "course-1"), "admin-1", models.RequestMeta{})
	require.NoError(t, err)

	file, err := fx.svc.OpenDocument(context.Background(), res.Certificate.CslNumber)
	require.NoError(t, err)
	defer file.Content.Close()
	data, err := io.ReadAll(file.Content)
	require.NoError(t, err)
	assert.Equal(t, "CSL-2026-000001.pdf", file.Filename)
	assert.Equal(t, "%PDF-CSL-2026-000001", string(data))

	_, err = fx.svc.OpenDocument(context.Background(), "CSL-2026-000777")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCertificateServiceOpenDocumentNotGenerated(t *testing.T) {
	fx := newCertificateFixture(issueTime)
	fx.documents.setFailure(errors.New("disk full"))
	res, err := fx.svc.Issue(context.Background(), issueRequest("stu-1", "course-1"), "admin-1", models.RequestMeta{})
	require.NoError(t, err)

	_, err = fx.svc.OpenDocument(context.Background(), res.Certificate.CslNumber)
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCertificateServiceOpenSignedDocumentRejectsBadToken(t *testing.T) {
	fx := newCertificateFixture(issueTime)
	_, err := fx.svc.OpenSignedDocument(context.Background(), "garbage")
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestCertificateServiceProcessDocumentJob(t *testing.T) {
	fx := newCertificateFixture(issueTime)
	fx.documents.setFailure(errors.New("timeout"))
	res, err := fx.svc.Issue(context.Background(), issueRequest("stu-1", "course-1"), "admin-1", models.RequestMeta{})
	require.NoError(t, err)
	csl := res.Certificate.CslNumber

	err = fx.svc.ProcessDocumentJob(context.Background(), jobs.Job{ID: csl, Type: JobTypeRenderDocument})
	require.Error(t, err)

	fx.documents.setFailure(nil)
	require.NoError(t, fx.svc.ProcessDocumentJob(context.Background(), jobs.Job{ID: csl, Type: JobTypeRenderDocument, Attempt: 1}))
	assert.Equal(t, models.DocumentStatusGenerated, fx.store.certificates[csl].DocumentStatus)

	renders := fx.documents.renders
	require.NoError(t, fx.svc.ProcessDocumentJob(context.Background(), jobs.Job{ID: csl}))
	assert.Equal(t, renders, fx.documents.renders, "generated documents are not rendered again")

	require.NoError(t, fx.svc.ProcessDocumentJob(context.Background(), jobs.Job{ID: "CSL-2026-000999"}))
}

func TestCertificateServiceEnqueuePendingDocuments(t *testing.T) {
	fx := newCertificateFixture(issueTime)
	fx.documents.setFailure(errors.New("renderer down"))
	_, err := fx.svc.Issue(context.Background(), issueRequest("stu-1", "course-1"), "admin-1", models.RequestMeta{})
	require.NoError(t, err)
	fx.documents.setFailure(nil)
	_, err = fx.svc.Issue(context.Background(), issueRequest("stu-2", "course-1"), "admin-1", models.RequestMeta{})
	require.NoError(t, err)

	fx.queue.jobs = nil
	fx.svc.now = func() time.Time { return issueTime.Add(10 * time.Minute) }
	queued, err := fx.svc.EnqueuePendingDocuments(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)
	assert.Equal(t, []string{"CSL-2026-000001"}, fx.queue.ids())
}
