package services

import (
	"context"
	"testing"

	"github.com/learnhub/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCourseFixture(t *testing.T) (*gorm.DB, *CourseService, *model.User) {
	t.Helper()

	db := newTestDB(t)
	svc := NewCourseService(db)
	student := createTestUser(t, db, "student@learnhub.test", model.RoleUser, 0)
	return db, svc, student
}

func createTestCourse(t *testing.T, svc *CourseService, title string, status model.CourseStatus) *model.Course {
	t.Helper()

	course := &model.Course{
		Title:       title,
		Description: "A test course",
		Instructor:  "Jane Doe",
		Price:       49.99,
		Status:      status,
		Category:    "programming",
		Level:       "beginner",
	}
	require.NoError(t, svc.Create(context.Background(), course))
	return course
}

func TestCourseList(t *testing.T) {
	_, svc, _ := newCourseFixture(t)

	createTestCourse(t, svc, "Go Fundamentals", model.CourseStatusPublished)
	createTestCourse(t, svc, "Advanced Go", model.CourseStatusPublished)
	createTestCourse(t, svc, "Draft Course", model.CourseStatusDraft)

	t.Run("filters by status", func(t *testing.T) {
		courses, total, err := svc.List(context.Background(), ListCoursesOptions{Status: "published", Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, courses, 2)
	})

	t.Run("search is case-insensitive", func(t *testing.T) {
		courses, total, err := svc.List(context.Background(), ListCoursesOptions{Search: "ADVANCED", Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, courses, 1)
		assert.Equal(t, "Advanced Go", courses[0].Title)
	})

	t.Run("no filter returns everything", func(t *testing.T) {
		_, total, err := svc.List(context.Background(), ListCoursesOptions{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
	})
}

func TestCourseUpdateAndDelete(t *testing.T) {
	_, svc, _ := newCourseFixture(t)
	course := createTestCourse(t, svc, "Editable", model.CourseStatusDraft)

	updated, err := svc.Update(context.Background(), course.ID, map[string]interface{}{
		"status": model.CourseStatusPublished,
		"price":  0.0,
	})
	require.NoError(t, err)
	assert.Equal(t, model.CourseStatusPublished, updated.Status)

	require.NoError(t, svc.Delete(context.Background(), course.ID))
	_, err = svc.Get(context.Background(), course.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, svc.Delete(context.Background(), course.ID), gorm.ErrRecordNotFound)
}

func TestEnroll(t *testing.T) {
	db, svc, student := newCourseFixture(t)
	course := createTestCourse(t, svc, "Go Fundamentals", model.CourseStatusPublished)

	enrollment, err := svc.Enroll(context.Background(), student.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentStatusActive, enrollment.Status)
	assert.Zero(t, enrollment.Progress)

	// The lifetime counter moved with the enrollment
	var reloaded model.Course
	require.NoError(t, db.First(&reloaded, course.ID).Error)
	assert.Equal(t, int64(1), reloaded.EnrolledCount)

	t.Run("duplicate enrollment is rejected", func(t *testing.T) {
		_, err := svc.Enroll(context.Background(), student.ID, course.ID)
		assert.ErrorIs(t, err, ErrAlreadyEnrolled)

		require.NoError(t, db.First(&reloaded, course.ID).Error)
		assert.Equal(t, int64(1), reloaded.EnrolledCount)
	})

	t.Run("unpublished courses reject enrollment", func(t *testing.T) {
		draft := createTestCourse(t, svc, "Draft", model.CourseStatusDraft)
		_, err := svc.Enroll(context.Background(), student.ID, draft.ID)
		assert.ErrorIs(t, err, ErrCourseNotPublished)
	})

	t.Run("missing course", func(t *testing.T) {
		_, err := svc.Enroll(context.Background(), student.ID, 9999)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestUpdateProgress(t *testing.T) {
	_, svc, student := newCourseFixture(t)
	course := createTestCourse(t, svc, "Go Fundamentals", model.CourseStatusPublished)
	_, err := svc.Enroll(context.Background(), student.ID, course.ID)
	require.NoError(t, err)

	t.Run("records progress", func(t *testing.T) {
		enrollment, err := svc.UpdateProgress(context.Background(), student.ID, course.ID, 40, 4)
		require.NoError(t, err)
		assert.Equal(t, 40, enrollment.Progress)
		assert.Equal(t, 4, enrollment.CompletedLessons)
		assert.Equal(t, model.EnrollmentStatusActive, enrollment.Status)
	})

	t.Run("full progress completes the enrollment", func(t *testing.T) {
		enrollment, err := svc.UpdateProgress(context.Background(), student.ID, course.ID, 100, 10)
		require.NoError(t, err)
		assert.Equal(t, model.EnrollmentStatusCompleted, enrollment.Status)
	})

	t.Run("rejects out-of-range progress", func(t *testing.T) {
		_, err := svc.UpdateProgress(context.Background(), student.ID, course.ID, 101, 0)
		assert.ErrorIs(t, err, ErrInvalidProgress)
		_, err = svc.UpdateProgress(context.Background(), student.ID, course.ID, -1, 0)
		assert.ErrorIs(t, err, ErrInvalidProgress)
	})

	t.Run("requires an enrollment", func(t *testing.T) {
		other := createTestCourse(t, svc, "Other", model.CourseStatusPublished)
		_, err := svc.UpdateProgress(context.Background(), student.ID, other.ID, 10, 1)
		assert.ErrorIs(t, err, ErrNotEnrolled)
	})
}

func TestDrop(t *testing.T) {
	db, svc, student := newCourseFixture(t)
	course := createTestCourse(t, svc, "Go Fundamentals", model.CourseStatusPublished)
	_, err := svc.Enroll(context.Background(), student.ID, course.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Drop(context.Background(), student.ID, course.ID))

	var enrollment model.Enrollment
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", student.ID, course.ID).First(&enrollment).Error)
	assert.Equal(t, model.EnrollmentStatusDropped, enrollment.Status)

	// The lifetime counter does not go back down
	var reloaded model.Course
	require.NoError(t, db.First(&reloaded, course.ID).Error)
	assert.Equal(t, int64(1), reloaded.EnrolledCount)

	// Dropping again fails, the enrollment is no longer active
	assert.ErrorIs(t, svc.Drop(context.Background(), student.ID, course.ID), ErrNotEnrolled)
}

func TestRate(t *testing.T) {
	db, svc, student := newCourseFixture(t)
	course := createTestCourse(t, svc, "Go Fundamentals", model.CourseStatusPublished)
	_, err := svc.Enroll(context.Background(), student.ID, course.ID)
	require.NoError(t, err)

	other := createTestUser(t, db, "other@learnhub.test", model.RoleUser, 0)
	_, err = svc.Enroll(context.Background(), other.ID, course.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Rate(context.Background(), student.ID, course.ID, 5, "Great course"))
	require.NoError(t, svc.Rate(context.Background(), other.ID, course.ID, 3, "Decent"))

	var reloaded model.Course
	require.NoError(t, db.First(&reloaded, course.ID).Error)
	assert.InDelta(t, 4.0, reloaded.Rating, 0.001)

	t.Run("rejects out-of-range ratings", func(t *testing.T) {
		assert.Error(t, svc.Rate(context.Background(), student.ID, course.ID, 0, ""))
		assert.Error(t, svc.Rate(context.Background(), student.ID, course.ID, 6, ""))
	})

	t.Run("requires an enrollment", func(t *testing.T) {
		stranger := createTestUser(t, db, "stranger@learnhub.test", model.RoleUser, 0)
		assert.ErrorIs(t, svc.Rate(context.Background(), stranger.ID, course.ID, 4, ""), ErrNotEnrolled)
	})
}

func TestEnrollmentsFor(t *testing.T) {
	_, svc, student := newCourseFixture(t)
	first := createTestCourse(t, svc, "First", model.CourseStatusPublished)
	second := createTestCourse(t, svc, "Second", model.CourseStatusPublished)

	_, err := svc.Enroll(context.Background(), student.ID, first.ID)
	require.NoError(t, err)
	_, err = svc.Enroll(context.Background(), student.ID, second.ID)
	require.NoError(t, err)

	enrollments, err := svc.EnrollmentsFor(context.Background(), student.ID)
	require.NoError(t, err)
	require.Len(t, enrollments, 2)
	for _, e := range enrollments {
		assert.NotEmpty(t, e.Course.Title)
	}
}
