package services

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"unishare/internal/config"
	"unishare/internal/models"
	"unishare/internal/store"
	"unishare/internal/utils"
)

type memFiles struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemFiles() *memFiles {
	return &memFiles{objects: make(map[string][]byte)}
}

func (m *memFiles) Upload(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memFiles) PublicURL(key string) string { return "/files/" + key }

func (m *memFiles) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memFiles) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type sentMail struct {
	kind, to string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
}

func (n *recordingNotifier) SendWelcomeEmail(email, _, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{"welcome", email})
}

func (n *recordingNotifier) SendCommentNotification(email, _, _, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{"comment", email})
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	ctx      context.Context
	st       *store.Memory
	svc      *Services
	files    *memFiles
	notifier *recordingNotifier
	clock    *clock

	unit      *models.Unit
	otherUnit *models.Unit
	admin     *Session
	alice     *Session
	bob       *Session
	outsider  *Session
}

const defaultPassword = "student123"

// newFixture builds a portal with one class (alice and bob), a second class
// (outsider) and a super admin, all on a memory store.
func newFixture(t *testing.T, opts ...func(*Options)) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		ctx:      ctx,
		st:       store.NewMemory(),
		files:    newMemFiles(),
		notifier: &recordingNotifier{},
		clock:    &clock{now: time.Date(2024, 1, 9, 12, 0, 0, 0, time.UTC)},
	}

	o := Options{
		Policy:          config.DefaultPointsPolicy(),
		DefaultPassword: defaultPassword,
		SessionTTL:      time.Hour,
		Location:        time.UTC,
		Files:           f.files,
		Notifier:        f.notifier,
		Cache:           utils.NewLocalCache(32),
		Now:             f.clock.Now,
	}
	for _, fn := range opts {
		fn(&o)
	}
	f.st.SetClock(f.clock.Now)
	f.svc = New(f.st, o)

	program := &models.Program{Name: "BSc CS"}
	require.NoError(t, f.st.CreateProgram(ctx, program))
	course := &models.Course{ProgramID: program.ID, Name: "CS"}
	require.NoError(t, f.st.CreateCourse(ctx, course))
	classA := &models.ClassInstance{CourseID: course.ID, Year: 2, Semester: 1, Group: "A"}
	require.NoError(t, f.st.CreateClassInstance(ctx, classA))
	classB := &models.ClassInstance{CourseID: course.ID, Year: 2, Semester: 1, Group: "B"}
	require.NoError(t, f.st.CreateClassInstance(ctx, classB))

	f.unit = &models.Unit{ClassInstanceID: classA.ID, Code: "CSC201", Name: "Data Structures"}
	require.NoError(t, f.st.CreateUnit(ctx, f.unit))
	f.otherUnit = &models.Unit{ClassInstanceID: classB.ID, Code: "CSC299", Name: "Other"}
	require.NoError(t, f.st.CreateUnit(ctx, f.otherUnit))

	f.admin = f.session(t, "ADMIN001", models.RoleSuperAdmin, nil)
	f.alice = f.session(t, "S001", models.RoleStudent, &classA.ID)
	f.bob = f.session(t, "S002", models.RoleStudent, &classA.ID)
	f.outsider = f.session(t, "S003", models.RoleStudent, &classB.ID)
	return f
}

func (f *fixture) session(t *testing.T, admission, role string, class *uint) *Session {
	t.Helper()
	u := &models.User{
		AdmissionNumber: admission,
		Email:           strings.ToLower(admission) + "@uni.test",
		DisplayName:     admission,
		Role:            role,
		ClassInstanceID: class,
	}
	require.NoError(t, f.st.CreateUser(f.ctx, u))
	return &Session{Token: admission, User: u}
}

func (f *fixture) points(t *testing.T, sess *Session) int {
	t.Helper()
	u, err := f.st.GetUser(f.ctx, sess.User.ID)
	require.NoError(t, err)
	return u.Points
}

func (f *fixture) assignment(t *testing.T, owner *Session, deadline *time.Time) *ResourceView {
	t.Helper()
	r, err := f.svc.Resources.Create(f.ctx, owner, ResourceInput{
		UnitID:   f.unit.ID,
		Type:     models.ResourceAssignment,
		Title:    "Lab 1",
		Deadline: deadline,
	}, nil)
	require.NoError(t, err)
	return r
}

func (f *fixture) note(t *testing.T, owner *Session) *ResourceView {
	t.Helper()
	r, err := f.svc.Resources.Create(f.ctx, owner, ResourceInput{
		UnitID: f.unit.ID,
		Type:   models.ResourceNote,
		Title:  "Week 1 notes",
	}, &Upload{Name: "week1.pdf", Size: 4, ContentType: "application/pdf", Body: bytes.NewBufferString("%PDF")})
	require.NoError(t, err)
	return r
}
