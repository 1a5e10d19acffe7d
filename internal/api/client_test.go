package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/roster/internal/apitest"
	"github.com/felixgeelhaar/roster/internal/employee"
	"github.com/felixgeelhaar/roster/internal/metrics"
	"github.com/felixgeelhaar/roster/internal/session"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "secret1"
	testToken    = "tok-123"
)

func newFixture(t *testing.T) (*apitest.Server, *session.Session) {
	t.Helper()
	srv := apitest.New(testEmail, testPassword, testToken)
	t.Cleanup(srv.Close)

	srv.AddDepartment(1, "Engineering")
	srv.AddDepartment(2, "Sales")
	srv.AddEmployee("Ana Lopez", "ana@example.com", 1)
	srv.AddEmployee("Mariana Cruz", "mariana@example.com", 2)
	srv.AddEmployee("Bob Stone", "bob@example.com", 2)

	sess, err := session.New(session.NewMemoryStorage(""))
	require.NoError(t, err)
	return srv, sess
}

func newClient(srv *apitest.Server, sess *session.Session, opts ...Option) *Client {
	base := []Option{
		WithTokenSource(sess),
		WithUnauthorizedHandler(func(error) { _ = sess.Expire() }),
	}
	return New(srv.URL, append(base, opts...)...)
}

func TestLogin(t *testing.T) {
	srv, sess := newFixture(t)
	c := newClient(srv, sess)

	resp, err := c.Login(context.Background(), Credentials{Email: testEmail, Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, testToken, resp.Token)

	req, ok := srv.LastRequest(http.MethodPost, "/api/auth/login")
	require.True(t, ok)
	assert.Empty(t, req.Authorization, "login is unauthenticated")
	assert.NotEmpty(t, req.RequestID)
}

func TestLoginInvalidCredentials(t *testing.T) {
	srv, sess := newFixture(t)
	c := newClient(srv, sess)

	_, err := c.Login(context.Background(), Credentials{Email: testEmail, Password: "wrong-pass"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)

	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "invalid email or password", aerr.Message)
}

func TestListEmployeesSendsQueryAndToken(t *testing.T) {
	srv, sess := newFixture(t)
	require.NoError(t, sess.SetToken(testToken))
	c := newClient(srv, sess)

	q := employee.NewQuery(10)
	q.Search = "ana"

	page, err := c.ListEmployees(context.Background(), q)
	require.NoError(t, err)

	req, ok := srv.LastRequest(http.MethodGet, "/api/employees")
	require.True(t, ok)
	assert.Equal(t, "page=1&limit=10&search=ana&departmentId=", req.RawQuery)
	assert.Equal(t, "Bearer "+testToken, req.Authorization)

	require.Len(t, page.Employees, 2)
	assert.Equal(t, "Ana Lopez", page.Employees[0].Name)
	assert.Equal(t, "Engineering", page.Employees[0].DepartmentName())
	assert.Equal(t, "Mariana Cruz", page.Employees[1].Name)
	assert.Equal(t, 2, page.Total)
}

func TestListEmployeesBeyondLastPage(t *testing.T) {
	srv, sess := newFixture(t)
	require.NoError(t, sess.SetToken(testToken))
	c := newClient(srv, sess)

	q := employee.NewQuery(10)
	q.Page = 4

	page, err := c.ListEmployees(context.Background(), q)
	require.NoError(t, err)
	assert.NotNil(t, page.Employees)
	assert.Empty(t, page.Employees)
	assert.Equal(t, 3, page.Total)
}

func TestListDepartments(t *testing.T) {
	srv, sess := newFixture(t)
	require.NoError(t, sess.SetToken(testToken))
	c := newClient(srv, sess)

	deps, err := c.ListDepartments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []employee.Department{{ID: 1, Name: "Engineering"}, {ID: 2, Name: "Sales"}}, deps)
}

func TestCreateUpdateDelete(t *testing.T) {
	srv, sess := newFixture(t)
	require.NoError(t, sess.SetToken(testToken))
	c := newClient(srv, sess)
	ctx := context.Background()

	created, err := c.CreateEmployee(ctx, employee.Input{Name: "Dee", Email: "dee@example.com", DepartmentID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(4), created.ID)

	updated, err := c.UpdateEmployee(ctx, created.ID, employee.Input{Name: "Dee Dee", Email: "dee@example.com", DepartmentID: 2})
	require.NoError(t, err)
	assert.Equal(t, "Dee Dee", updated.Name)
	assert.Equal(t, int64(2), updated.DepartmentID)

	require.NoError(t, c.DeleteEmployee(ctx, created.ID))
	_, ok := srv.Employee(created.ID)
	assert.False(t, ok)

	err = c.DeleteEmployee(ctx, created.ID)
	assert.ErrorIs(t, err, ErrRejected)
}

func TestUnauthorizedExpiresSession(t *testing.T) {
	srv, sess := newFixture(t)
	require.NoError(t, sess.SetToken("stale-token"))

	var events []session.Event
	sess.Subscribe(func(e session.Event) { events = append(events, e) })

	c := newClient(srv, sess)
	_, err := c.ListDepartments(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, sess.Authenticated())
	assert.Equal(t, []session.Event{session.EventExpired}, events)
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
		kind   Kind
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized, KindUnauthorized},
		{"forbidden", http.StatusForbidden, ErrRejected, KindRejected},
		{"unprocessable", http.StatusUnprocessableEntity, ErrRejected, KindRejected},
		{"server error", http.StatusInternalServerError, ErrRequestFailed, KindFailed},
		{"unavailable", http.StatusServiceUnavailable, ErrRequestFailed, KindFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, sess := newFixture(t)
			require.NoError(t, sess.SetToken(testToken))
			srv.ForceStatus(http.MethodPost, "/api/employees", tt.status)
			c := newClient(srv, sess)

			_, err := c.CreateEmployee(context.Background(), employee.Input{Name: "X", Email: "x@example.com", DepartmentID: 1})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			kind, ok := KindOf(err)
			assert.True(t, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url)
	_, err := c.ListDepartments(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestContextCancellation(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := New(srv.URL).ListDepartments(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestServerMessageFallbacks(t *testing.T) {
	assert.Equal(t, "boom", serverMessage([]byte(`{"error":"boom"}`)))
	assert.Equal(t, "nope", serverMessage([]byte(`{"message":"nope"}`)))
	assert.Equal(t, "plain text", serverMessage([]byte("plain text\n")))
}

func TestMetricsRecorded(t *testing.T) {
	srv, sess := newFixture(t)
	require.NoError(t, sess.SetToken(testToken))
	_, m := metrics.NewRegistry()
	c := newClient(srv, sess, WithMetrics(m))

	_, err := c.ListDepartments(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.APIRequests.WithLabelValues("GET", "/api/employees/departments", "200")))
}

func TestErrorLogAttrs(t *testing.T) {
	err := &Error{Kind: KindRejected, Op: "create employee", Method: "POST", Path: "/api/employees", Status: 422, Message: "email taken"}
	attrs := err.LogAttrs()

	assert.Contains(t, attrs, "rejected")
	assert.Contains(t, attrs, 422)
	assert.Contains(t, attrs, "email taken")
	assert.Equal(t, "create employee: POST /api/employees: 422 email taken", err.Error())
}
