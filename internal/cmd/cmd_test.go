package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/roster/internal/apitest"
	"github.com/felixgeelhaar/roster/internal/config"
	"github.com/felixgeelhaar/roster/internal/employee"
	rerrors "github.com/felixgeelhaar/roster/internal/errors"
	"github.com/felixgeelhaar/roster/internal/exitcode"
	"github.com/felixgeelhaar/roster/internal/session"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "secret1"
	testToken    = "tok-123"
)

type fixture struct {
	srv  *apitest.Server
	home string
}

func newFixture(t *testing.T, token string) *fixture {
	t.Helper()
	for _, key := range []string{config.EnvHome, config.EnvAPIURL, config.EnvLogLevel, config.EnvPageSize, config.EnvExportDir, config.EnvPassphrase} {
		t.Setenv(key, "")
	}

	srv := apitest.New(testEmail, testPassword, token)
	t.Cleanup(srv.Close)
	srv.AddDepartment(1, "Engineering")
	srv.AddDepartment(2, "Sales")
	srv.AddEmployee("Ana", "ana@example.com", 1)
	srv.AddEmployee("Bob", "bob@example.com", 2)
	srv.AddEmployee("Carla", "carla@example.com", 2)

	return &fixture{srv: srv, home: t.TempDir()}
}

// login stores token the way a successful login does.
func (f *fixture) login(t *testing.T, token string) {
	t.Helper()
	require.NoError(t, session.NewFileStorage(filepath.Join(f.home, sessionFile)).Save(token))
}

func (f *fixture) run(args ...string) (string, error) {
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"--home", f.home, "--api-url", f.srv.URL, "--no-input", "--no-color"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func codeOf(t *testing.T, err error) rerrors.ErrorCode {
	t.Helper()
	var rerr *rerrors.RosterError
	require.True(t, errors.As(err, &rerr), "expected a coded error, got %v", err)
	return rerr.Code
}

func TestLoginStoresSession(t *testing.T) {
	f := newFixture(t, testToken)

	out, err := f.run("login", "--email", testEmail, "--password", testPassword)
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as "+testEmail)

	token, err := session.NewFileStorage(filepath.Join(f.home, sessionFile)).Load()
	require.NoError(t, err)
	assert.Equal(t, testToken, token)

	out, err = f.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in to "+f.srv.URL)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t, testToken)

	_, err := f.run("login", "--email", testEmail, "--password", "wrong-pass")
	require.Error(t, err)
	assert.Equal(t, rerrors.ErrCodeAuthInvalid, codeOf(t, err))
	assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(err))

	_, statErr := os.Stat(filepath.Join(f.home, sessionFile))
	assert.True(t, os.IsNotExist(statErr), "no session is stored after a failed login")
}

func TestLoginValidatesBeforeSending(t *testing.T) {
	f := newFixture(t, testToken)

	_, err := f.run("login", "--email", "not-an-email", "--password", "123")
	require.Error(t, err)
	assert.Equal(t, exitcode.ValidationError, exitcode.DetermineExitCode(err))

	_, sent := f.srv.LastRequest(http.MethodPost, "/api/auth/login")
	assert.False(t, sent)
}

func TestLoginUnreachable(t *testing.T) {
	f := newFixture(t, testToken)
	f.srv.Close()

	_, err := f.run("login", "--email", testEmail, "--password", testPassword)
	require.Error(t, err)
	assert.Equal(t, rerrors.ErrCodeAPIUnreachable, codeOf(t, err))
	assert.Equal(t, exitcode.NetworkError, exitcode.DetermineExitCode(err))
}

func TestLogout(t *testing.T) {
	f := newFixture(t, testToken)
	f.login(t, testToken)

	out, err := f.run("logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	out, err = f.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")
}

func TestStatusShowsClaims(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "42",
		"email": testEmail,
		"exp":   exp.Unix(),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	f := newFixture(t, signed)
	f.login(t, signed)

	out, err := f.run("status", "--format", "json")
	require.NoError(t, err)

	var st sessionStatus
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.True(t, st.Authenticated)
	assert.Equal(t, "42", st.Subject)
	assert.Equal(t, testEmail, st.Email)
	assert.Equal(t, "2030-01-02T03:04:05Z", st.ExpiresAt)
}

func TestProtectedCommandsRequireSession(t *testing.T) {
	f := newFixture(t, testToken)

	for _, args := range [][]string{
		{"employees", "list"},
		{"employees", "add", "--name", "Dan", "--email", "dan@example.com", "--department", "1"},
		{"employees", "delete", "1", "--yes"},
		{"departments"},
	} {
		t.Run(strings.Join(args[:min(2, len(args))], " "), func(t *testing.T) {
			_, err := f.run(args...)
			require.Error(t, err)
			assert.Equal(t, rerrors.ErrCodeAuthRequired, codeOf(t, err))
		})
	}
	assert.Empty(t, f.srv.Requests())
}

func TestEmployeesList(t *testing.T) {
	f := newFixture(t, testToken)
	f.login(t, testToken)

	out, err := f.run("employees", "list", "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Ana")
	assert.Contains(t, out, "Bob")
	assert.NotContains(t, out, "Carla")
	assert.Contains(t, out, "Page 1 of 2 (3 total)")

	req, ok := f.srv.LastRequest(http.MethodGet, "/api/employees")
	require.True(t, ok)
	assert.Equal(t, "page=1&limit=2&search=&departmentId=", req.RawQuery)
}

func TestEmployeesListJSONWithFilters(t *testing.T) {
	f := newFixture(t, testToken)
	f.login(t, testToken)

	out, err := f.run("employees", "list", "--department", "2", "--search", "car", "--format", "json")
	require.NoError(t, err)

	var page employee.Page
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Len(t, page.Employees, 1)
	assert.Equal(t, "Carla", page.Employees[0].Name)
	assert.Equal(t, "Sales", page.Employees[0].DepartmentName())
	assert.Equal(t, 1, page.Total)
}

func TestEmployeesListEmpty(t *testing.T) {
	f := newFixture(t, testToken)
	f.login(t, testToken)

	out, err := f.run("employees", "list", "--search", "nobody")
	require.NoError(t, err)
	assert.Contains(t, out, "No employees found")
}

func TestExpiredSessionIsCleared(t *testing.T) {
	f := newFixture(t, testToken)
	f.login(t, "stale-token")

	_, err := f.run("employees", "list")
	require.Error(t, err)
	assert.Equal(t, rerrors.ErrCodeAuthExpired, codeOf(t, err))
	assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(err))

	_, statErr := os.Stat(filepath.Join(f.home, sessionFile))
	assert.True(t, os.IsNotExist(statErr), "a rejected token is discarded")
}

func TestEmployeesAdd(t *testing.T) {
	f := newFixture(t, testToken)
	f.login(t, testToken)

	out, err := f.run("employees", "add", "--name", "Dan", "--email", "dan@example.com", "--department", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Created employee 4: Dan <dan@example.com>")

	saved, ok := f.srv.Employee(4)
	require.True(t, ok)
	assert.Equal(t, int64(1), saved.DepartmentID)
}

func TestEmployeesAddValidation(t *testing.T) {
	f := newFixture(t, testToken)
	f.login(t, testToken)

	_, err := f.run("employees", "add", "--name", "Dan", "--email", "nope")
	require.Error(t, err)
	assert.Equal(t, exitcode.ValidationError, exitcode.DetermineExitCode(err))
	assert.Contains(t, err.Error(), "Invalid email")

	_, sent := f.srv.LastRequest(http.MethodPost, "/api/employees")
	assert.False(t, sent)
}

func TestEmployeesAddServerFailure(t *testing.T) {
	f := newFixture(t, testToken)
	f.login(t, testToken)
	f.srv.ForceStatus(http.MethodPost, "/api/employees", http.StatusInternalServerError)

	_, err := f.run("employees", "add", "--name", "Dan", "--email", "dan@example.com", "--department", "1")
	require.Error(t, err)
	assert.Equal(t, rerrors.ErrCodeAPIFailed, codeOf(t, err))
	assert.Equal(t, exitcode.NetworkError, exitcode.DetermineExitCode(err))
}

func TestEmployeesEditKeepsUnsetFields(t *testing.T) {
	f := newFixture(t, testToken)
	f.login(t, testToken)

	out, err := f.run("employees", "edit", "3", "--email", "carla@corp.example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated employee 3")

	saved, ok := f.srv.Employee(3)
	require.True(t, ok)
	assert.Equal(t, "Carla", saved.Name)
	assert.Equal(t, "carla@corp.example.com", saved.Email)
	assert.Equal(t, int64(2), saved.DepartmentID)
}

func TestEmployeesEditFindsLaterPages(t *testing.T) {
	f := newFixture(t, testToken)
	f.login(t, testToken)
	_, err := f.run("config", "set", "list.page_size", "1")
	require.NoError(t, err)

	_, err = f.run("employees", "edit", "3", "--name", "Carla Diaz")
	require.NoError(t, err)

	saved, _ := f.srv.Employee(3)
	assert.Equal(t, "Carla Diaz", saved.Name)
}

func TestEmployeesEditUnknown(t *testing.T) {
	f := newFixture(t, testToken)
	f.login(t, testToken)

	_, err := f.run("employees", "edit", "99", "--name", "Nobody")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "employee 99 not found")
	assert.Equal(t, exitcode.ValidationError, exitcode.DetermineExitCode(err))
}

func TestEmployeesDelete(t *testing.T) {
	f := newFixture(t, testToken)
	f.login(t, testToken)

	_, err := f.run("employees", "delete", "2")
	require.Error(t, err, "--no-input without --yes refuses")
	_, exists := f.srv.Employee(2)
	assert.True(t, exists)

	out, err := f.run("employees", "delete", "2", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted employee 2")
	_, exists = f.srv.Employee(2)
	assert.False(t, exists)

	_, err = f.run("employees", "delete", "2", "--yes")
	require.Error(t, err)
	assert.Equal(t, rerrors.ErrCodeAPIRejected, codeOf(t, err))
}

func TestEmployeesDeleteInvalidID(t *testing.T) {
	f := newFixture(t, testToken)

	_, err := f.run("employees", "delete", "abc", "--yes")
	require.Error(t, err)
	assert.Equal(t, rerrors.ErrCodeInvalidArgument, codeOf(t, err))
}

func pinNow(t *testing.T) {
	t.Helper()
	prev := now
	now = func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = prev })
}

func TestEmployeesExportCSV(t *testing.T) {
	pinNow(t)
	f := newFixture(t, testToken)
	f.login(t, testToken)
	dir := t.TempDir()

	out, err := f.run("employees", "export", "--out", dir, "--department", "2")
	require.NoError(t, err)

	path := filepath.Join(dir, "employees_2024-03-09.csv")
	assert.Contains(t, out, "Exported 2 rows to "+path)
	assert.Contains(t, out, "blake3: ")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ID,Name,Email,Department\n"+
		`2,"Bob","bob@example.com","Sales"`+"\n"+
		`3,"Carla","carla@example.com","Sales"`, string(data))
}

func TestEmployeesExportAllPagesXLSX(t *testing.T) {
	pinNow(t)
	f := newFixture(t, testToken)
	f.login(t, testToken)
	dir := t.TempDir()

	out, err := f.run("employees", "export", "--out", dir, "--xlsx", "--all", "--limit", "1", "--format", "json")
	require.NoError(t, err)

	var summary exportSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 3, summary.Rows)
	assert.Equal(t, "xlsx", summary.Format)
	assert.Equal(t, filepath.Join(dir, "employees_2024-03-09.xlsx"), summary.Path)
	assert.Len(t, summary.Digest, 64)
	assert.FileExists(t, summary.Path)
}

func TestDepartments(t *testing.T) {
	f := newFixture(t, testToken)
	f.login(t, testToken)

	out, err := f.run("departments")
	require.NoError(t, err)
	assert.Contains(t, out, "Engineering")
	assert.Contains(t, out, "Sales")

	out, err = f.run("departments", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Engineering")
}

func TestConfigSetGet(t *testing.T) {
	f := newFixture(t, testToken)

	out, err := f.run("config", "path")
	require.NoError(t, err)
	assert.Equal(t, config.Path(f.home)+"\n", out)

	_, err = f.run("config", "set", "list.page_size", "25")
	require.NoError(t, err)

	out, err = f.run("config", "get", "list.page_size")
	require.NoError(t, err)
	assert.Equal(t, "25\n", out)

	_, err = f.run("config", "set", "list.page_size", "zero")
	require.Error(t, err)
	assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err))

	_, err = f.run("config", "get", "providers.default")
	require.Error(t, err)
	assert.Equal(t, rerrors.ErrCodeConfigKeyUnknown, codeOf(t, err))
}

func TestConfigViewEffective(t *testing.T) {
	f := newFixture(t, testToken)
	t.Setenv(config.EnvPageSize, "7")

	out, err := f.run("config", "view", "--format", "json")
	require.NoError(t, err)
	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, employee.DefaultPageSize, cfg.List.PageSize)

	out, err = f.run("config", "view", "--effective", "--format", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, 7, cfg.List.PageSize)
}

func TestAPIURLFlagOverridesConfig(t *testing.T) {
	f := newFixture(t, testToken)
	f.login(t, testToken)
	_, err := f.run("config", "set", "api.base_url", "http://127.0.0.1:1")
	require.NoError(t, err)

	// run always passes --api-url, which must win over the file
	_, err = f.run("departments")
	require.NoError(t, err)
}

func TestMetricsTextfileWrittenOnExit(t *testing.T) {
	f := newFixture(t, testToken)
	f.login(t, testToken)
	path := filepath.Join(t.TempDir(), "roster.prom")
	_, err := f.run("config", "set", "metrics.textfile", path)
	require.NoError(t, err)

	_, err = f.run("employees", "list")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "roster_api_requests_total")
}

func TestVersion(t *testing.T) {
	f := newFixture(t, testToken)

	out, err := f.run("version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "roster "))

	out, err = f.run("version", "--format", "json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "go_version")
}

func TestUIRejectsUnknownStart(t *testing.T) {
	f := newFixture(t, testToken)

	_, err := f.run("ui", "--start", "/admin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--start")
}

func TestDoctor(t *testing.T) {
	f := newFixture(t, testToken)
	f.login(t, testToken)
	_, err := f.run("config", "set", "export.dir", filepath.Join(t.TempDir(), "exports"))
	require.NoError(t, err)

	out, err := f.run("doctor", "--format", "json")
	require.NoError(t, err)

	var report doctorReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "healthy", report.Overall.String())
	require.Len(t, report.Checks, 4)
	assert.Equal(t, "employee-api", report.Checks[0].Name)
	assert.Equal(t, "session", report.Checks[1].Name)
}

func TestDoctorUnreachable(t *testing.T) {
	f := newFixture(t, testToken)
	f.srv.Close()

	out, err := f.run("doctor")
	require.Error(t, err)
	assert.Contains(t, out, "unreachable")
	assert.Contains(t, out, "Overall: unhealthy")
}
