// Package apitest runs an in-memory employee API for tests.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/felixgeelhaar/roster/internal/employee"
)

// Request is a recorded incoming request.
type Request struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	RequestID     string
}

// Server is a fake employee API backed by maps.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	email       string
	password    string
	token       string
	departments []employee.Department
	employees   map[int64]employee.Employee
	nextID      int64
	requests    []Request
	forced      map[string]int
}

// New starts a server that accepts email/password and issues token.
func New(email, password, token string) *Server {
	s := &Server{
		email:     email,
		password:  password,
		token:     token,
		employees: make(map[int64]employee.Employee),
		nextID:    1,
		forced:    make(map[string]int),
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

// AddDepartment registers a department.
func (s *Server) AddDepartment(id int64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.departments = append(s.departments, employee.Department{ID: id, Name: name})
}

// AddEmployee stores an employee and returns it with its assigned ID.
func (s *Server) AddEmployee(name, email string, departmentID int64) employee.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := employee.Employee{ID: s.nextID, Name: name, Email: email, DepartmentID: departmentID}
	s.employees[e.ID] = e
	s.nextID++
	return e
}

// PutEmployee stores e under its own ID.
func (s *Server) PutEmployee(e employee.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.ID] = e
}

// Employee returns a stored employee.
func (s *Server) Employee(id int64) (employee.Employee, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	return e, ok
}

// ForceStatus makes every request matching method and path (without query)
// answer status until cleared with status 0.
func (s *Server) ForceStatus(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	if status == 0 {
		delete(s.forced, key)
		return
	}
	s.forced[key] = status
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent request matching method and path.
func (s *Server) LastRequest(method, path string) (Request, bool) {
	reqs := s.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return Request{}, false
}

func (s *Server) router() http.Handler {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(s.record, s.forcedStatus)

	r.POST("/api/auth/login", s.login)

	emp := r.Group("/api/employees", s.requireToken)
	emp.GET("", s.list)
	emp.GET("/departments", s.listDepartments)
	emp.POST("", s.create)
	emp.PUT("/:id", s.update)
	emp.DELETE("/:id", s.remove)

	return r
}

func (s *Server) record(c *gin.Context) {
	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:        c.Request.Method,
		Path:          c.Request.URL.Path,
		RawQuery:      c.Request.URL.RawQuery,
		Authorization: c.GetHeader("Authorization"),
		RequestID:     c.GetHeader("X-Request-ID"),
	})
	s.mu.Unlock()
	c.Next()
}

func (s *Server) forcedStatus(c *gin.Context) {
	s.mu.Lock()
	status, ok := s.forced[c.Request.Method+" "+c.Request.URL.Path]
	s.mu.Unlock()
	if ok {
		c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
		return
	}
	c.Next()
}

func (s *Server) requireToken(c *gin.Context) {
	if c.GetHeader("Authorization") != "Bearer "+s.token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Next()
}

func (s *Server) login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if body.Email != s.email || body.Password != s.password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": s.token})
}

func (s *Server) list(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	search := strings.ToLower(c.Query("search"))
	depID, _ := strconv.ParseInt(c.Query("departmentId"), 10, 64)

	s.mu.Lock()
	var matched []employee.Employee
	for _, e := range s.employees {
		if search != "" && !strings.Contains(strings.ToLower(e.Name), search) {
			continue
		}
		if depID > 0 && e.DepartmentID != depID {
			continue
		}
		matched = append(matched, s.withDepartment(e))
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	rows := []employee.Employee{}
	if start := (page - 1) * limit; start < len(matched) {
		end := start + limit
		if end > len(matched) {
			end = len(matched)
		}
		rows = matched[start:end]
	}

	c.JSON(http.StatusOK, employee.Page{Employees: rows, Total: len(matched), Page: page, Limit: limit})
}

func (s *Server) listDepartments(c *gin.Context) {
	s.mu.Lock()
	deps := append([]employee.Department{}, s.departments...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, deps)
}

func (s *Server) create(c *gin.Context) {
	var in employee.Input
	if err := c.ShouldBindJSON(&in); err != nil || in.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, email and departmentId are required"})
		return
	}
	e := s.AddEmployee(in.Name, in.Email, in.DepartmentID)
	c.JSON(http.StatusCreated, e)
}

func (s *Server) update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var in employee.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "employee not found"})
		return
	}
	e := employee.Employee{ID: id, Name: in.Name, Email: in.Email, DepartmentID: in.DepartmentID}
	s.employees[id] = e
	c.JSON(http.StatusOK, e)
}

func (s *Server) remove(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "employee not found"})
		return
	}
	delete(s.employees, id)
	c.Status(http.StatusNoContent)
}

// withDepartment embeds the department name the way list responses do.
// Callers hold s.mu.
func (s *Server) withDepartment(e employee.Employee) employee.Employee {
	for _, d := range s.departments {
		if d.ID == e.DepartmentID {
			e.Department = &employee.DepartmentRef{Name: d.Name}
			break
		}
	}
	return e
}
