// Package employee tracks the store's staff roster. Cashiers from this roster
// are the only principals allowed to open and complete sales.
package employee

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/minimarket/pos-api/internal/common"
)

// Position is a staff role.
type Position string

const (
	Cashier Position = "CASHIER"
	Manager Position = "MANAGER"
)

// Valid reports whether the position is one of the known roles.
func (p Position) Valid() bool {
	return p == Cashier || p == Manager
}

// Employee is a staff member. MonthlySalary feeds the financial report's
// expense side.
type Employee struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Position      Position `json:"position"`
	MonthlySalary float64  `json:"monthlySalary"`
}

// Service is the in-memory staff roster.
type Service struct {
	mu        sync.Mutex
	employees map[int]*Employee
	nextID    int
}

// NewService constructs an empty roster.
func NewService() *Service {
	return &Service{
		employees: make(map[int]*Employee),
		nextID:    1,
	}
}

// HireInput carries the attributes for a new employee.
type HireInput struct {
	Name          string
	Position      Position
	MonthlySalary float64
}

// Hire adds an employee to the roster and assigns the next id.
func (s *Service) Hire(in HireInput) (Employee, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Employee{}, common.Invalid("name", "employee name cannot be empty", nil)
	}
	if !in.Position.Valid() {
		return Employee{}, common.Invalid("position", "position must be CASHIER or MANAGER", nil)
	}
	if in.MonthlySalary < 0 {
		return Employee{}, common.Invalid("monthlySalary", "salary cannot be negative", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &Employee{
		ID:            s.nextID,
		Name:          name,
		Position:      in.Position,
		MonthlySalary: in.MonthlySalary,
	}
	s.nextID++
	s.employees[e.ID] = e
	return *e, nil
}

// Get returns the employee with the given id.
func (s *Service) Get(id int) (Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok {
		return Employee{}, common.NotFound("employee", fmt.Errorf("employee %d", id))
	}
	return *e, nil
}

// Terminate removes the employee from the roster.
func (s *Service) Terminate(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[id]; !ok {
		return common.NotFound("employee", fmt.Errorf("employee %d", id))
	}
	delete(s.employees, id)
	return nil
}

// SetSalary updates an employee's monthly salary.
func (s *Service) SetSalary(id int, salary float64) (Employee, error) {
	if salary < 0 {
		return Employee{}, common.Invalid("monthlySalary", "salary cannot be negative", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok {
		return Employee{}, common.NotFound("employee", fmt.Errorf("employee %d", id))
	}
	e.MonthlySalary = salary
	return *e, nil
}

// List returns every employee ordered by id, optionally filtered by position.
func (s *Service) List(position Position) []Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Employee, 0, len(s.employees))
	for _, e := range s.employees {
		if position != "" && e.Position != position {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Cashiers returns every employee holding the cashier role.
func (s *Service) Cashiers() []Employee {
	return s.List(Cashier)
}

// TotalSalaries sums the monthly salary across the roster.
func (s *Service) TotalSalaries() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, e := range s.employees {
		total += e.MonthlySalary
	}
	return total
}
