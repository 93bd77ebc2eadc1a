// Package usn parses university seat numbers (USNs) of the fixed shape
// <college-code><2-digit year><2-letter dept><3-digit serial>, for example
// 1CR21CS042, and classifies students by entry type from the serial range.
package usn

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

// Rules is the immutable configuration the parser runs against. It replaces
// what used to be module-level constant maps so a different college code or
// department table needs no code change.
type Rules struct {
	CollegeCode string
	Departments map[string]string // code -> full name
	MinYear     int

	// Serial ranges per entry type. Anything outside both ranges is invalid.
	RegularMin, RegularMax int
	LateralMin, LateralMax int
}

// DefaultDepartments is the standard department table.
var DefaultDepartments = map[string]string{
	"CS": "Computer Science and Engineering",
	"IS": "Information Science and Engineering",
	"EC": "Electronics and Communication Engineering",
	"EE": "Electrical and Electronics Engineering",
	"ME": "Mechanical Engineering",
	"CV": "Civil Engineering",
}

// DefaultRules builds Rules from the academic configuration, using the
// default department table filtered to the configured codes.
func DefaultRules(cfg shared.AcademicConfig) Rules {
	depts := make(map[string]string, len(cfg.DepartmentCodes))
	for _, code := range cfg.DepartmentCodes {
		if name, ok := DefaultDepartments[code]; ok {
			depts[code] = name
		} else {
			depts[code] = code
		}
	}
	return Rules{
		CollegeCode: cfg.CollegeCode,
		Departments: depts,
		MinYear:     cfg.MinAdmissionYear,
		RegularMin:  1,
		RegularMax:  399,
		LateralMin:  400,
		LateralMax:  490,
	}
}

// Parsed is the decomposed form of a valid USN.
type Parsed struct {
	USN            string
	CollegeCode    string
	AdmissionYear  int
	Department     string
	DepartmentName string
	Serial         int
	EntryType      shared.EntryType
}

// Option configures a Parser.
type Option func(*Parser)

// WithClock overrides the time source, used by tests for the year-range
// check and the current-semester calculation.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// Parser validates and decomposes USNs. Parsing is a pure function of the
// rules and the current date; the date is used only for year-range
// validation, never for classification.
type Parser struct {
	rules   Rules
	pattern *regexp.Regexp
	now     func() time.Time
}

// NewParser builds a Parser for the given rules.
func NewParser(rules Rules, opts ...Option) *Parser {
	p := &Parser{
		rules:   rules,
		pattern: regexp.MustCompile("^" + regexp.QuoteMeta(rules.CollegeCode) + `(\d{2})([A-Z]{2})(\d{3})$`),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse validates a USN and returns its parts.
func (p *Parser) Parse(usn string) (Parsed, error) {
	normalized := strings.ToUpper(strings.TrimSpace(usn))

	m := p.pattern.FindStringSubmatch(normalized)
	if m == nil {
		return Parsed{}, shared.Errorf(shared.CodeFormat,
			"USN %q does not match pattern %s<YY><DEPT><NNN>", usn, p.rules.CollegeCode)
	}

	yy, _ := strconv.Atoi(m[1])
	year := 2000 + yy
	if year < p.rules.MinYear || year > p.now().Year() {
		return Parsed{}, shared.Errorf(shared.CodeInvalidYear,
			"admission year %d out of range [%d, %d]", year, p.rules.MinYear, p.now().Year())
	}

	dept := m[2]
	deptName, ok := p.rules.Departments[dept]
	if !ok {
		return Parsed{}, shared.Errorf(shared.CodeUnknownDepartment,
			"unknown department code %q", dept)
	}

	serial, _ := strconv.Atoi(m[3])
	entry, err := p.classify(serial)
	if err != nil {
		return Parsed{}, err
	}

	return Parsed{
		USN:            normalized,
		CollegeCode:    p.rules.CollegeCode,
		AdmissionYear:  year,
		Department:     dept,
		DepartmentName: deptName,
		Serial:         serial,
		EntryType:      entry,
	}, nil
}

func (p *Parser) classify(serial int) (shared.EntryType, error) {
	switch {
	case serial >= p.rules.RegularMin && serial <= p.rules.RegularMax:
		return shared.EntryRegular, nil
	case serial >= p.rules.LateralMin && serial <= p.rules.LateralMax:
		return shared.EntryLateral, nil
	default:
		return "", shared.Errorf(shared.CodeInvalidSerial,
			"serial %d outside regular [%d,%d] and lateral [%d,%d] ranges",
			serial, p.rules.RegularMin, p.rules.RegularMax, p.rules.LateralMin, p.rules.LateralMax)
	}
}

// CurrentSemester computes the semester a student should be in today.
// The academic year turns over on July 1: July-December is the odd
// (first) half, January-June the even half of the academic year that
// started the previous July. Regular students begin at semester 1,
// lateral at semester 3. The result is clamped to [1, 8].
func (p *Parser) CurrentSemester(admissionYear int, entry shared.EntryType) int {
	now := p.now()

	academicYears := now.Year() - admissionYear
	offset := 0
	if now.Month() < time.July {
		// Still inside the academic year that began last July.
		academicYears--
		offset = 1
	}

	sem := shared.StartSemester(entry) + 2*academicYears + offset

	if sem < shared.FirstSemester {
		return shared.FirstSemester
	}
	if sem > shared.LastSemester {
		return shared.LastSemester
	}
	return sem
}
