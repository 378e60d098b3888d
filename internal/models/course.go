package models

import (
	"errors"
	"fmt"
)

// ErrInvalidUnits is returned when a course is built with a non-positive unit count.
var ErrInvalidUnits = errors.New("course units must be positive")

// Course represents a catalog course. It is treated as immutable once built.
type Course struct {
	ID            string   `db:"id" json:"id"`
	Code          string   `db:"code" json:"code"`
	Name          string   `db:"name" json:"name"`
	Units         int      `db:"units" json:"units"`
	Prerequisites []Course `db:"-" json:"prerequisites,omitempty"`
}

// NewCourse builds a course and validates its unit count.
func NewCourse(id, code, name string, units int, prerequisites ...Course) (Course, error) {
	if units <= 0 {
		return Course{}, fmt.Errorf("%w: %s has %d", ErrInvalidUnits, code, units)
	}
	var pre []Course
	if len(prerequisites) > 0 {
		pre = make([]Course, len(prerequisites))
		copy(pre, prerequisites)
	}
	return Course{ID: id, Code: code, Name: name, Units: units, Prerequisites: pre}, nil
}

// SameAs reports whether both values identify the same catalog course.
func (c Course) SameAs(other Course) bool {
	return c.Code == other.Code
}

// String returns the course name, falling back to its code.
func (c Course) String() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Code
}

// CoursePrerequisite links a course to one of its prerequisites.
type CoursePrerequisite struct {
	CourseID       string `db:"course_id"`
	PrerequisiteID string `db:"prerequisite_id"`
	Code           string `db:"code"`
	Name           string `db:"name"`
	Units          int    `db:"units"`
}
